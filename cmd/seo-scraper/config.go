package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	scraper "github.com/flavioespinoza/seo-scraper"
	"github.com/flavioespinoza/seo-scraper/db"
	"github.com/flavioespinoza/seo-scraper/feedback"
	"github.com/flavioespinoza/seo-scraper/storage"
)

// AppConfig is the merged configuration from defaults, file, environment and flags
type AppConfig struct {
	Port           string         `mapstructure:"port" yaml:"port"`
	LogLevel       string         `mapstructure:"log_level" yaml:"log_level"`
	CORS           bool           `mapstructure:"cors" yaml:"cors"`
	DetectLanguage bool           `mapstructure:"detect_language" yaml:"detect_language"`
	Database       DatabaseConfig `mapstructure:"database" yaml:"database"`
	Scraper        ScraperConfig  `mapstructure:"scraper" yaml:"scraper"`
	Ollama         OllamaConfig   `mapstructure:"ollama" yaml:"ollama"`
	Storage        StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Tracing        TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// DatabaseConfig selects the report database
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// ScraperConfig controls page fetching
type ScraperConfig struct {
	HTTPTimeout  time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// OllamaConfig points at the feedback model
type OllamaConfig struct {
	URL           string        `mapstructure:"url" yaml:"url"`
	Model         string        `mapstructure:"model" yaml:"model"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
}

// StorageConfig selects where HTML snapshots are kept
type StorageConfig struct {
	Backend string   `mapstructure:"backend" yaml:"backend"` // file, s3 or none
	Path    string   `mapstructure:"path" yaml:"path"`
	S3      S3Config `mapstructure:"s3" yaml:"s3"`
}

// S3Config mirrors storage.S3Config for configuration files
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	Region          string `mapstructure:"region" yaml:"region"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"-"`
	UsePathStyle    bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
}

// TracingConfig enables OTLP trace export when Endpoint is set
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

// setDefaults registers every key so environment variables are picked up by Unmarshal
func setDefaults(v *viper.Viper) {
	scraperDefaults := scraper.DefaultConfig()
	storageDefaults := storage.DefaultConfig()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors", true)
	v.SetDefault("detect_language", true)

	v.SetDefault("database.driver", db.DriverSQLite)
	v.SetDefault("database.dsn", "seo-reports.db")

	v.SetDefault("scraper.http_timeout", scraperDefaults.HTTPTimeout)
	v.SetDefault("scraper.user_agent", scraperDefaults.UserAgent)
	v.SetDefault("scraper.max_body_bytes", scraperDefaults.MaxBodyBytes)

	v.SetDefault("ollama.url", feedback.DefaultBaseURL)
	v.SetDefault("ollama.model", feedback.DefaultModel)
	v.SetDefault("ollama.timeout", 2*time.Minute)
	v.SetDefault("ollama.max_concurrent", feedback.DefaultMaxConcurrent)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", storageDefaults.BasePath)
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("storage.s3.prefix", "")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// initConfig reads the config file and environment into v
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("seo-scraper")
	}

	v.SetEnvPrefix("SEO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	return nil
}

// loadConfig unmarshals v into an AppConfig
func loadConfig(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ParseLevel converts a string log level to slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging installs the JSON logger on stderr so command output on stdout stays clean
func setupLogging(level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

func (c *AppConfig) dbConfig() db.Config {
	return db.Config{Driver: c.Database.Driver, DSN: c.Database.DSN}
}

func (c *AppConfig) scraperConfig() scraper.Config {
	return scraper.Config{
		HTTPTimeout:  c.Scraper.HTTPTimeout,
		UserAgent:    c.Scraper.UserAgent,
		MaxBodyBytes: c.Scraper.MaxBodyBytes,
	}
}

func (c *AppConfig) feedbackConfig() feedback.Config {
	return feedback.Config{
		BaseURL:       c.Ollama.URL,
		Model:         c.Ollama.Model,
		Timeout:       c.Ollama.Timeout,
		MaxConcurrent: c.Ollama.MaxConcurrent,
	}
}

// openStore builds the configured snapshot store. Backend "none" returns nil.
func (c *AppConfig) openStore(ctx context.Context) (storage.Store, error) {
	switch strings.ToLower(c.Storage.Backend) {
	case "", "none":
		return nil, nil
	case "file":
		return storage.New(storage.Config{BasePath: c.Storage.Path})
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:        c.Storage.S3.Endpoint,
			Region:          c.Storage.S3.Region,
			Bucket:          c.Storage.S3.Bucket,
			AccessKeyID:     c.Storage.S3.AccessKeyID,
			SecretAccessKey: c.Storage.S3.SecretAccessKey,
			UsePathStyle:    c.Storage.S3.UsePathStyle,
			Prefix:          c.Storage.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
}
