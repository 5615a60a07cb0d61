package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// newRootCmd builds the command tree around a fresh viper instance
func newRootCmd() *cobra.Command {
	v := viper.New()
	setDefaults(v)

	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "seo-scraper",
		Short: "SEO metadata analyzer and report service",
		Long: `seo-scraper fetches web pages, checks their on-page SEO metadata,
asks a language model for written feedback and stores tagged reports.`,
		Version:      fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			setupLogging(v.GetString("log_level"))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./seo-scraper.yaml)")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("db-driver", "sqlite", "Database driver: sqlite or postgres")
	flags.String("db-dsn", "seo-reports.db", "Database DSN or SQLite file path")
	flags.Duration("timeout", 10*time.Second, "Page fetch timeout")
	flags.String("ollama-url", "http://localhost:11434", "Ollama base URL")
	flags.String("ollama-model", "gpt-oss:20b", "Ollama model used for feedback")
	flags.String("storage", "file", "Snapshot storage backend: file, s3 or none")
	flags.String("storage-path", "./storage", "Base directory for file storage")

	bindFlags(v, flags.Lookup, []flagBinding{
		{"log_level", "log-level"},
		{"database.driver", "db-driver"},
		{"database.dsn", "db-dsn"},
		{"scraper.http_timeout", "timeout"},
		{"ollama.url", "ollama-url"},
		{"ollama.model", "ollama-model"},
		{"storage.backend", "storage"},
		{"storage.path", "storage-path"},
	})

	rootCmd.AddCommand(
		newServeCmd(v),
		newAnalyzeCmd(v),
		newMigrateCmd(v),
		newMCPCmd(v),
		newConfigCmd(v),
	)

	return rootCmd
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# Current seo-scraper configuration\n")
			fmt.Fprintf(out, "# Environment variables prefix: SEO_\n\n")
			_, err = out.Write(data)
			return err
		},
	})
	return cmd
}
