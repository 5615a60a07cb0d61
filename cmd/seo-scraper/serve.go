package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flavioespinoza/seo-scraper/api"
	"github.com/flavioespinoza/seo-scraper/metrics"
	"github.com/flavioespinoza/seo-scraper/tracing"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringP("port", "p", "8080", "Server port")
	cmd.Flags().Bool("disable-cors", false, "Disable CORS")
	cmd.Flags().String("tracing-endpoint", "", "OTLP gRPC endpoint for traces (empty disables tracing)")

	bindFlags(v, cmd.Flags().Lookup, []flagBinding{
		{"port", "port"},
		{"tracing.endpoint", "tracing-endpoint"},
	})
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if disable, _ := cmd.Flags().GetBool("disable-cors"); disable {
			v.Set("cors", false)
		}
	}

	return cmd
}

func runServer(ctx context.Context, cfg *AppConfig) error {
	logger := slog.Default()
	logger.Info("seo scraper service initializing", "version", version)

	if cfg.Tracing.Endpoint != "" {
		tp, err := tracing.InitTracer(ctx, tracing.Config{
			ServiceName: "seo-scraper",
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("error shutting down tracer", "error", err)
				}
			}()
			logger.Info("tracing initialized successfully", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	m := metrics.New()
	apiConfig := api.DefaultConfig()
	apiConfig.Addr = ":" + cfg.Port
	apiConfig.DBConfig = cfg.dbConfig()
	apiConfig.ScraperConfig = cfg.scraperConfig()
	apiConfig.FeedbackConfig = cfg.feedbackConfig()
	apiConfig.Store = store
	apiConfig.Metrics = m
	apiConfig.CORSEnabled = cfg.CORS
	apiConfig.DetectLanguage = cfg.DetectLanguage

	server, err := api.NewServer(apiConfig)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Refresh the stored report gauge
	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		server.UpdateReportMetrics(metricsCtx)
		for {
			select {
			case <-metricsCtx.Done():
				return
			case <-ticker.C:
				server.UpdateReportMetrics(metricsCtx)
			}
		}
	}()
	logger.Info("report metrics initialized")

	errCh := make(chan error, 1)
	go func() {
		logger.Info("seo scraper service starting",
			"port", cfg.Port,
			"database_driver", cfg.Database.Driver,
			"storage_backend", cfg.Storage.Backend,
			"ollama_url", cfg.Ollama.URL,
			"ollama_model", cfg.Ollama.Model,
			"detect_language", cfg.DetectLanguage,
		)
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
