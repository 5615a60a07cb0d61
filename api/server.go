package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	scraper "github.com/flavioespinoza/seo-scraper"
	"github.com/flavioespinoza/seo-scraper/analyzer"
	"github.com/flavioespinoza/seo-scraper/db"
	"github.com/flavioespinoza/seo-scraper/feedback"
	"github.com/flavioespinoza/seo-scraper/metrics"
	"github.com/flavioespinoza/seo-scraper/storage"
)

// Server represents the API server
type Server struct {
	db          *db.DB
	analyzer    *analyzer.Analyzer
	store       storage.Store
	metrics     *metrics.Metrics
	addr        string
	server      *http.Server
	router      chi.Router
	corsEnabled bool
}

// Config contains server configuration
type Config struct {
	Addr           string
	DBConfig       db.Config
	ScraperConfig  scraper.Config
	FeedbackConfig feedback.Config
	Store          storage.Store // Snapshot store, nil disables snapshots
	Metrics        *metrics.Metrics
	CORSEnabled    bool
	DetectLanguage bool
	AnalyzeTimeout time.Duration // Upper bound for a single analyze request
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		DBConfig:       db.Config{Driver: db.DriverSQLite, DSN: "seo-reports.db"},
		ScraperConfig:  scraper.DefaultConfig(),
		FeedbackConfig: feedback.Config{BaseURL: feedback.DefaultBaseURL, Model: feedback.DefaultModel},
		CORSEnabled:    true,
		DetectLanguage: true,
		AnalyzeTimeout: 5 * time.Minute,
	}
}

// NewServer creates a new API server
func NewServer(config Config) (*Server, error) {
	database, err := db.New(config.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if config.Metrics != nil {
		if err := config.Metrics.RegisterDB(database.DB(), "seo_scraper"); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to register database metrics: %w", err)
		}
	}

	if config.AnalyzeTimeout <= 0 {
		config.AnalyzeTimeout = 5 * time.Minute
	}

	scraperInstance := scraper.New(config.ScraperConfig)

	var detector *analyzer.LanguageDetector
	if config.DetectLanguage {
		detector = analyzer.NewLanguageDetector()
	}

	analyzerInstance := analyzer.New(scraperInstance, feedback.NewClient(config.FeedbackConfig), database, analyzer.Options{
		Store:    config.Store,
		Detector: detector,
		Metrics:  config.Metrics,
	})

	s := &Server{
		db:          database,
		analyzer:    analyzerInstance,
		store:       config.Store,
		metrics:     config.Metrics,
		addr:        config.Addr,
		router:      chi.NewRouter(),
		corsEnabled: config.CORSEnabled,
	}

	s.registerRoutes(config.AnalyzeTimeout)

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: config.AnalyzeTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes(analyzeTimeout time.Duration) {
	s.router.Use(s.cors)
	s.router.Use(s.logging)
	s.router.Use(s.metrics.Middleware)

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze(analyzeTimeout))
		r.Get("/tags", s.handleTags)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", s.handleListReports)
			r.Get("/export", s.handleExportHistory)
			r.Get("/{id}", s.handleGetReport)
			r.Delete("/{id}", s.handleDeleteReport)
			r.Get("/{id}/export", s.handleExportReport)
			r.Get("/{id}/snapshot", s.handleSnapshot)
		})
	})
}

// Handler returns the instrumented root handler
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "seo-scraper",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// DB returns the report database
func (s *Server) DB() *db.DB {
	return s.db
}

// UpdateReportMetrics refreshes the stored report gauge
func (s *Server) UpdateReportMetrics(ctx context.Context) {
	count, err := s.db.Count(ctx)
	if err != nil {
		slog.Warn("failed to count reports for metrics", "error", err)
		return
	}
	s.metrics.SetReportsStored(count)
}

// Start starts the API server
func (s *Server) Start() error {
	slog.Info("starting API server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// logging skips health checks to reduce noise
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.db.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"count":  count,
		"time":   time.Now(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusForError maps analysis failures to HTTP status codes
func statusForError(err error) int {
	se, ok := scraper.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch se.Kind {
	case scraper.KindInvalidURL:
		return http.StatusBadRequest
	case scraper.KindFetchFailed:
		if se.StatusCode >= 400 && se.StatusCode <= 599 {
			return se.StatusCode
		}
		return http.StatusBadGateway
	case scraper.KindTimeout:
		return http.StatusGatewayTimeout
	case scraper.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
