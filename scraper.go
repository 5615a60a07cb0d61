package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flavioespinoza/seo-scraper/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultUserAgent identifies the scraper to remote sites
const DefaultUserAgent = "Mozilla/5.0 (compatible; SEO-Report-Generator/1.0)"

var tracer = otel.Tracer("github.com/flavioespinoza/seo-scraper")

// Config contains scraper configuration
type Config struct {
	HTTPTimeout  time.Duration // Deadline for the single page fetch
	UserAgent    string
	MaxBodyBytes int64 // Maximum HTML bytes read from a response (0 = unlimited)
}

// DefaultConfig returns default scraper configuration
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:  10 * time.Second,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: 5 * 1024 * 1024, // 5MB
	}
}

// Scraper fetches pages and extracts their SEO metadata
type Scraper struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Scraper instance
func New(config Config) *Scraper {
	defaults := DefaultConfig()
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = defaults.HTTPTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	return &Scraper{
		config: config,
		httpClient: &http.Client{
			// Deadline is enforced per request through the context
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Config returns the effective scraper configuration
func (s *Scraper) Config() Config {
	return s.config
}

// ScrapeMetadata normalizes the URL, fetches the page once and extracts its metadata.
// Failures are always *Error values of one of the four kinds.
func (s *Scraper) ScrapeMetadata(ctx context.Context, rawURL string) (models.PageMetadata, error) {
	fullURL, err := NormalizeURL(rawURL)
	if err != nil {
		return models.PageMetadata{}, err
	}

	body, err := s.Fetch(ctx, fullURL)
	if err != nil {
		return models.PageMetadata{}, err
	}

	return ExtractMetadata(fullURL, body), nil
}

// Fetch performs a single GET of an already normalized URL and returns the raw HTML.
// There are no retries.
func (s *Scraper) Fetch(ctx context.Context, targetURL string) (string, error) {
	ctx, span := tracer.Start(ctx, "scraper.Fetch", trace.WithAttributes(attribute.String("url.full", targetURL)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.config.HTTPTimeout)
	defer cancel()

	body, err := s.fetch(ctx, targetURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return body, nil
}

func (s *Scraper) fetch(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", invalidURLError(err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Debug("fetch failed", "url", targetURL, "error", err)
		return "", classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fetchFailedError(resp.StatusCode, statusText(resp))
	}

	var reader io.Reader = resp.Body
	if s.config.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, s.config.MaxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}

	slog.Debug("fetched page",
		"url", targetURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return string(body), nil
}

// classifyTransportError separates deadline expiry from other transport failures
func classifyTransportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return timeoutError(err)
	}

	// Report the transport cause rather than the "Get <url>:" wrapper
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		cause = urlErr.Err
	}
	return networkError(cause)
}

// statusText returns the reason phrase sent by the server, falling back to the standard text
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
