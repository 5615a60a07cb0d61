// Package analyzer runs the full SEO analysis pipeline for a single URL.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	scraper "github.com/flavioespinoza/seo-scraper"
	"github.com/flavioespinoza/seo-scraper/feedback"
	"github.com/flavioespinoza/seo-scraper/metrics"
	"github.com/flavioespinoza/seo-scraper/models"
	"github.com/flavioespinoza/seo-scraper/slug"
	"github.com/flavioespinoza/seo-scraper/storage"
	"github.com/flavioespinoza/seo-scraper/tags"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NoTitle is stored as the report page title when the page has none
const NoTitle = "(No title)"

var tracer = otel.Tracer("github.com/flavioespinoza/seo-scraper/analyzer")

// Fetcher retrieves the raw HTML of a normalized URL
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (string, error)
}

// FeedbackGenerator produces written SEO feedback for extracted metadata
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, metadata models.PageMetadata) (string, error)
}

// ReportSaver persists finished reports
type ReportSaver interface {
	SaveReport(ctx context.Context, report *models.Report) error
}

// Options holds the optional collaborators of an Analyzer
type Options struct {
	Store    storage.Store // Snapshot store, nil disables snapshots
	Detector *LanguageDetector
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Analyzer wires fetching, extraction, validation, feedback and tagging into reports
type Analyzer struct {
	fetcher  Fetcher
	feedback FeedbackGenerator
	saver    ReportSaver
	store    storage.Store
	detector *LanguageDetector
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Preview is the result of the analysis core without feedback or persistence
type Preview struct {
	Metadata         models.PageMetadata     `json:"metadata"`
	Validation       models.ValidationResult `json:"validation"`
	Tags             []string                `json:"tags"`
	BusinessCategory string                  `json:"business_category"`
	Language         string                  `json:"language,omitempty"`
}

// New creates an Analyzer. fetcher is required; feedback and saver may be nil for preview-only use.
func New(fetcher Fetcher, feedbackGen FeedbackGenerator, saver ReportSaver, opts Options) *Analyzer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		fetcher:  fetcher,
		feedback: feedbackGen,
		saver:    saver,
		store:    opts.Store,
		detector: opts.Detector,
		metrics:  opts.Metrics,
		now:      now,
	}
}

// Analyze fetches the page, builds a complete report and persists it.
// Scraper failures are returned unchanged so callers can map their kinds.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*models.Report, error) {
	ctx, span := tracer.Start(ctx, "analyzer.Analyze", trace.WithAttributes(attribute.String("url.input", rawURL)))
	defer span.End()

	start := a.now()

	fullURL, html, err := a.fetch(ctx, rawURL)
	if err != nil {
		return nil, a.fail(span, err)
	}

	metadata := scraper.ExtractMetadata(fullURL, html)
	validation := scraper.ValidateMetadata(metadata)

	if a.feedback == nil {
		return nil, a.fail(span, fmt.Errorf("feedback generator not configured"))
	}
	feedbackStart := time.Now()
	aiFeedback, err := a.feedback.GenerateFeedback(ctx, metadata)
	a.metrics.ObserveFeedback(time.Since(feedbackStart))
	if err != nil {
		a.metrics.RecordAnalysis(metrics.OutcomeFeedbackFailed)
		return nil, a.fail(span, fmt.Errorf("failed to generate feedback: %w", err))
	}

	analysis := feedback.Parse(aiFeedback)
	pageTitle := metadata.Title()
	if pageTitle == "" {
		pageTitle = NoTitle
	}

	now := a.now()
	report := &models.Report{
		ID:               uuid.New().String(),
		URL:              fullURL,
		PageTitle:        pageTitle,
		Metadata:         metadata,
		Validation:       validation,
		AIFeedback:       aiFeedback,
		Analysis:         &analysis,
		Tags:             tags.Strings(tags.GenerateFromMetadata(metadata, aiFeedback)),
		BusinessCategory: tags.DetectBusinessCategory(metadata, aiFeedback, fullURL),
		Language:         a.detector.Detect(metadata),
		HasIssues:        HasIssues(metadata),
		CreatedAt:        now,
		LastModified:     now,
	}

	report.SnapshotKey = a.snapshot(ctx, report, html)
	report.ProcessingTime = a.now().Sub(start).Seconds()

	if a.saver != nil {
		if err := a.saver.SaveReport(ctx, report); err != nil {
			a.metrics.RecordAnalysis(metrics.OutcomeStoreFailed)
			return nil, a.fail(span, fmt.Errorf("failed to save report: %w", err))
		}
	}

	a.metrics.RecordAnalysis(metrics.OutcomeSuccess)
	span.SetAttributes(
		attribute.String("report.id", report.ID),
		attribute.Int("report.tags", len(report.Tags)),
		attribute.String("report.category", report.BusinessCategory),
	)
	slog.Info("analysis complete",
		"url", report.URL,
		"report_id", report.ID,
		"issues", len(validation.Issues),
		"warnings", len(validation.Warnings),
		"duration", report.ProcessingTime,
	)
	return report, nil
}

// Preview runs extraction, validation, tagging and categorization without
// calling the language model, storing snapshots or persisting anything.
func (a *Analyzer) Preview(ctx context.Context, rawURL string) (*Preview, error) {
	ctx, span := tracer.Start(ctx, "analyzer.Preview", trace.WithAttributes(attribute.String("url.input", rawURL)))
	defer span.End()

	fullURL, html, err := a.fetch(ctx, rawURL)
	if err != nil {
		return nil, a.fail(span, err)
	}

	metadata := scraper.ExtractMetadata(fullURL, html)
	a.metrics.RecordAnalysis(metrics.OutcomeSuccess)

	return &Preview{
		Metadata:         metadata,
		Validation:       scraper.ValidateMetadata(metadata),
		Tags:             tags.Strings(tags.GenerateFromMetadata(metadata, "")),
		BusinessCategory: tags.DetectBusinessCategory(metadata, "", fullURL),
		Language:         a.detector.Detect(metadata),
	}, nil
}

// HasIssues reports whether the page misses a title, description, images or a favicon
func HasIssues(metadata models.PageMetadata) bool {
	return metadata.PageTitle == nil ||
		metadata.MetaDescription == nil ||
		metadata.ImageCount == 0 ||
		!metadata.HasFavicon
}

func (a *Analyzer) fetch(ctx context.Context, rawURL string) (string, string, error) {
	fullURL, err := scraper.NormalizeURL(rawURL)
	if err != nil {
		a.recordScraperError(err)
		return "", "", err
	}

	fetchStart := time.Now()
	html, err := a.fetcher.Fetch(ctx, fullURL)
	a.metrics.ObserveFetch(time.Since(fetchStart))
	if err != nil {
		a.recordScraperError(err)
		return "", "", err
	}
	return fullURL, html, nil
}

// snapshot stores the fetched HTML and returns its key. Failures are logged and yield "".
func (a *Analyzer) snapshot(ctx context.Context, report *models.Report, html string) string {
	if a.store == nil {
		return ""
	}
	key := storage.SnapshotKey(slug.FromURL(report.URL)+"-"+report.ID[:8], report.CreatedAt)
	if err := a.store.Save(ctx, key, []byte(html), "text/html; charset=utf-8"); err != nil {
		slog.Warn("failed to store HTML snapshot", "url", report.URL, "key", key, "error", err)
		return ""
	}
	return key
}

func (a *Analyzer) recordScraperError(err error) {
	outcome := metrics.OutcomeNetworkError
	switch {
	case errors.Is(err, scraper.ErrInvalidURL):
		outcome = metrics.OutcomeInvalidURL
	case errors.Is(err, scraper.ErrFetchFailed):
		outcome = metrics.OutcomeFetchFailed
	case errors.Is(err, scraper.ErrTimeout):
		outcome = metrics.OutcomeTimeout
	}
	a.metrics.RecordAnalysis(outcome)
}

func (a *Analyzer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
