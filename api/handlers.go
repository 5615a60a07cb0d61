package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flavioespinoza/seo-scraper/db"
	"github.com/flavioespinoza/seo-scraper/export"
	"github.com/flavioespinoza/seo-scraper/models"
	"github.com/flavioespinoza/seo-scraper/storage"
	"github.com/flavioespinoza/seo-scraper/tags"
)

// AnalyzeRequest represents an analyze request
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// ReportResponse wraps a single report
type ReportResponse struct {
	Success bool           `json:"success"`
	Report  *models.Report `json:"report"`
}

// ListResponse is a page of report summaries
type ListResponse struct {
	Success bool                   `json:"success"`
	Reports []models.ReportSummary `json:"reports"`
	Count   int                    `json:"count"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// TagsResponse lists the tag and category vocabulary
type TagsResponse struct {
	Status    []string `json:"status"`
	Technical []string `json:"technical"`
	Business  []string `json:"business"`
}

// handleAnalyze runs the full analysis for one URL and stores the report
func (s *Server) handleAnalyze(timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if strings.TrimSpace(req.URL) == "" {
			respondError(w, http.StatusBadRequest, "url is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		report, err := s.analyzer.Analyze(ctx, req.URL)
		if err != nil {
			status := statusForError(err)
			if status >= http.StatusInternalServerError {
				slog.Error("analysis failed", "url", req.URL, "status", status, "error", err)
			}
			respondError(w, status, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, ReportResponse{Success: true, Report: report})
	}
}

// handleListReports lists stored reports, newest first
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts = opts.Normalize()

	reports, err := s.db.ListReports(r.Context(), opts)
	if err != nil {
		slog.Error("failed to list reports", "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	total, err := s.db.CountReports(r.Context(), opts)
	if err != nil {
		slog.Error("failed to count reports", "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{
		Success: true,
		Reports: reports,
		Count:   len(reports),
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// handleGetReport retrieves a report by ID
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ReportResponse{Success: true, Report: report})
}

// handleDeleteReport deletes a report and its HTML snapshot
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteReport(r.Context(), report.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "report not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}

	if s.store != nil && report.SnapshotKey != "" {
		if err := s.store.Delete(r.Context(), report.SnapshotKey); err != nil {
			slog.Warn("failed to delete snapshot", "report_id", report.ID, "key", report.SnapshotKey, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "report deleted successfully",
	})
}

// handleExportReport downloads one report as markdown, JSON or YAML
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	format, err := parseFormat(r.URL.Query().Get("format"), export.FormatMarkdown,
		export.FormatMarkdown, export.FormatJSON, export.FormatYAML)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReport(&buf, report, format); err != nil {
		slog.Error("failed to export report", "report_id", report.ID, "format", format, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to export report")
		return
	}

	writeAttachment(w, export.Filename(report, format), export.ContentType(format), buf.Bytes())
}

// handleExportHistory downloads all matching report summaries as CSV, XLSX or JSON
func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format, err := parseFormat(query.Get("format"), export.FormatCSV,
		export.FormatCSV, export.FormatXLSX, export.FormatJSON)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := parseListOptions(query)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summaries, err := s.allSummaries(r.Context(), opts)
	if err != nil {
		slog.Error("failed to load report history", "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSummaries(&buf, summaries, format); err != nil {
		slog.Error("failed to export report history", "format", format, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to export reports")
		return
	}

	writeAttachment(w, export.HistoryFilename(format, time.Now()), export.ContentType(format), buf.Bytes())
}

// handleSnapshot serves the stored HTML of the analyzed page
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	if s.store == nil || report.SnapshotKey == "" {
		respondError(w, http.StatusNotFound, "snapshot not available")
		return
	}

	data, err := s.store.Read(r.Context(), report.SnapshotKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "snapshot not available")
			return
		}
		slog.Error("failed to read snapshot", "key", report.SnapshotKey, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read snapshot")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleTags returns the tag and category vocabulary
func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, TagsResponse{
		Status:    tags.Strings(tags.StatusTags),
		Technical: tags.Strings(tags.TechnicalTags),
		Business:  tags.BusinessCategories,
	})
}

// loadReport fetches the {id} report, writing an error response when it cannot
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return nil, false
	}

	report, err := s.db.GetReport(r.Context(), id)
	if err != nil {
		slog.Error("failed to load report", "report_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return nil, false
	}
	if report == nil {
		respondError(w, http.StatusNotFound, "report not found")
		return nil, false
	}
	return report, true
}

// allSummaries pages through every report matching the filters
func (s *Server) allSummaries(ctx context.Context, opts db.ListOptions) ([]models.ReportSummary, error) {
	opts.Limit = db.MaxListLimit
	opts.Offset = 0

	all := []models.ReportSummary{}
	for {
		page, err := s.db.ListReports(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < opts.Limit {
			return all, nil
		}
		opts.Offset += opts.Limit
	}
}

// parseListOptions reads report filters and pagination from the query string
func parseListOptions(query url.Values) (db.ListOptions, error) {
	opts := db.ListOptions{
		URL:      query.Get("url"),
		Tag:      query.Get("tag"),
		Category: query.Get("category"),
	}

	if v := query.Get("has_issues"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid has_issues value: %s", v)
		}
		opts.HasIssues = &b
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid limit value: %s", v)
		}
		opts.Limit = n
	}
	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid offset value: %s", v)
		}
		opts.Offset = n
	}
	return opts, nil
}

// parseFormat parses an export format, falling back to def when empty and rejecting formats not in allowed
func parseFormat(value string, def export.Format, allowed ...export.Format) (export.Format, error) {
	if value == "" {
		return def, nil
	}
	format, err := export.ParseFormat(value)
	if err != nil {
		return "", err
	}
	for _, a := range allowed {
		if format == a {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported export format: %s", value)
}

func writeAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
