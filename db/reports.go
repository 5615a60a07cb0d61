package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flavioespinoza/seo-scraper/models"
)

// Listing limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListOptions filters and paginates report listings. Zero values mean no filter.
type ListOptions struct {
	URL       string // Exact URL match
	Tag       string // Report carries this tag
	Category  string // Business category
	HasIssues *bool
	Limit     int
	Offset    int
}

// Normalize clamps the limit and offset to supported values
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// where builds the filter clause and its arguments
func (o ListOptions) where() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if o.URL != "" {
		conditions = append(conditions, "url = ?")
		args = append(args, o.URL)
	}
	if o.Tag != "" {
		conditions = append(conditions, "tags LIKE ?")
		args = append(args, "%|"+o.Tag+"|%")
	}
	if o.Category != "" {
		conditions = append(conditions, "business_category = ?")
		args = append(args, o.Category)
	}
	if o.HasIssues != nil {
		conditions = append(conditions, "has_issues = ?")
		args = append(args, *o.HasIssues)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListReports returns report summaries matching opts, newest first
func (db *DB) ListReports(ctx context.Context, opts ListOptions) ([]models.ReportSummary, error) {
	opts = opts.Normalize()
	where, args := opts.where()

	query := db.rebind("SELECT data FROM seo_reports" + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	results := []models.ReportSummary{}
	for rows.Next() {
		var jsonData string
		if err := rows.Scan(&jsonData); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var report models.Report
		if err := json.Unmarshal([]byte(jsonData), &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}

		results = append(results, report.Summary())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// CountReports returns the number of reports matching opts, ignoring pagination
func (db *DB) CountReports(ctx context.Context, opts ListOptions) (int, error) {
	where, args := opts.where()

	var count int
	if err := db.conn.QueryRowContext(ctx, db.rebind("SELECT COUNT(*) FROM seo_reports"+where), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}
