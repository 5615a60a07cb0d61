// Package export renders reports as downloadable documents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/flavioespinoza/seo-scraper/models"
	"github.com/flavioespinoza/seo-scraper/slug"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Format defines the export file format
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat accepts a format name or common alias such as "md" or "yml"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// ContentType returns the MIME type for a format
func ContentType(format Format) string {
	switch format {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension for a format, including the dot
func Extension(format Format) string {
	switch format {
	case FormatMarkdown:
		return ".md"
	case FormatYAML:
		return ".yaml"
	default:
		return "." + string(format)
	}
}

// Filename returns seo-report-<site>-<timestamp><ext> for a single report
func Filename(report *models.Report, format Format) string {
	created := report.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return fmt.Sprintf("seo-report-%s-%s%s",
		slug.FromURL(report.URL),
		created.UTC().Format("2006-01-02_15-04-05"),
		Extension(format),
	)
}

// HistoryFilename returns the attachment name for a report history export
func HistoryFilename(format Format, now time.Time) string {
	return fmt.Sprintf("seo-reports-%s%s", now.UTC().Format("2006-01-02"), Extension(format))
}

// WriteReport writes a single report as markdown, JSON or YAML
func WriteReport(w io.Writer, report *models.Report, format Format) error {
	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(report))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report export format: %s", format)
	}
}

// WriteSummaries writes a report history as CSV, XLSX or JSON
func WriteSummaries(w io.Writer, summaries []models.ReportSummary, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, summaries)
	case FormatXLSX:
		return writeXLSX(w, summaries)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	default:
		return fmt.Errorf("unsupported history export format: %s", format)
	}
}

var summaryColumns = []string{
	"ID", "URL", "Page Title", "Meta Description", "Business Category",
	"Tags", "Has Issues", "Created At", "Last Modified",
}

func summaryRow(s models.ReportSummary) []string {
	desc := ""
	if s.MetaDescription != nil {
		desc = *s.MetaDescription
	}
	return []string{
		s.ID,
		s.URL,
		s.PageTitle,
		desc,
		s.BusinessCategory,
		strings.Join(s.Tags, "; "),
		strconv.FormatBool(s.HasIssues),
		formatTime(s.CreatedAt),
		formatTime(s.LastModified),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeCSV(w io.Writer, summaries []models.ReportSummary) error {
	// UTF-8 BOM for Excel compatibility
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(summaryColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range summaries {
		if err := writer.Write(summaryRow(s)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

const sheetName = "Reports"

func writeXLSX(w io.Writer, summaries []models.ReportSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E88E5"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range summaryColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, columnWidth(col))
	}

	for rowIdx, s := range summaries {
		for i, value := range summaryRow(s) {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(summaryColumns))
	f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, len(summaries)+1), nil)

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func columnWidth(col string) float64 {
	switch col {
	case "URL", "Page Title", "Meta Description", "Tags":
		return 40
	default:
		return 20
	}
}
