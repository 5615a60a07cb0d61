package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/flavioespinoza/seo-scraper/models"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func strPtr(s string) *string { return &s }

func sampleReport() *models.Report {
	created := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)
	return &models.Report{
		ID:        "abc-123",
		URL:       "https://www.example.com/shop",
		PageTitle: "Example Shop",
		Metadata: models.PageMetadata{
			URL:             "https://www.example.com/shop",
			PageTitle:       strPtr("Example Shop"),
			MetaDescription: nil,
			H1Tags:          []string{"Welcome", "Deals"},
			ImageCount:      4,
			HasFavicon:      true,
		},
		Validation: models.ValidationResult{
			Issues:   []string{"Missing meta description"},
			Warnings: []string{"Title is too short (recommended: 50-60 characters)"},
		},
		AIFeedback:       "Summary:\nAdd a description.",
		Tags:             []string{"Missing Meta Description", "Needs Improvement"},
		BusinessCategory: "E-commerce",
		HasIssues:        true,
		CreatedAt:        created,
		LastModified:     created,
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"markdown": FormatMarkdown,
		"MD":       FormatMarkdown,
		"json":     FormatJSON,
		"yml":      FormatYAML,
		"csv":      FormatCSV,
		" xlsx ":   FormatXLSX,
	}
	for input, want := range tests {
		got, err := ParseFormat(input)
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestFilename(t *testing.T) {
	got := Filename(sampleReport(), FormatMarkdown)
	if got != "seo-report-example-com-shop-2025-03-07_14-30-00.md" {
		t.Errorf("Unexpected filename: %s", got)
	}
	if ext := Extension(FormatXLSX); ext != ".xlsx" {
		t.Errorf("Unexpected extension: %s", ext)
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	for _, want := range []string{
		"# SEO Report for https://www.example.com/shop",
		"- **Title:** Example Shop",
		"- **Description:** Missing",
		"- **Keywords:** Not specified",
		"- **Images:** 4",
		"- **Favicon:** Present",
		"  - Welcome\n  - Deals\n",
		"- **Issue:** Missing meta description",
		"Missing Meta Description, Needs Improvement",
		"**Business Category:** E-commerce",
		"Summary:\nAdd a description.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q\n%s", want, md)
		}
	}
}

func TestMarkdownEmptyReport(t *testing.T) {
	md := Markdown(&models.Report{URL: "https://example.com"})

	for _, want := range []string{
		"**Generated:** N/A",
		"- **Favicon:** Missing",
		"  - None",
		"No AI feedback available.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), FormatJSON); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	var decoded models.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded.ID != "abc-123" || decoded.BusinessCategory != "E-commerce" {
		t.Errorf("Unexpected decoded report: %+v", decoded)
	}
}

func TestWriteReportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), FormatYAML); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid YAML: %v", err)
	}
	if decoded["business_category"] != "E-commerce" {
		t.Errorf("Expected business_category in YAML, got %v", decoded["business_category"])
	}
	if !strings.Contains(buf.String(), "meta_description: null") {
		t.Errorf("Expected null description in YAML:\n%s", buf.String())
	}
}

func TestWriteReportUnsupported(t *testing.T) {
	if err := WriteReport(&bytes.Buffer{}, sampleReport(), FormatCSV); err == nil {
		t.Error("Expected error for CSV single report export")
	}
}

func TestWriteSummariesCSV(t *testing.T) {
	summaries := []models.ReportSummary{sampleReport().Summary()}

	var buf bytes.Buffer
	if err := WriteSummaries(&buf, summaries, FormatCSV); err != nil {
		t.Fatalf("WriteSummaries failed: %v", err)
	}

	data := bytes.TrimPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected header and one row, got %d records", len(records))
	}
	if records[0][0] != "ID" || records[1][0] != "abc-123" {
		t.Errorf("Unexpected records: %v", records)
	}
	if records[1][5] != "Missing Meta Description; Needs Improvement" {
		t.Errorf("Unexpected tags column: %q", records[1][5])
	}
	if records[1][6] != "true" {
		t.Errorf("Unexpected has issues column: %q", records[1][6])
	}
}

func TestWriteSummariesXLSX(t *testing.T) {
	summaries := []models.ReportSummary{sampleReport().Summary(), sampleReport().Summary()}
	summaries[1].ID = "def-456"

	var buf bytes.Buffer
	if err := WriteSummaries(&buf, summaries, FormatXLSX); err != nil {
		t.Fatalf("WriteSummaries failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Invalid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][1] != "URL" || rows[2][0] != "def-456" {
		t.Errorf("Unexpected rows: %v", rows)
	}
}

func TestContentType(t *testing.T) {
	if !strings.HasPrefix(ContentType(FormatCSV), "text/csv") {
		t.Errorf("Unexpected CSV content type: %s", ContentType(FormatCSV))
	}
	if ContentType(Format("bogus")) != "application/octet-stream" {
		t.Error("Expected octet-stream fallback")
	}
}
