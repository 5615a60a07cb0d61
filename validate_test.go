package scraper

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/flavioespinoza/seo-scraper/models"
)

func strPtr(s string) *string { return &s }

// wellFormed returns metadata that passes every rule
func wellFormed() models.PageMetadata {
	title := strings.Repeat("t", 55)
	desc := strings.Repeat("d", 155)
	return models.PageMetadata{
		URL:               "https://example.com",
		PageTitle:         &title,
		MetaDescription:   &desc,
		H1Tags:            []string{"Welcome"},
		ImageCount:        3,
		HasFavicon:        true,
		TitleLength:       utf8.RuneCountInString(title),
		DescriptionLength: utf8.RuneCountInString(desc),
	}
}

func TestValidateMetadataClean(t *testing.T) {
	result := ValidateMetadata(wellFormed())

	if result.Issues == nil || result.Warnings == nil {
		t.Fatal("Expected non-nil slices")
	}
	if len(result.Issues) != 0 || len(result.Warnings) != 0 {
		t.Errorf("Expected no findings, got issues=%v warnings=%v", result.Issues, result.Warnings)
	}
}

func TestValidateMetadataMissingEverything(t *testing.T) {
	result := ValidateMetadata(models.PageMetadata{URL: "https://example.com", H1Tags: []string{}})

	for _, want := range []string{"Missing page title", "Missing meta description", "No H1 tags found"} {
		if !slices.Contains(result.Issues, want) {
			t.Errorf("Expected issue %q in %v", want, result.Issues)
		}
	}
	if !slices.Contains(result.Warnings, "No favicon detected") {
		t.Errorf("Expected favicon warning in %v", result.Warnings)
	}
	for _, w := range result.Warnings {
		if strings.Contains(w, "too short") {
			t.Errorf("Absent fields must not be flagged as too short: %q", w)
		}
	}
}

func TestValidateMetadataLengths(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *models.PageMetadata)
		warning string
	}{
		{
			name: "short title",
			mutate: func(m *models.PageMetadata) {
				m.PageTitle = strPtr("Short")
				m.TitleLength = 5
			},
			warning: "Title is too short (recommended: 50-60 characters)",
		},
		{
			name: "long title",
			mutate: func(m *models.PageMetadata) {
				m.PageTitle = strPtr(strings.Repeat("x", 61))
				m.TitleLength = 61
			},
			warning: "Title is too long (recommended: 50-60 characters)",
		},
		{
			name: "short description",
			mutate: func(m *models.PageMetadata) {
				m.MetaDescription = strPtr("Too brief")
				m.DescriptionLength = 9
			},
			warning: "Meta description is too short (recommended: 150-160 characters)",
		},
		{
			name: "long description",
			mutate: func(m *models.PageMetadata) {
				m.MetaDescription = strPtr(strings.Repeat("x", 161))
				m.DescriptionLength = 161
			},
			warning: "Meta description is too long (recommended: 150-160 characters)",
		},
		{
			name: "multiple h1",
			mutate: func(m *models.PageMetadata) {
				m.H1Tags = []string{"One", "Two", "Three"}
			},
			warning: "Multiple H1 tags found (3). Best practice is one H1 per page.",
		},
		{
			name: "no favicon",
			mutate: func(m *models.PageMetadata) {
				m.HasFavicon = false
			},
			warning: "No favicon detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := wellFormed()
			tt.mutate(&meta)

			result := ValidateMetadata(meta)
			if len(result.Issues) != 0 {
				t.Errorf("Expected no issues, got %v", result.Issues)
			}
			if len(result.Warnings) != 1 || result.Warnings[0] != tt.warning {
				t.Errorf("Expected warnings [%q], got %v", tt.warning, result.Warnings)
			}
		})
	}
}

func TestValidateMetadataThresholds(t *testing.T) {
	// Lengths between the "too short" threshold and the recommended range pass
	meta := wellFormed()
	meta.TitleLength = 30
	meta.DescriptionLength = 120

	result := ValidateMetadata(meta)
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings at thresholds, got %v", result.Warnings)
	}

	meta.TitleLength = 29
	meta.DescriptionLength = 119
	result = ValidateMetadata(meta)
	if len(result.Warnings) != 2 {
		t.Errorf("Expected two warnings below thresholds, got %v", result.Warnings)
	}
}

func TestValidateMetadataOrder(t *testing.T) {
	meta := models.PageMetadata{
		PageTitle:   strPtr("Short"),
		TitleLength: 5,
		H1Tags:      []string{"a", "b"},
	}

	result := ValidateMetadata(meta)

	wantIssues := []string{"Missing meta description"}
	wantWarnings := []string{
		"Title is too short (recommended: 50-60 characters)",
		"Multiple H1 tags found (2). Best practice is one H1 per page.",
		"No favicon detected",
	}
	if !slices.Equal(result.Issues, wantIssues) {
		t.Errorf("Expected issues %v, got %v", wantIssues, result.Issues)
	}
	if !slices.Equal(result.Warnings, wantWarnings) {
		t.Errorf("Expected warnings %v, got %v", wantWarnings, result.Warnings)
	}
}
