package feedback

import (
	"slices"
	"testing"
)

const sampleFeedback = `Overall SEO Health Summary:
The page has a clear title but lacks a description.
Search engines will struggle to build a snippet.

Key Strengths:
- Descriptive title
* Fast loading

Critical Improvements Needed:
1. Add a meta description
2. Use a single H1

Technical SEO Issues:
- Missing favicon

Recommendations:
- Write a 150 character description
-   
Thanks for reading`

func TestParse(t *testing.T) {
	analysis := Parse(sampleFeedback)

	wantSummary := "The page has a clear title but lacks a description. Search engines will struggle to build a snippet."
	if analysis.Summary != wantSummary {
		t.Errorf("Unexpected summary: %q", analysis.Summary)
	}

	checks := []struct {
		name string
		got  []string
		want []string
	}{
		{"strengths", analysis.Strengths, []string{"Descriptive title", "Fast loading"}},
		{"improvements", analysis.Improvements, []string{"Add a meta description", "Use a single H1"}},
		{"technical", analysis.TechnicalIssues, []string{"Missing favicon"}},
		{"recommendations", analysis.Recommendations, []string{"Write a 150 character description"}},
	}
	for _, c := range checks {
		if !slices.Equal(c.got, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestParseNoSections(t *testing.T) {
	analysis := Parse("Just some prose.\n- a stray bullet")

	if analysis.Summary != "" {
		t.Errorf("Expected empty summary, got %q", analysis.Summary)
	}
	if analysis.Strengths == nil || len(analysis.Strengths) != 0 {
		t.Errorf("Expected empty non-nil strengths, got %v", analysis.Strengths)
	}
}

func TestParseBulletHeaderIsContent(t *testing.T) {
	analysis := Parse("Strengths:\n- Recommendations:\n- Good headings")

	want := []string{"Recommendations:", "Good headings"}
	if !slices.Equal(analysis.Strengths, want) {
		t.Errorf("Expected %v, got %v", want, analysis.Strengths)
	}
	if len(analysis.Recommendations) != 0 {
		t.Errorf("Expected no recommendations, got %v", analysis.Recommendations)
	}
}
