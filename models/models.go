package models

import "time"

// PageMetadata contains the on-page SEO metadata extracted from a single HTML document.
// Optional text fields are nil when the element is missing or empty after trimming.
type PageMetadata struct {
	URL               string   `json:"url" yaml:"url"`
	PageTitle         *string  `json:"page_title" yaml:"page_title"`
	MetaDescription   *string  `json:"meta_description" yaml:"meta_description"`
	MetaKeywords      *string  `json:"meta_keywords" yaml:"meta_keywords"`
	H1Tags            []string `json:"h1_tags" yaml:"h1_tags"`
	ImageCount        int      `json:"image_count" yaml:"image_count"`
	HasFavicon        bool     `json:"has_favicon" yaml:"has_favicon"`
	TitleLength       int      `json:"title_length" yaml:"title_length"`
	DescriptionLength int      `json:"description_length" yaml:"description_length"`
}

// Title returns the page title or an empty string when absent
func (m PageMetadata) Title() string {
	return deref(m.PageTitle)
}

// Description returns the meta description or an empty string when absent
func (m PageMetadata) Description() string {
	return deref(m.MetaDescription)
}

// Keywords returns the meta keywords or an empty string when absent
func (m PageMetadata) Keywords() string {
	return deref(m.MetaKeywords)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ValidationResult holds the outcome of checking metadata against SEO rules.
// Issues are hard failures, warnings are suggested improvements.
type ValidationResult struct {
	Issues   []string `json:"issues" yaml:"issues"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// SeoAnalysis is the sectioned form of language model feedback
type SeoAnalysis struct {
	Summary         string   `json:"summary" yaml:"summary"`
	Strengths       []string `json:"strengths" yaml:"strengths"`
	Improvements    []string `json:"improvements" yaml:"improvements"`
	TechnicalIssues []string `json:"technical_issues" yaml:"technical_issues"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
}

// Report is a persisted SEO analysis of one URL
type Report struct {
	ID               string           `json:"id" yaml:"id"`
	URL              string           `json:"url" yaml:"url"`
	PageTitle        string           `json:"page_title" yaml:"page_title"` // "(No title)" when the page has none
	Metadata         PageMetadata     `json:"metadata" yaml:"metadata"`
	Validation       ValidationResult `json:"validation" yaml:"validation"`
	AIFeedback       string           `json:"ai_feedback" yaml:"ai_feedback"`
	Analysis         *SeoAnalysis     `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Tags             []string         `json:"tags" yaml:"tags"`
	BusinessCategory string           `json:"business_category" yaml:"business_category"`
	Language         string           `json:"language,omitempty" yaml:"language,omitempty"` // Detected page language, empty if unknown
	HasIssues        bool             `json:"has_issues" yaml:"has_issues"`
	SnapshotKey      string           `json:"snapshot_key,omitempty" yaml:"snapshot_key,omitempty"` // Storage key of the fetched HTML
	ProcessingTime   float64          `json:"processing_time_seconds" yaml:"processing_time_seconds"`
	CreatedAt        time.Time        `json:"created_at" yaml:"created_at"`
	LastModified     time.Time        `json:"last_modified" yaml:"last_modified"`
}

// Summary returns the history list row for the report
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:               r.ID,
		URL:              r.URL,
		PageTitle:        r.PageTitle,
		MetaDescription:  r.Metadata.MetaDescription,
		CreatedAt:        r.CreatedAt,
		LastModified:     r.LastModified,
		HasIssues:        r.HasIssues,
		Tags:             r.Tags,
		BusinessCategory: r.BusinessCategory,
	}
}

// ReportSummary is the condensed form of a report used in history listings
type ReportSummary struct {
	ID               string    `json:"id" yaml:"id"`
	URL              string    `json:"url" yaml:"url"`
	PageTitle        string    `json:"page_title" yaml:"page_title"`
	MetaDescription  *string   `json:"meta_description" yaml:"meta_description"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	LastModified     time.Time `json:"last_modified" yaml:"last_modified"`
	HasIssues        bool      `json:"has_issues" yaml:"has_issues"`
	Tags             []string  `json:"tags" yaml:"tags"`
	BusinessCategory string    `json:"business_category" yaml:"business_category"`
}

// OllamaRequest represents a request to the Ollama generate API
type OllamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *OllamaOptions `json:"options,omitempty"`
}

// OllamaOptions carries sampling parameters for a generate call
type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"` // Maximum tokens to generate
}

// OllamaResponse represents a response from the Ollama generate API
type OllamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}
