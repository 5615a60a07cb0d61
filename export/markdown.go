package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/flavioespinoza/seo-scraper/models"
)

// Markdown renders a report as a Markdown document
func Markdown(report *models.Report) string {
	meta := report.Metadata
	var b strings.Builder

	fmt.Fprintf(&b, "# SEO Report for %s\n\n", report.URL)

	generated := "N/A"
	if !report.CreatedAt.IsZero() {
		generated = report.CreatedAt.UTC().Format(time.RFC1123)
	}
	fmt.Fprintf(&b, "**Generated:** %s\n\n---\n\n", generated)

	b.WriteString("## Page Metadata\n\n")
	fmt.Fprintf(&b, "- **Title:** %s\n", valueOr(meta.PageTitle, "Missing"))
	fmt.Fprintf(&b, "- **Description:** %s\n", valueOr(meta.MetaDescription, "Missing"))
	fmt.Fprintf(&b, "- **Keywords:** %s\n", valueOr(meta.MetaKeywords, "Not specified"))
	fmt.Fprintf(&b, "- **Images:** %d\n", meta.ImageCount)
	fmt.Fprintf(&b, "- **Favicon:** %s\n", presentOrMissing(meta.HasFavicon))
	b.WriteString("- **H1 Tags:**\n")
	if len(meta.H1Tags) == 0 {
		b.WriteString("  - None\n")
	}
	for _, h1 := range meta.H1Tags {
		fmt.Fprintf(&b, "  - %s\n", h1)
	}

	if len(report.Validation.Issues) > 0 || len(report.Validation.Warnings) > 0 {
		b.WriteString("\n## Automated Checks\n\n")
		for _, issue := range report.Validation.Issues {
			fmt.Fprintf(&b, "- **Issue:** %s\n", issue)
		}
		for _, warning := range report.Validation.Warnings {
			fmt.Fprintf(&b, "- **Warning:** %s\n", warning)
		}
	}

	b.WriteString("\n## Tags\n\n")
	if len(report.Tags) == 0 {
		b.WriteString("None\n")
	} else {
		b.WriteString(strings.Join(report.Tags, ", ") + "\n")
	}
	if report.BusinessCategory != "" {
		fmt.Fprintf(&b, "\n**Business Category:** %s\n", report.BusinessCategory)
	}

	b.WriteString("\n---\n\n## AI-Powered SEO Analysis\n\n")
	if strings.TrimSpace(report.AIFeedback) == "" {
		b.WriteString("No AI feedback available.\n")
	} else {
		b.WriteString(strings.TrimSpace(report.AIFeedback) + "\n")
	}

	return b.String()
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func presentOrMissing(v bool) string {
	if v {
		return "Present"
	}
	return "Missing"
}
