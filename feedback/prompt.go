package feedback

import (
	"fmt"
	"strings"

	"github.com/flavioespinoza/seo-scraper/models"
)

// SystemPrompt frames the model as an SEO consultant
const SystemPrompt = "You are an expert SEO consultant providing clear, actionable advice. Focus on practical improvements that will have the most impact."

// BuildPrompt renders the analysis prompt for one page
func BuildPrompt(metadata models.PageMetadata, validation models.ValidationResult) string {
	var b strings.Builder

	b.WriteString("You are an expert SEO consultant. Analyze the following webpage metadata and provide actionable SEO improvement recommendations.\n\n")
	fmt.Fprintf(&b, "Website URL: %s\n\n", metadata.URL)

	b.WriteString("Metadata:\n")
	fmt.Fprintf(&b, "- Page Title: %s\n", orDefault(metadata.Title(), "MISSING"))
	fmt.Fprintf(&b, "- Title Length: %d characters\n", metadata.TitleLength)
	fmt.Fprintf(&b, "- Meta Description: %s\n", orDefault(metadata.Description(), "MISSING"))
	fmt.Fprintf(&b, "- Description Length: %d characters\n", metadata.DescriptionLength)
	fmt.Fprintf(&b, "- Meta Keywords: %s\n", orDefault(metadata.Keywords(), "Not specified"))
	fmt.Fprintf(&b, "- H1 Tags: %s\n", orDefault(strings.Join(metadata.H1Tags, ", "), "NONE FOUND"))
	fmt.Fprintf(&b, "- Number of Images: %d\n", metadata.ImageCount)
	fmt.Fprintf(&b, "- Has Favicon: %s\n\n", yesNo(metadata.HasFavicon))

	b.WriteString("Automated Issues Detected:\n")
	writeBullets(&b, validation.Issues)
	b.WriteString("\nAutomated Warnings:\n")
	writeBullets(&b, validation.Warnings)

	b.WriteString(`
Please provide:
1. A brief overall SEO health summary (2-3 sentences)
2. Key strengths (if any)
3. Critical improvements needed
4. Technical SEO issues
5. Specific, actionable recommendations

Format your response in clear sections with bullet points where appropriate. Be specific and practical.`)

	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- None\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
