package scraper

import (
	"fmt"

	"github.com/flavioespinoza/seo-scraper/models"
)

// Length thresholds used by ValidateMetadata. The "too short" limits sit below the
// recommended ranges quoted in the warning text.
const (
	TitleMinLength       = 30
	TitleMaxLength       = 60
	DescriptionMinLength = 120
	DescriptionMaxLength = 160
)

// ValidateMetadata checks metadata against SEO best practices.
// Checks run in a fixed order so the output is deterministic.
func ValidateMetadata(metadata models.PageMetadata) models.ValidationResult {
	issues := []string{}
	warnings := []string{}

	if metadata.PageTitle == nil {
		issues = append(issues, "Missing page title")
	} else if metadata.TitleLength > 0 && metadata.TitleLength < TitleMinLength {
		warnings = append(warnings, "Title is too short (recommended: 50-60 characters)")
	} else if metadata.TitleLength > TitleMaxLength {
		warnings = append(warnings, "Title is too long (recommended: 50-60 characters)")
	}

	if metadata.MetaDescription == nil {
		issues = append(issues, "Missing meta description")
	} else if metadata.DescriptionLength > 0 && metadata.DescriptionLength < DescriptionMinLength {
		warnings = append(warnings, "Meta description is too short (recommended: 150-160 characters)")
	} else if metadata.DescriptionLength > DescriptionMaxLength {
		warnings = append(warnings, "Meta description is too long (recommended: 150-160 characters)")
	}

	switch n := len(metadata.H1Tags); {
	case n == 0:
		issues = append(issues, "No H1 tags found")
	case n > 1:
		warnings = append(warnings, fmt.Sprintf("Multiple H1 tags found (%d). Best practice is one H1 per page.", n))
	}

	if !metadata.HasFavicon {
		warnings = append(warnings, "No favicon detected")
	}

	return models.ValidationResult{
		Issues:   issues,
		Warnings: warnings,
	}
}
