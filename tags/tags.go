// Package tags derives report tags and a business category from page metadata.
package tags

import (
	"regexp"
	"strings"

	"github.com/flavioespinoza/seo-scraper/models"
)

// Tag is a value from the closed report tag vocabulary
type Tag string

// Status tags. Exactly one is appended by GenerateFromMetadata.
const (
	Optimized        Tag = "Optimized"
	NeedsImprovement Tag = "Needs Improvement"
	CriticalIssues   Tag = "Critical Issues"
	NewlyAnalyzed    Tag = "Newly Analyzed"
)

// Technical tags
const (
	MissingMetaDescription Tag = "Missing Meta Description"
	MissingTitleTag        Tag = "Missing Title Tag"
	NoH1Tag                Tag = "No H1 Tag"
	MultipleH1Tags         Tag = "Multiple H1 Tags"
	NoFavicon              Tag = "No Favicon"
	NoImages               Tag = "No Images"
	TitleTooShort          Tag = "Title Too Short"
	TitleTooLong           Tag = "Title Too Long"
	DescriptionTooShort    Tag = "Description Too Short"
	DescriptionTooLong     Tag = "Description Too Long"
)

// CategoryOther is returned when no category pattern matches
const CategoryOther = "Other"

// StatusTags lists the overall health tags
var StatusTags = []Tag{Optimized, NeedsImprovement, CriticalIssues, NewlyAnalyzed}

// TechnicalTags lists the per-field deficiency tags
var TechnicalTags = []Tag{
	MissingMetaDescription,
	MissingTitleTag,
	NoH1Tag,
	MultipleH1Tags,
	NoFavicon,
	NoImages,
	TitleTooShort,
	TitleTooLong,
	DescriptionTooShort,
	DescriptionTooLong,
}

const (
	titleShort = 30
	titleLong  = 60
	descShort  = 120
	descLong   = 160
)

// GenerateFromMetadata maps metadata deficiencies to technical tags and appends one status tag.
// The feedback text is accepted for interface parity and does not influence the result.
func GenerateFromMetadata(metadata models.PageMetadata, feedbackText string) []Tag {
	_ = feedbackText

	tags := []Tag{}

	if metadata.MetaDescription == nil {
		tags = append(tags, MissingMetaDescription)
	}
	if metadata.PageTitle == nil {
		tags = append(tags, MissingTitleTag)
	}

	switch n := len(metadata.H1Tags); {
	case n == 0:
		tags = append(tags, NoH1Tag)
	case n > 1:
		tags = append(tags, MultipleH1Tags)
	}

	if !metadata.HasFavicon {
		tags = append(tags, NoFavicon)
	}
	if metadata.ImageCount == 0 {
		tags = append(tags, NoImages)
	}

	if l := metadata.TitleLength; l > 0 && l < titleShort {
		tags = append(tags, TitleTooShort)
	} else if l > titleLong {
		tags = append(tags, TitleTooLong)
	}

	if l := metadata.DescriptionLength; l > 0 && l < descShort {
		tags = append(tags, DescriptionTooShort)
	} else if l > descLong {
		tags = append(tags, DescriptionTooLong)
	}

	critical := 0
	for _, missing := range []bool{
		metadata.MetaDescription == nil,
		metadata.PageTitle == nil,
		len(metadata.H1Tags) == 0,
	} {
		if missing {
			critical++
		}
	}

	switch {
	case critical >= 2:
		tags = append(tags, CriticalIssues)
	case len(tags) > 0:
		tags = append(tags, NeedsImprovement)
	default:
		tags = append(tags, Optimized)
	}

	return tags
}

// Strings converts tags to plain strings for storage and JSON output
func Strings(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// IsStatus reports whether t is an overall health tag
func IsStatus(t Tag) bool {
	for _, s := range StatusTags {
		if s == t {
			return true
		}
	}
	return false
}

// Known reports whether s belongs to any tag vocabulary, including business categories
func Known(s string) bool {
	for _, t := range StatusTags {
		if string(t) == s {
			return true
		}
	}
	for _, t := range TechnicalTags {
		if string(t) == s {
			return true
		}
	}
	for _, c := range BusinessCategories {
		if c == s {
			return true
		}
	}
	return false
}

// joinText builds the lower-cased text searched by DetectBusinessCategory
func joinText(metadata models.PageMetadata, feedbackText string) string {
	parts := []string{
		metadata.Title(),
		metadata.Description(),
		strings.Join(metadata.H1Tags, " "),
		feedbackText,
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// category pairs a label with the keyword pattern that selects it
type category struct {
	label   string
	pattern *regexp.Regexp
}

// categories is evaluated in order and the first match wins, so earlier entries
// take precedence when keywords overlap.
var categories = []category{
	{"E-commerce", regexp.MustCompile(`shop|store|cart|product|buy|purchase|checkout|price`)},
	{"SaaS", regexp.MustCompile(`saas|software|platform|api|cloud|solution|tool|service`)},
	{"Blog/Content", regexp.MustCompile(`blog|article|news|post|story|read|author`)},
	{"Portfolio", regexp.MustCompile(`portfolio|work|project|case study|designer|developer|freelance`)},
	{"Healthcare", regexp.MustCompile(`health|medical|doctor|hospital|clinic|patient|care|treatment`)},
	{"Education", regexp.MustCompile(`education|school|university|course|learn|student|teacher|training`)},
	{"Non-profit", regexp.MustCompile(`nonprofit|non-profit|charity|donate|foundation|cause`)},
	{"Real Estate", regexp.MustCompile(`real estate|property|home|house|apartment|rent|sale|listing`)},
	{"Finance", regexp.MustCompile(`finance|bank|investment|loan|credit|trading|insurance`)},
	{"Technology", regexp.MustCompile(`technology|tech|innovation|startup|ai|ml|data`)},
	{"Media/Entertainment", regexp.MustCompile(`entertainment|movie|music|video|streaming|media|film`)},
	{"Food & Beverage", regexp.MustCompile(`restaurant|food|menu|cafe|coffee|dining|recipe|delivery`)},
	{"Corporate", regexp.MustCompile(`corporate|enterprise|business|company|about us|team|career`)},
	{"Local Business", regexp.MustCompile(`local|location|hours|address|contact|near me`)},
}

// BusinessCategories lists every label DetectBusinessCategory can return, in match order
var BusinessCategories = func() []string {
	labels := make([]string, 0, len(categories)+1)
	for _, c := range categories {
		labels = append(labels, c.label)
	}
	return append(labels, CategoryOther)
}()

// DetectBusinessCategory guesses a site category from its title, description, headings
// and the model feedback. Patterns are plain substring alternations, so "ai" also
// matches inside words like "maintain". The url argument is currently unused.
func DetectBusinessCategory(metadata models.PageMetadata, feedbackText, url string) string {
	_ = url

	text := joinText(metadata, feedbackText)
	for _, c := range categories {
		if c.pattern.MatchString(text) {
			return c.label
		}
	}
	return CategoryOther
}
