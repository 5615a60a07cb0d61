package analyzer

import (
	"strings"

	"github.com/flavioespinoza/seo-scraper/models"
	"github.com/pemistahl/lingua-go"
)

// DefaultLanguages limits detection to common web languages to keep model memory small
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Japanese,
	lingua.Chinese,
}

// minDetectRunes is the shortest text worth classifying
const minDetectRunes = 10

// LanguageDetector guesses a page language from its visible metadata.
// A nil *LanguageDetector detects nothing. It is safe for concurrent use.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector builds a detector for the given languages, or DefaultLanguages when empty
func NewLanguageDetector(languages ...lingua.Language) *LanguageDetector {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithMinimumRelativeDistance(0.1).
		Build()
	return &LanguageDetector{detector: detector}
}

// Detect returns the lowercase ISO 639-1 code of the page language, or "" when unreliable
func (d *LanguageDetector) Detect(metadata models.PageMetadata) string {
	if d == nil {
		return ""
	}

	parts := []string{metadata.Title(), metadata.Description()}
	parts = append(parts, metadata.H1Tags...)
	text := strings.TrimSpace(strings.Join(parts, " "))
	if len([]rune(text)) < minDetectRunes {
		return ""
	}

	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
