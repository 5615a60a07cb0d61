package feedback

import (
	"regexp"
	"strings"

	"github.com/flavioespinoza/seo-scraper/models"
)

var numbered = regexp.MustCompile(`^\d+\.`)

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionStrengths
	sectionImprovements
	sectionTechnical
	sectionRecommendations
)

// Parse splits freeform feedback into sections. A header is a non-bullet line ending in ':'
// that names a section; summary lines are joined with spaces and the other sections
// collect bullet contents.
func Parse(text string) models.SeoAnalysis {
	analysis := models.SeoAnalysis{
		Strengths:       []string{},
		Improvements:    []string{},
		TechnicalIssues: []string{},
		Recommendations: []string{},
	}

	current := sectionNone
	var summary []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		bullet := isBullet(trimmed)

		if !bullet && strings.HasSuffix(trimmed, ":") {
			if s := headerSection(strings.ToLower(trimmed)); s != sectionNone {
				current = s
				continue
			}
		}

		switch {
		case current == sectionSummary:
			if !bullet {
				summary = append(summary, trimmed)
			}
		case current != sectionNone && bullet:
			content := stripBullet(trimmed)
			if content == "" {
				continue
			}
			switch current {
			case sectionStrengths:
				analysis.Strengths = append(analysis.Strengths, content)
			case sectionImprovements:
				analysis.Improvements = append(analysis.Improvements, content)
			case sectionTechnical:
				analysis.TechnicalIssues = append(analysis.TechnicalIssues, content)
			case sectionRecommendations:
				analysis.Recommendations = append(analysis.Recommendations, content)
			}
		}
	}

	analysis.Summary = strings.TrimSpace(strings.Join(summary, " "))
	return analysis
}

func headerSection(lower string) section {
	switch {
	case strings.Contains(lower, "summary"), strings.Contains(lower, "overall"):
		return sectionSummary
	case strings.Contains(lower, "strength"):
		return sectionStrengths
	case strings.Contains(lower, "improvement"), strings.Contains(lower, "critical"):
		return sectionImprovements
	case strings.Contains(lower, "technical"):
		return sectionTechnical
	case strings.Contains(lower, "recommendation"):
		return sectionRecommendations
	}
	return sectionNone
}

func isBullet(s string) bool {
	return strings.HasPrefix(s, "-") || strings.HasPrefix(s, "*") || numbered.MatchString(s)
}

func stripBullet(s string) string {
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "*") {
		s = strings.TrimSpace(s[1:])
	}
	if loc := numbered.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	return strings.TrimSpace(s)
}
