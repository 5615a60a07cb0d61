package scraper

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/flavioespinoza/seo-scraper/models"
	"golang.org/x/net/html"
)

// ExtractMetadata parses an HTML document and extracts its SEO metadata.
// It never fails: missing or malformed elements leave the corresponding field empty.
func ExtractMetadata(pageURL, htmlContent string) models.PageMetadata {
	metadata := models.PageMetadata{
		URL:    pageURL,
		H1Tags: []string{},
	}

	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		slog.Warn("failed to parse HTML, returning empty metadata", "url", pageURL, "error", err)
		return metadata
	}
	doc := goquery.NewDocumentFromNode(root)

	// Only the first title counts
	metadata.PageTitle = optionalText(doc.Find("title").First().Text())

	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		metadata.MetaDescription = optionalText(content)
	}
	if content, ok := doc.Find(`meta[name="keywords"]`).Attr("content"); ok {
		metadata.MetaKeywords = optionalText(content)
	}

	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			metadata.H1Tags = append(metadata.H1Tags, text)
		}
	})

	metadata.ImageCount = doc.Find("img").Length()
	metadata.HasFavicon = hasFavicon(doc)
	metadata.TitleLength = textLength(metadata.PageTitle)
	metadata.DescriptionLength = textLength(metadata.MetaDescription)

	return metadata
}

// hasFavicon reports whether any link element has "icon" in its rel attribute
func hasFavicon(doc *goquery.Document) bool {
	found := false
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if strings.Contains(strings.ToLower(rel), "icon") {
			found = true
			return false
		}
		return true
	})
	return found
}

// optionalText trims s and returns nil when nothing is left
func optionalText(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func textLength(s *string) int {
	if s == nil {
		return 0
	}
	return utf8.RuneCountInString(*s)
}
