package collector

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsdigest/internal/core"
)

var removedSelectors = []string{
	"script", "style", "nav", "footer", "header", "aside", "form", "iframe", "noscript",
	".sidebar", "#sidebar", ".ad", ".advertisement", ".popup", ".modal", ".cookie-banner",
}

var contentSelectors = []string{
	"article", "main", ".main-content", ".entry-content", ".post-content",
	".post-body", ".article-body", "[role='main']", ".content", "#content",
}

var publishDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// parseArticle extracts an article's fields from its page body. It never
// looks at the final URL's provider filter outcome; that is the caller's
// job once ProviderID is known.
func parseArticle(url string, body []byte) (*core.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := extractTitle(doc)
	if title == "" {
		return nil, fmt.Errorf("no title found")
	}

	subtitle := extractMeta(doc, "description")
	publishedAt := extractPublishDate(doc)
	cover := extractMeta(doc, "og:image")
	images := extractImages(doc)
	text := extractBodyText(doc)

	return &core.Article{
		URL:                url,
		Title:              title,
		Subtitle:           subtitle,
		Body:               text,
		Timestamp:          publishedAt,
		CoverImageURL:      cover,
		CandidateImageURLs: images,
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("head title").First().Text()); t != "" {
		return t
	}
	if t, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractMeta(doc *goquery.Document, name string) string {
	if v, ok := doc.Find(fmt.Sprintf("meta[property='%s']", name)).Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(fmt.Sprintf("meta[name='%s']", name)).Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func extractPublishDate(doc *goquery.Document) time.Time {
	candidates := []string{}
	if v, ok := doc.Find("meta[property='article:published_time']").Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find("time[datetime]").Attr("datetime"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find("meta[name='publish-date']").Attr("content"); ok {
		candidates = append(candidates, v)
	}

	for _, raw := range candidates {
		for _, layout := range publishDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func extractImages(doc *goquery.Document) []string {
	var urls []string
	seen := make(map[string]bool)
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" || seen[src] {
			return
		}
		seen[src] = true
		urls = append(urls, src)
	})
	return urls
}

// extractBodyText removes non-content chrome, then walks content selectors
// in priority order, joining block-level text with blank lines between
// paragraphs. Falls back to the full body when no selector matches.
func extractBodyText(doc *goquery.Document) string {
	doc.Find(strings.Join(removedSelectors, ", ")).Remove()

	for _, sel := range contentSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		if text := collectBlockText(container); text != "" {
			return text
		}
	}
	return collectBlockText(doc.Find("body"))
}

func collectBlockText(container *goquery.Selection) string {
	var parts []string
	container.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, div").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}
