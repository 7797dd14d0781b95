package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"osm-news/internal/config"
	"osm-news/internal/normalize"
)

type Scraper struct {
	normalizer   *normalize.Normalizer
	maxFragments int
}

func NewScraper(normalizer *normalize.Normalizer, maxFragments int) *Scraper {
	return &Scraper{
		normalizer:   normalizer,
		maxFragments: maxFragments,
	}
}

// Extract finds article fragments in a listing page and turns each one into
// a draft. Only the first maxFragments fragments are considered; nested
// matches of the article selector are ignored in favour of the outermost.
func (s *Scraper) Extract(html, baseURL string, sel config.SelectorsConfig) (*Extraction, error) {
	for _, selector := range []string{sel.Article, sel.Title, sel.Link, sel.Content} {
		if selector == "" {
			continue
		}
		if _, err := cascadia.Compile(selector); err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fragments := doc.Find(sel.Article).FilterFunction(func(_ int, f *goquery.Selection) bool {
		return f.ParentsFiltered(sel.Article).Length() == 0
	})

	result := &Extraction{
		Drafts: []Draft{},
		Errors: []string{},
	}

	fragments.EachWithBreak(func(i int, f *goquery.Selection) bool {
		if s.maxFragments > 0 && i >= s.maxFragments {
			return false
		}
		s.extractFragment(result, i, f, baseURL, sel)
		return true
	})

	return result, nil
}

func (s *Scraper) extractFragment(result *Extraction, index int, f *goquery.Selection, baseURL string, sel config.SelectorsConfig) {
	defer func() {
		if r := recover(); r != nil {
			result.reject(index, "extraction panicked: %v", r)
		}
	}()

	title := s.normalizer.CleanText(f.Find(sel.Title).First().Text())
	href := findHref(f, sel.Link)
	content := s.normalizer.CleanText(f.Find(sel.Content).First().Text())

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if href == "" {
		missing = append(missing, "link")
	}
	if content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		result.reject(index, "missing %s", strings.Join(missing, ", "))
		return
	}

	link, err := normalize.ResolveURL(baseURL, href)
	if err != nil {
		result.reject(index, "invalid link: %v", err)
		return
	}

	result.Drafts = append(result.Drafts, Draft{
		Title:   title,
		URL:     link,
		Content: content,
	})
}

// findHref returns the href of the first link match. A match without an
// href (a wrapper element) yields its first descendant anchor instead, and a
// fragment that is itself an anchor yields its own href.
func findHref(f *goquery.Selection, selector string) string {
	match := f.Find(selector).First()
	if href, ok := match.Attr("href"); ok && strings.TrimSpace(href) != "" {
		return strings.TrimSpace(href)
	}
	if href, ok := match.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		return strings.TrimSpace(href)
	}
	if f.Is("a[href]") {
		href, _ := f.Attr("href")
		return strings.TrimSpace(href)
	}
	return ""
}
