package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"osm-news/internal/normalize"
)

// FeedScraper turns RSS or Atom documents into drafts under the same
// acceptance rule as listing pages.
type FeedScraper struct {
	normalizer *normalize.Normalizer
	maxItems   int
}

func NewFeedScraper(normalizer *normalize.Normalizer, maxItems int) *FeedScraper {
	return &FeedScraper{
		normalizer: normalizer,
		maxItems:   maxItems,
	}
}

func (s *FeedScraper) Extract(body, baseURL string) (*Extraction, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	result := &Extraction{
		Drafts: []Draft{},
		Errors: []string{},
	}

	for i, item := range feed.Items {
		if s.maxItems > 0 && i >= s.maxItems {
			break
		}

		title := s.normalizer.CleanText(stripMarkup(item.Title))
		content := item.Description
		if content == "" {
			content = item.Content
		}
		content = s.normalizer.CleanText(stripMarkup(content))
		href := itemLink(item)

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
			result.reject(i, "missing %s", strings.Join(missing, ", "))
			continue
		}

		link, err := normalize.ResolveURL(baseURL, href)
		if err != nil {
			result.reject(i, "invalid link: %v", err)
			continue
		}

		draft := Draft{Title: title, URL: link, Content: content}
		if item.PublishedParsed != nil {
			draft.PublishedAt = item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			draft.PublishedAt = item.UpdatedParsed
		}
		result.Drafts = append(result.Drafts, draft)
	}

	return result, nil
}

// itemLink prefers the item link and falls back to a GUID that looks like a URL.
func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}

func stripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
