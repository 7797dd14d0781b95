package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osm-news/internal/config"
	"osm-news/internal/normalize"
)

func defaultSelectors() config.SelectorsConfig {
	return config.SelectorsConfig{
		Article: config.DefaultArticleSelector,
		Title:   config.DefaultTitleSelector,
		Link:    config.DefaultLinkSelector,
		Content: config.DefaultContentSelector,
	}
}

func newTestScraper() *Scraper {
	n := normalize.NewNormalizer(config.NormalizeConfig{TrimNBSP: true, CollapseSpaces: true})
	return NewScraper(n, 10)
}

func articleHTML(i int) string {
	return fmt.Sprintf(`<article><h2>Story %d</h2><a href="/news/story-%d">read</a><p>Body of story %d</p></article>`, i, i, i)
}

func TestExtract_GenericListing(t *testing.T) {
	html := `<html><body>
		<article>
			<h3>Wigan  Warriors sign
			 prop</h3>
			<a href="/news/wigan-sign-prop#top">Read more</a>
			<p>Wigan Warriors have completed a transfer.</p>
			<p>Second paragraph.</p>
		</article>
		<article><h2>No link here</h2><p>Some content</p></article>
		<article><h2>Melbourne Storm win</h2><a href="https://www.nrl.com/news/storm">x</a><p>Storm beat the Roosters.</p></article>
	</body></html>`

	result, err := newTestScraper().Extract(html, "https://www.nrl.com/news/", defaultSelectors())
	require.NoError(t, err)

	require.Len(t, result.Drafts, 2)
	assert.Equal(t, "Wigan Warriors sign prop", result.Drafts[0].Title)
	assert.Equal(t, "https://www.nrl.com/news/wigan-sign-prop", result.Drafts[0].URL)
	assert.Equal(t, "Wigan Warriors have completed a transfer.", result.Drafts[0].Content)
	assert.Nil(t, result.Drafts[0].PublishedAt)

	assert.Equal(t, "Melbourne Storm win", result.Drafts[1].Title)
	assert.Equal(t, "https://www.nrl.com/news/storm", result.Drafts[1].URL)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "fragment 1: missing link", result.Errors[0])
}

func TestExtract_CapsFragmentsBeforeValidation(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	// The first fragment is malformed and still counts towards the cap.
	b.WriteString("<article><h2>Broken</h2></article>")
	for i := 1; i <= 14; i++ {
		b.WriteString(articleHTML(i))
	}
	b.WriteString("</body></html>")

	result, err := newTestScraper().Extract(b.String(), "https://example.com/", defaultSelectors())
	require.NoError(t, err)

	assert.Len(t, result.Drafts, 9)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, "Story 1", result.Drafts[0].Title)
	assert.Equal(t, "Story 9", result.Drafts[8].Title)
}

func TestExtract_FewerThanCap(t *testing.T) {
	html := "<html><body>" + articleHTML(1) + articleHTML(2) + articleHTML(3) + "</body></html>"

	result, err := newTestScraper().Extract(html, "https://example.com/", defaultSelectors())
	require.NoError(t, err)

	assert.Len(t, result.Drafts, 3)
	assert.Empty(t, result.Errors)
}

func TestExtract_NestedFragmentsUseOutermost(t *testing.T) {
	html := `<article><h2>Outer</h2><a href="/outer">o</a><p>Outer body</p>
		<article><h2>Inner</h2><a href="/inner">i</a><p>Inner body</p></article>
	</article>`

	result, err := newTestScraper().Extract(html, "https://example.com/", defaultSelectors())
	require.NoError(t, err)

	require.Len(t, result.Drafts, 1)
	assert.Equal(t, "Outer", result.Drafts[0].Title)
}

func TestExtract_CustomSelectors(t *testing.T) {
	html := `<div class="gs-c-promo">
		<h3 class="gs-c-promo-heading__title">Leeds Rhinos injury update</h3>
		<div class="gs-c-promo-heading"><a href="/sport/rugby-league/123">link</a></div>
		<p class="gs-c-promo-summary">Leeds lose their captain.</p>
	</div>
	<div class="other"><h3>Ignored</h3></div>`

	sel := config.SelectorsConfig{
		Article: ".gs-c-promo",
		Title:   ".gs-c-promo-heading__title",
		Link:    ".gs-c-promo-heading",
		Content: ".gs-c-promo-summary",
	}

	result, err := newTestScraper().Extract(html, "https://www.bbc.com/sport/rugby-league", sel)
	require.NoError(t, err)

	require.Len(t, result.Drafts, 1)
	assert.Equal(t, "Leeds Rhinos injury update", result.Drafts[0].Title)
	assert.Equal(t, "https://www.bbc.com/sport/rugby-league/123", result.Drafts[0].URL)
	assert.Equal(t, "Leeds lose their captain.", result.Drafts[0].Content)
}

func TestExtract_InvalidLink(t *testing.T) {
	html := `<article><h2>Title</h2><a href="javascript:void(0)">x</a><p>Body</p></article>`

	result, err := newTestScraper().Extract(html, "https://example.com/", defaultSelectors())
	require.NoError(t, err)

	assert.Empty(t, result.Drafts)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "fragment 0: invalid link")
}

func TestExtract_MalformedMarkup(t *testing.T) {
	html := `<article><h2>Unclosed <b>title</h2><a href="/a">x<p>Body text`

	result, err := newTestScraper().Extract(html, "https://example.com/", defaultSelectors())
	require.NoError(t, err)
	assert.Len(t, result.Drafts, 1)
}

func TestExtract_NoFragments(t *testing.T) {
	result, err := newTestScraper().Extract("<html><body><p>nothing</p></body></html>", "https://example.com/", defaultSelectors())
	require.NoError(t, err)

	assert.NotNil(t, result.Drafts)
	assert.Empty(t, result.Drafts)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
}

func TestExtract_InvalidSelector(t *testing.T) {
	sel := defaultSelectors()
	sel.Article = ".post["

	result, err := newTestScraper().Extract(articleHTML(1), "https://www.totalrl.com/news/", sel)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), `invalid selector ".post["`)
}
