package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"osm-news/internal/app"
	"osm-news/internal/config"
)

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	renderSummary(&buf, &app.RunSummary{
		TotalArticles: 3,
		Results: []app.SourceResult{
			{Source: "BBC Sport", Status: "success", ArticlesScraped: 3, Errors: []string{}},
			{Source: "TotalRL", Status: "error", Errors: []string{"Scraping failed: HTTP 503: Service Unavailable"}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "BBC Sport")
	assert.Contains(t, out, "HTTP 503: Service Unavailable")
	assert.Contains(t, out, "TOTAL")
}

func TestRenderSources(t *testing.T) {
	disabled := false
	var buf bytes.Buffer
	renderSources(&buf, []config.SourceConfig{
		{Name: "NRL.com", URL: "https://www.nrl.com/news/", Kind: config.SourceKindHTML, Selectors: config.SelectorsConfig{Article: "article"}},
		{Name: "TotalRL", URL: "https://www.totalrl.com/", Kind: config.SourceKindHTML, Enabled: &disabled},
	})

	out := buf.String()
	assert.Contains(t, out, "NRL.com")
	assert.Contains(t, out, "https://www.totalrl.com/")
	assert.Contains(t, out, "false")
}

func TestRootCommand_ConfigFlagDefault(t *testing.T) {
	root := newRootCommand()
	flag := root.PersistentFlags().Lookup("config")
	if assert.NotNil(t, flag) {
		assert.Equal(t, defaultConfigPath, flag.DefValue)
	}
	assert.Len(t, root.Commands(), 3)
}
