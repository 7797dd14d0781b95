package classify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osm-news/internal/config"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	tests := []struct {
		name            string
		text            string
		wantTags        []string
		wantLeague      string
		wantClub        string
		wantCompetition string
	}{
		{
			name:       "league club and topic",
			text:       "NRL giants chase Wigan Warriors forward in shock transfer",
			wantTags:   []string{"NRL", "Wigan Warriors", "Transfer News"},
			wantLeague: "NRL",
			wantClub:   "Wigan Warriors",
		},
		{
			name:     "no match",
			text:     "Local bakery wins award for sourdough",
			wantTags: []string{},
		},
		{
			name:       "case insensitive",
			text:       "ST HELENS edge past LEEDS RHINOS in SUPER LEAGUE thriller",
			wantTags:   []string{"Super League", "St Helens", "Leeds Rhinos"},
			wantLeague: "Super League",
			wantClub:   "St Helens",
		},
		{
			name:       "women's super league is preferred",
			text:       "Women’s Super League fixtures announced",
			wantTags:   []string{"Women's Super League", "Super League"},
			wantLeague: "Women's Super League",
		},
		{
			name:            "club roster order decides",
			text:            "Melbourne Storm and Brisbane Broncos set for the grand final after an injury scare",
			wantTags:        []string{"Brisbane Broncos", "Melbourne Storm", "Grand Final", "Injury Updates"},
			wantClub:        "Brisbane Broncos",
			wantCompetition: "Grand Final",
		},
		{
			name:       "repeated keywords tag once",
			text:       "NRL NRL nrl interview interview",
			wantTags:   []string{"NRL", "Player Interviews"},
			wantLeague: "NRL",
		},
		{
			name:       "containment without word boundaries",
			text:       "transferred to the Championships",
			wantTags:   []string{"Championship", "Transfer News"},
			wantLeague: "Championship",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			assert.Equal(t, tt.wantTags, got.Tags)
			assert.Equal(t, tt.wantLeague, got.League)
			assert.Equal(t, tt.wantClub, got.Club)
			assert.Equal(t, tt.wantCompetition, got.Competition)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())
	text := "Hull KR beat Hull FC in the Challenge Cup match report"

	first := c.Classify(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify(text))
	}
	assert.Equal(t, []string{"Hull FC", "Hull KR", "Challenge Cup", "Match Reports"}, first.Tags)
}

func TestClassify_Concurrent(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := c.Classify("Penrith Panthers win State of Origin")
				assert.Equal(t, []string{"Penrith Panthers", "State of Origin"}, got.Tags)
			}
		}()
	}
	wg.Wait()
}

func TestClassify_ConfiguredTaxonomy(t *testing.T) {
	labels := TaxonomyFromConfig(config.ClassifierConfig{
		Labels: []config.LabelConfig{
			{Name: "Ashes", Family: "competition", Keywords: []string{"ashes"}},
			{Name: "England", Family: "club", Keywords: []string{"england", "three lions"}},
		},
	})
	require.Len(t, labels, 2)

	c := NewClassifier(labels)
	got := c.Classify("Three Lions name squad for the Ashes")
	assert.Equal(t, []string{"Ashes", "England"}, got.Tags)
	assert.Equal(t, "England", got.Club)
	assert.Equal(t, "Ashes", got.Competition)
	assert.Empty(t, got.League)
}

func TestTaxonomyFromConfig_DefaultsWhenEmpty(t *testing.T) {
	labels := TaxonomyFromConfig(config.ClassifierConfig{})
	assert.Equal(t, DefaultTaxonomy(), labels)
	assert.Len(t, labels, 27)
}

func TestClassify_EmptyTaxonomy(t *testing.T) {
	got := NewClassifier(nil).Classify("NRL")
	assert.Equal(t, []string{}, got.Tags)
}
