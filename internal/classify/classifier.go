// Package classify tags article text against a keyword taxonomy.
package classify

import (
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Classification is the outcome for one text. Empty League, Club or
// Competition means no label of that family matched.
type Classification struct {
	Tags        []string
	League      string
	Club        string
	Competition string
}

// Classifier matches every keyword of the taxonomy in a single pass. The
// matcher keeps per-call state, so Match calls are serialized.
type Classifier struct {
	mu        sync.Mutex
	matcher   *ahocorasick.Matcher
	labels    []Label
	kwToLabel [][]int // keyword index -> label indexes
}

func NewClassifier(labels []Label) *Classifier {
	c := &Classifier{labels: labels}

	index := make(map[string]int)
	var keywords []string
	for li, label := range labels {
		for _, kw := range label.Keywords {
			normalized := normalizeText(kw)
			if normalized == "" {
				continue
			}
			ki, ok := index[normalized]
			if !ok {
				ki = len(keywords)
				index[normalized] = ki
				keywords = append(keywords, normalized)
				c.kwToLabel = append(c.kwToLabel, nil)
			}
			c.kwToLabel[ki] = append(c.kwToLabel[ki], li)
		}
	}

	if len(keywords) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(keywords)
	}
	return c
}

// Classify reports every label with a keyword contained in text, in
// taxonomy order, plus the first league, club and competition among them.
func (c *Classifier) Classify(text string) Classification {
	result := Classification{Tags: []string{}}
	if c.matcher == nil {
		return result
	}

	c.mu.Lock()
	hits := c.matcher.Match([]byte(normalizeText(text)))
	c.mu.Unlock()

	seen := make(map[int]struct{})
	var matched []int
	for _, ki := range hits {
		for _, li := range c.kwToLabel[ki] {
			if _, ok := seen[li]; ok {
				continue
			}
			seen[li] = struct{}{}
			matched = append(matched, li)
		}
	}
	sort.Ints(matched)

	for _, li := range matched {
		label := c.labels[li]
		result.Tags = append(result.Tags, label.Name)
		switch label.Family {
		case FamilyLeague:
			if result.League == "" {
				result.League = label.Name
			}
		case FamilyClub:
			if result.Club == "" {
				result.Club = label.Name
			}
		case FamilyCompetition:
			if result.Competition == "" {
				result.Competition = label.Name
			}
		}
	}

	return result
}

// normalizeText lower-cases and folds typographic apostrophes so
// "Women’s Super League" matches the plain keyword.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\u2019", "'")
	return strings.ToLower(strings.TrimSpace(s))
}
