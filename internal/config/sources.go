package config

import (
	"fmt"
	"net/url"

	"github.com/andybalholm/cascadia"
)

const (
	SourceKindHTML = "html"
	SourceKindFeed = "feed"
)

// Default selectors reproduce the generic extraction: any <article>, its
// first heading, first link and first paragraph.
const (
	DefaultArticleSelector = "article"
	DefaultTitleSelector   = "h1, h2, h3, h4, h5, h6"
	DefaultLinkSelector    = "a[href]"
	DefaultContentSelector = "p"
)

// SourceConfig is one news site in the registry.
type SourceConfig struct {
	Name      string          `yaml:"name"`
	URL       string          `yaml:"url"`
	Kind      string          `yaml:"kind"`
	Render    bool            `yaml:"render"`
	Enabled   *bool           `yaml:"enabled"`
	Selectors SelectorsConfig `yaml:"selectors"`
}

type SelectorsConfig struct {
	Article string `yaml:"article"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Content string `yaml:"content"`
}

// IsEnabled reports whether the source takes part in a run. Sources are
// enabled unless the YAML says otherwise.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s *SourceConfig) setDefaults() {
	if s.Kind == "" {
		s.Kind = SourceKindHTML
	}
	if s.Selectors.Article == "" {
		s.Selectors.Article = DefaultArticleSelector
	}
	if s.Selectors.Title == "" {
		s.Selectors.Title = DefaultTitleSelector
	}
	if s.Selectors.Link == "" {
		s.Selectors.Link = DefaultLinkSelector
	}
	if s.Selectors.Content == "" {
		s.Selectors.Content = DefaultContentSelector
	}
}

// EnabledSources returns the enabled sources in registry order.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

func validateSources(sources []SourceConfig) error {
	if len(sources) == 0 {
		return fmt.Errorf("sources: at least one source is required")
	}

	seen := make(map[string]struct{}, len(sources))
	for i, s := range sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("sources[%d].name %q is not unique", i, s.Name)
		}
		seen[s.Name] = struct{}{}

		u, err := url.Parse(s.URL)
		if err != nil || s.URL == "" {
			return fmt.Errorf("sources[%d].url is invalid: %q", i, s.URL)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("sources[%d].url must be an absolute http(s) URL: %q", i, s.URL)
		}

		if s.Kind != SourceKindHTML && s.Kind != SourceKindFeed {
			return fmt.Errorf("sources[%d].kind must be 'html' or 'feed'", i)
		}
		if s.Kind == SourceKindFeed && s.Render {
			return fmt.Errorf("sources[%d]: render is only supported for html sources", i)
		}
		if s.Kind == SourceKindHTML {
			if err := validateSelectors(i, s.Selectors); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateSelectors compiles every selector up front. goquery matches nothing
// for a selector it cannot parse, which would hide the mistake at run time.
func validateSelectors(i int, sel SelectorsConfig) error {
	fields := []struct {
		name  string
		value string
	}{
		{"article", sel.Article},
		{"title", sel.Title},
		{"link", sel.Link},
		{"content", sel.Content},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if _, err := cascadia.Compile(f.value); err != nil {
			return fmt.Errorf("sources[%d].selectors.%s is invalid: %q: %w", i, f.name, f.value, err)
		}
	}
	return nil
}
