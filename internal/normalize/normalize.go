package normalize

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"osm-news/internal/config"
)

type Normalizer struct {
	cfg config.NormalizeConfig
}

func NewNormalizer(cfg config.NormalizeConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// CleanText tidies text pulled out of markup.
func (n *Normalizer) CleanText(text string) string {
	if n.cfg.TrimNBSP {
		text = strings.ReplaceAll(text, "\u00a0", " ")
	}
	if n.cfg.CollapseSpaces {
		text = strings.Join(strings.Fields(text), " ")
	}
	return strings.TrimSpace(text)
}

// Excerpt returns the first maxChars characters of text. Counting is by
// rune so multi-byte characters are never split.
func Excerpt(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	i := 0
	for pos := range text {
		if i == maxChars {
			return text[:pos]
		}
		i++
	}
	return text
}

// ResolveURL resolves href against base and drops the fragment. Only
// http(s) results are accepted.
func ResolveURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty href")
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}

	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("unsupported link scheme %q", resolved.Scheme)
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""

	return resolved.String(), nil
}
