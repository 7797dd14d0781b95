package checksum

import (
	"testing"
)

func TestDedupKey(t *testing.T) {
	gen := NewGenerator()

	url := "https://www.nrl.com/news/2025/storm-win/"
	source := "NRL.com"

	key1 := gen.DedupKey(source, url)
	key2 := gen.DedupKey(source, url)

	if key1 != key2 {
		t.Errorf("Key not deterministic: %s != %s", key1, key2)
	}

	if len(key1) != 64 {
		t.Errorf("Key wrong length: %d, expected 64", len(key1))
	}

	// Same URL from another source is a different article.
	if key1 == gen.DedupKey("TotalRL", url) {
		t.Errorf("Key should change when source changes")
	}

	// The separator keeps ("ab", "c") and ("a", "bc") apart.
	if gen.DedupKey("ab", "c") == gen.DedupKey("a", "bc") {
		t.Errorf("Key should not collide across the source/url boundary")
	}
}
