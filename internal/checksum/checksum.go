package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// DedupKey identifies an article by the pair (source, url). The fixed-width
// hex digest is what the stores put the UNIQUE index on, since raw URLs can
// exceed index key limits.
func (g *Generator) DedupKey(source, url string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
