package scraper

import (
	"fmt"
	"time"
)

// Draft is an article candidate pulled from a listing page. It has no
// identity until it is written.
type Draft struct {
	Title       string
	URL         string
	Content     string
	PublishedAt *time.Time
}

// Extraction is the result of one listing page. Errors holds one entry per
// rejected fragment; they never abort the source.
type Extraction struct {
	Drafts []Draft
	Errors []string
}

func (e *Extraction) reject(index int, format string, args ...interface{}) {
	e.Errors = append(e.Errors, fmt.Sprintf("fragment %d: ", index)+fmt.Sprintf(format, args...))
}
