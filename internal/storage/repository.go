//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks osm-news/internal/storage Repository

package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownDriver is returned when storage.driver names no known backend.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Article is a stored news article. League, Club and Competition are nil
// when the classifier found nothing for that family.
type Article struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	DedupKey    string     `json:"-"`
	Sport       string     `json:"sport"`
	League      *string    `json:"league"`
	Club        *string    `json:"club"`
	Competition *string    `json:"competition"`
	Tags        StringList `json:"tags"`
	PublishedAt time.Time  `json:"published_at"`
	ScrapedAt   time.Time  `json:"scraped_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ScrapeLogEntry records the outcome of one source in one run.
type ScrapeLogEntry struct {
	ID              uuid.UUID
	Source          string
	Status          string
	ArticlesScraped int
	Errors          StringList
	CreatedAt       time.Time
}

// ArticleFilter narrows ListArticles. Empty fields do not filter.
type ArticleFilter struct {
	Sport       string
	League      string
	Club        string
	Competition string
	Source      string
	Tag         string
	Search      string
	Limit       int
	Offset      int
}

// ArticleWriter stores articles. InsertArticle reports inserted=false with a
// nil error when an article with the same dedup key already exists.
type ArticleWriter interface {
	InsertArticle(ctx context.Context, article *Article) (inserted bool, err error)
}

// RunLogger appends per-source run history.
type RunLogger interface {
	AppendScrapeLog(ctx context.Context, entry *ScrapeLogEntry) error
}

// ArticleReader serves the read endpoint, newest first.
type ArticleReader interface {
	ListArticles(ctx context.Context, filter ArticleFilter) ([]Article, error)
}

type Repository interface {
	ArticleWriter
	RunLogger
	ArticleReader

	// EnsureSchema creates the tables and indexes if they do not exist.
	EnsureSchema(ctx context.Context) error

	Close() error
}

// LikePattern turns a search term into a substring pattern for
// LIKE ... ESCAPE '\'.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}
