package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"osm-news/internal/observability"
	"osm-news/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS news_articles (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	excerpt TEXT NOT NULL,
	url TEXT NOT NULL,
	source TEXT NOT NULL,
	dedup_key CHAR(64) NOT NULL UNIQUE,
	sport TEXT NOT NULL,
	league TEXT,
	club TEXT,
	competition TEXT,
	tags TEXT[] NOT NULL DEFAULT '{}',
	published_at TIMESTAMPTZ NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_news_articles_published_at ON news_articles (published_at DESC);
CREATE INDEX IF NOT EXISTS idx_news_articles_tags ON news_articles USING GIN (tags);

CREATE TABLE IF NOT EXISTS scraping_logs (
	id UUID PRIMARY KEY,
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	articles_scraped INTEGER NOT NULL,
	errors TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Repository struct {
	db             *sqlx.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, maxOpenConns int, logger *observability.Logger) (*Repository, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewRepositoryWithDB(db, commandTimeout, logger), nil
}

// NewRepositoryWithDB wraps an open connection pool.
func NewRepositoryWithDB(db *sqlx.DB, commandTimeout time.Duration, logger *observability.Logger) *Repository {
	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	r.logger.Debug("Schema ensured", "driver", "postgres")
	return nil
}

func (r *Repository) InsertArticle(ctx context.Context, a *storage.Article) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO news_articles
			(id, title, content, excerpt, url, source, dedup_key, sport,
			 league, club, competition, tags, published_at, scraped_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (dedup_key) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Content, a.Excerpt, a.URL, a.Source, a.DedupKey, a.Sport,
		a.League, a.Club, a.Competition, textArray(a.Tags),
		a.PublishedAt, a.ScrapedAt, a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *Repository) AppendScrapeLog(ctx context.Context, e *storage.ScrapeLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scraping_logs (id, source, status, articles_scraped, errors, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Source, e.Status, e.ArticlesScraped, textArray(e.Errors), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scrape log: %w", err)
	}
	return nil
}

func (r *Repository) ListArticles(ctx context.Context, f storage.ArticleFilter) ([]storage.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	eq := func(column, value string) {
		if value != "" {
			where = append(where, column+" = "+next(value))
		}
	}
	eq("sport", f.Sport)
	eq("league", f.League)
	eq("club", f.Club)
	eq("competition", f.Competition)
	eq("source", f.Source)
	if f.Tag != "" {
		where = append(where, "tags @> ARRAY["+next(f.Tag)+"]::text[]")
	}
	if f.Search != "" {
		p := next(storage.LikePattern(f.Search))
		where = append(where, fmt.Sprintf("(title ILIKE %[1]s OR content ILIKE %[1]s OR excerpt ILIKE %[1]s)", p))
	}

	query := `SELECT id, title, content, excerpt, url, source, dedup_key, sport,
		league, club, competition, tags, published_at, scraped_at, created_at
		FROM news_articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published_at DESC, created_at DESC"
	query += " LIMIT " + next(f.Limit) + " OFFSET " + next(f.Offset)

	var rows []dbArticle
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}

	return lo.Map(rows, func(row dbArticle, _ int) storage.Article {
		return row.toArticle()
	}), nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	if err := r.db.Close(); err != nil {
		r.logger.Error("Failed to close database", "error", err.Error())
		return err
	}
	return nil
}

// textArray keeps NOT NULL array columns satisfied for nil lists.
func textArray(l storage.StringList) pq.StringArray {
	if l == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(l)
}

type dbArticle struct {
	ID          uuid.UUID      `db:"id"`
	Title       string         `db:"title"`
	Content     string         `db:"content"`
	Excerpt     string         `db:"excerpt"`
	URL         string         `db:"url"`
	Source      string         `db:"source"`
	DedupKey    string         `db:"dedup_key"`
	Sport       string         `db:"sport"`
	League      *string        `db:"league"`
	Club        *string        `db:"club"`
	Competition *string        `db:"competition"`
	Tags        pq.StringArray `db:"tags"`
	PublishedAt time.Time      `db:"published_at"`
	ScrapedAt   time.Time      `db:"scraped_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (a dbArticle) toArticle() storage.Article {
	tags := storage.StringList(a.Tags)
	if tags == nil {
		tags = storage.StringList{}
	}
	return storage.Article{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Excerpt:     a.Excerpt,
		URL:         a.URL,
		Source:      a.Source,
		DedupKey:    a.DedupKey,
		Sport:       a.Sport,
		League:      a.League,
		Club:        a.Club,
		Competition: a.Competition,
		Tags:        tags,
		PublishedAt: a.PublishedAt,
		ScrapedAt:   a.ScrapedAt,
		CreatedAt:   a.CreatedAt,
	}
}
