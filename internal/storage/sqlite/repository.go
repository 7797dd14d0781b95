package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"

	"osm-news/internal/observability"
	"osm-news/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS news_articles (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	excerpt TEXT NOT NULL,
	url TEXT NOT NULL,
	source TEXT NOT NULL,
	dedup_key TEXT NOT NULL UNIQUE,
	sport TEXT NOT NULL,
	league TEXT,
	club TEXT,
	competition TEXT,
	tags TEXT NOT NULL DEFAULT '[]',
	published_at TIMESTAMP NOT NULL,
	scraped_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_news_articles_published_at ON news_articles (published_at DESC);

CREATE TABLE IF NOT EXISTS scraping_logs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	articles_scraped INTEGER NOT NULL,
	errors TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL
);
`

type Repository struct {
	db             *sqlx.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	if dir := filepath.Dir(dsn); dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	r.logger.Debug("Schema ensured", "driver", "sqlite")
	return nil
}

func (r *Repository) InsertArticle(ctx context.Context, a *storage.Article) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO news_articles
			(id, title, content, excerpt, url, source, dedup_key, sport,
			 league, club, competition, tags, published_at, scraped_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (dedup_key) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		a.ID.String(), a.Title, a.Content, a.Excerpt, a.URL, a.Source, a.DedupKey, a.Sport,
		a.League, a.Club, a.Competition, a.Tags,
		a.PublishedAt.UTC(), a.ScrapedAt.UTC(), a.CreatedAt.UTC(),
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
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Source, e.Status, e.ArticlesScraped, e.Errors, e.CreatedAt.UTC(),
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
	eq := func(column, value string) {
		if value != "" {
			where = append(where, column+" = ?")
			args = append(args, value)
		}
	}
	eq("sport", f.Sport)
	eq("league", f.League)
	eq("club", f.Club)
	eq("competition", f.Competition)
	eq("source", f.Source)
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(news_articles.tags) WHERE json_each.value = ?)")
		args = append(args, f.Tag)
	}
	if f.Search != "" {
		p := storage.LikePattern(f.Search)
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\' OR LOWER(excerpt) LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p)
	}

	query := `SELECT id, title, content, excerpt, url, source, dedup_key, sport,
		league, club, competition, tags, published_at, scraped_at, created_at
		FROM news_articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published_at DESC, created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

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

type dbArticle struct {
	ID          string             `db:"id"`
	Title       string             `db:"title"`
	Content     string             `db:"content"`
	Excerpt     string             `db:"excerpt"`
	URL         string             `db:"url"`
	Source      string             `db:"source"`
	DedupKey    string             `db:"dedup_key"`
	Sport       string             `db:"sport"`
	League      *string            `db:"league"`
	Club        *string            `db:"club"`
	Competition *string            `db:"competition"`
	Tags        storage.StringList `db:"tags"`
	PublishedAt time.Time          `db:"published_at"`
	ScrapedAt   time.Time          `db:"scraped_at"`
	CreatedAt   time.Time          `db:"created_at"`
}

func (a dbArticle) toArticle() storage.Article {
	id, _ := uuid.Parse(a.ID)
	return storage.Article{
		ID:          id,
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
		Tags:        a.Tags,
		PublishedAt: a.PublishedAt,
		ScrapedAt:   a.ScrapedAt,
		CreatedAt:   a.CreatedAt,
	}
}
