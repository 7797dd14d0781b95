package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	mssqldb "github.com/microsoft/go-mssqldb"

	"osm-news/internal/observability"
	"osm-news/internal/storage"
)

// Unique constraint and unique index violations.
const (
	errUniqueConstraint = 2627
	errUniqueIndex      = 2601
)

const schema = `
IF OBJECT_ID(N'dbo.news_articles', N'U') IS NULL
BEGIN
	CREATE TABLE dbo.news_articles (
		[id] UNIQUEIDENTIFIER NOT NULL PRIMARY KEY,
		[title] NVARCHAR(MAX) NOT NULL,
		[content] NVARCHAR(MAX) NOT NULL,
		[excerpt] NVARCHAR(400) NOT NULL,
		[url] NVARCHAR(2048) NOT NULL,
		[source] NVARCHAR(200) NOT NULL,
		[dedup_key] CHAR(64) NOT NULL CONSTRAINT UQ_news_articles_dedup_key UNIQUE,
		[sport] NVARCHAR(64) NOT NULL,
		[league] NVARCHAR(200) NULL,
		[club] NVARCHAR(200) NULL,
		[competition] NVARCHAR(200) NULL,
		[tags] NVARCHAR(MAX) NOT NULL DEFAULT N'[]',
		[published_at] DATETIMEOFFSET NOT NULL,
		[scraped_at] DATETIMEOFFSET NOT NULL,
		[created_at] DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET()
	);
	CREATE INDEX IX_news_articles_published_at ON dbo.news_articles ([published_at] DESC);
END;

IF OBJECT_ID(N'dbo.scraping_logs', N'U') IS NULL
BEGIN
	CREATE TABLE dbo.scraping_logs (
		[id] UNIQUEIDENTIFIER NOT NULL PRIMARY KEY,
		[source] NVARCHAR(200) NOT NULL,
		[status] NVARCHAR(16) NOT NULL,
		[articles_scraped] INT NOT NULL,
		[errors] NVARCHAR(MAX) NOT NULL DEFAULT N'[]',
		[created_at] DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET()
	);
END;
`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, maxOpenConns int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
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
func NewRepositoryWithDB(db *sql.DB, commandTimeout time.Duration, logger *observability.Logger) *Repository {
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
	return nil
}

// InsertArticle adds the article unless its dedup key is already stored.
// A unique violation from a concurrent writer also counts as already stored.
func (r *Repository) InsertArticle(ctx context.Context, a *storage.Article) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		MERGE INTO dbo.news_articles WITH (HOLDLOCK) AS target
		USING (SELECT @DedupKey AS dedup_key) AS source
		ON target.[dedup_key] = source.dedup_key
		WHEN NOT MATCHED THEN
			INSERT ([id], [title], [content], [excerpt], [url], [source], [dedup_key], [sport],
				[league], [club], [competition], [tags], [published_at], [scraped_at], [created_at])
			VALUES (@ID, @Title, @Content, @Excerpt, @URL, @Source, @DedupKey, @Sport,
				@League, @Club, @Competition, @Tags, @PublishedAt, @ScrapedAt, @CreatedAt);
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	result, err := stmt.ExecContext(ctx,
		sql.Named("ID", a.ID.String()),
		sql.Named("Title", a.Title),
		sql.Named("Content", a.Content),
		sql.Named("Excerpt", a.Excerpt),
		sql.Named("URL", a.URL),
		sql.Named("Source", a.Source),
		sql.Named("DedupKey", a.DedupKey),
		sql.Named("Sport", a.Sport),
		sql.Named("League", a.League),
		sql.Named("Club", a.Club),
		sql.Named("Competition", a.Competition),
		sql.Named("Tags", a.Tags),
		sql.Named("PublishedAt", a.PublishedAt),
		sql.Named("ScrapedAt", a.ScrapedAt),
		sql.Named("CreatedAt", a.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
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

	query := `
		INSERT INTO dbo.scraping_logs ([id], [source], [status], [articles_scraped], [errors], [created_at])
		VALUES (@ID, @Source, @Status, @ArticlesScraped, @Errors, @CreatedAt)
	`

	_, err := r.db.ExecContext(ctx, query,
		sql.Named("ID", e.ID.String()),
		sql.Named("Source", e.Source),
		sql.Named("Status", e.Status),
		sql.Named("ArticlesScraped", e.ArticlesScraped),
		sql.Named("Errors", e.Errors),
		sql.Named("CreatedAt", e.CreatedAt),
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
	eq := func(column, name, value string) {
		if value != "" {
			where = append(where, fmt.Sprintf("[%s] = @%s", column, name))
			args = append(args, sql.Named(name, value))
		}
	}
	eq("sport", "Sport", f.Sport)
	eq("league", "League", f.League)
	eq("club", "Club", f.Club)
	eq("competition", "Competition", f.Competition)
	eq("source", "Source", f.Source)
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM OPENJSON([tags]) WHERE [value] = @Tag)")
		args = append(args, sql.Named("Tag", f.Tag))
	}
	if f.Search != "" {
		pattern := strings.ReplaceAll(storage.LikePattern(f.Search), "[", `\[`)
		where = append(where, `(LOWER([title]) LIKE @Search ESCAPE '\' OR LOWER([content]) LIKE @Search ESCAPE '\' OR LOWER([excerpt]) LIKE @Search ESCAPE '\')`)
		args = append(args, sql.Named("Search", pattern))
	}

	query := `SELECT CONVERT(NVARCHAR(36), [id]), [title], [content], [excerpt], [url], [source], [dedup_key], [sport],
		[league], [club], [competition], [tags], [published_at], [scraped_at], [created_at]
		FROM dbo.news_articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY [published_at] DESC, [created_at] DESC OFFSET @Offset ROWS FETCH NEXT @Limit ROWS ONLY"
	args = append(args, sql.Named("Offset", f.Offset), sql.Named("Limit", f.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer rows.Close()

	articles := []storage.Article{}
	for rows.Next() {
		var (
			a  storage.Article
			id string
		)
		if err := rows.Scan(&id, &a.Title, &a.Content, &a.Excerpt, &a.URL, &a.Source, &a.DedupKey, &a.Sport,
			&a.League, &a.Club, &a.Competition, &a.Tags, &a.PublishedAt, &a.ScrapedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid article id %q: %w", id, err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return articles, nil
}

func isUniqueViolation(err error) bool {
	var sqlErr mssqldb.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Number == errUniqueConstraint || sqlErr.Number == errUniqueIndex
	}
	return false
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
