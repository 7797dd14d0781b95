package mssql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osm-news/internal/observability"
	"osm-news/internal/storage"
)

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewRepositoryWithDB(db, 5*time.Second, observability.NewNopLogger()), mock
}

func testArticle() *storage.Article {
	now := time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)
	club := "Wigan Warriors"
	return &storage.Article{
		ID:          uuid.New(),
		Title:       "Wigan sign prop",
		Content:     "Wigan Warriors complete a transfer.",
		Excerpt:     "Wigan Warriors complete a transfer.",
		URL:         "https://www.bbc.com/sport/rugby-league/1",
		Source:      "BBC Sport",
		DedupKey:    "k1",
		Sport:       "rugby_league",
		Club:        &club,
		Tags:        storage.StringList{"Wigan Warriors", "Transfer News"},
		PublishedAt: now,
		ScrapedAt:   now,
		CreatedAt:   now,
	}
}

func TestInsertArticle_New(t *testing.T) {
	repo, mock := newTestRepo(t)
	a := testArticle()

	mock.ExpectPrepare(`MERGE INTO dbo.news_articles WITH \(HOLDLOCK\)`).
		ExpectExec().
		WithArgs(
			sql.Named("ID", a.ID.String()),
			sql.Named("Title", a.Title),
			sql.Named("Content", a.Content),
			sql.Named("Excerpt", a.Excerpt),
			sql.Named("URL", a.URL),
			sql.Named("Source", a.Source),
			sql.Named("DedupKey", "k1"),
			sql.Named("Sport", "rugby_league"),
			sql.Named("League", nil),
			sql.Named("Club", "Wigan Warriors"),
			sql.Named("Competition", nil),
			sql.Named("Tags", `["Wigan Warriors","Transfer News"]`),
			sql.Named("PublishedAt", a.PublishedAt),
			sql.Named("ScrapedAt", a.ScrapedAt),
			sql.Named("CreatedAt", a.CreatedAt),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.InsertArticle(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertArticle_AlreadyStored(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectPrepare("MERGE INTO dbo.news_articles").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertArticle(context.Background(), testArticle())
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertArticle_UniqueViolationIsNotAnError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectPrepare("MERGE INTO dbo.news_articles").
		ExpectExec().
		WillReturnError(mssqldb.Error{Number: 2627, Message: "Violation of UNIQUE KEY constraint"})

	inserted, err := repo.InsertArticle(context.Background(), testArticle())
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestInsertArticle_OtherErrors(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectPrepare("MERGE INTO dbo.news_articles").
		ExpectExec().
		WillReturnError(errors.New("login failed"))

	_, err := repo.InsertArticle(context.Background(), testArticle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert article")
}

func TestAppendScrapeLog(t *testing.T) {
	repo, mock := newTestRepo(t)
	entry := &storage.ScrapeLogEntry{
		ID:        uuid.New(),
		Source:    "Sky Sports",
		Status:    storage.StatusError,
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO dbo.scraping_logs").
		WithArgs(
			sql.Named("ID", entry.ID.String()),
			sql.Named("Source", "Sky Sports"),
			sql.Named("Status", "error"),
			sql.Named("ArticlesScraped", 0),
			sql.Named("Errors", "[]"),
			sql.Named("CreatedAt", entry.CreatedAt),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AppendScrapeLog(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListArticles(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()
	now := time.Now().UTC()

	columns := []string{"id", "title", "content", "excerpt", "url", "source", "dedup_key", "sport",
		"league", "club", "competition", "tags", "published_at", "scraped_at", "created_at"}

	mock.ExpectQuery(`FROM dbo.news_articles WHERE \[sport\] = @Sport AND EXISTS \(SELECT 1 FROM OPENJSON\(\[tags\]\) WHERE \[value\] = @Tag\) ORDER BY \[published_at\] DESC, \[created_at\] DESC OFFSET @Offset ROWS FETCH NEXT @Limit ROWS ONLY`).
		WithArgs(
			sql.Named("Sport", "rugby_league"),
			sql.Named("Tag", "Transfer News"),
			sql.Named("Offset", 0),
			sql.Named("Limit", 20),
		).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			// SQL Server renders UNIQUEIDENTIFIER in upper case.
			uuidUpper(id), "Wigan sign prop", "c", "c", "https://www.bbc.com/1", "BBC Sport", "k1", "rugby_league",
			nil, "Wigan Warriors", nil, `["Wigan Warriors","Transfer News"]`, now, now, now,
		))

	articles, err := repo.ListArticles(context.Background(), storage.ArticleFilter{
		Sport: "rugby_league",
		Tag:   "Transfer News",
		Limit: 20,
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, id, articles[0].ID)
	assert.Nil(t, articles[0].League)
	require.NotNil(t, articles[0].Club)
	assert.Equal(t, "Wigan Warriors", *articles[0].Club)
	assert.Equal(t, storage.StringList{"Wigan Warriors", "Transfer News"}, articles[0].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListArticles_QueryError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("FROM dbo.news_articles").WillReturnError(errors.New("timeout"))

	_, err := repo.ListArticles(context.Background(), storage.ArticleFilter{Limit: 20})
	assert.Error(t, err)
}

func uuidUpper(id uuid.UUID) string {
	b := []byte(id.String())
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
