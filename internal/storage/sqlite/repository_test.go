package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osm-news/internal/observability"
	"osm-news/internal/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(filepath.Join(t.TempDir(), "news.db"), 5*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func strPtr(s string) *string { return &s }

func newArticle(source, url, title string, published time.Time, tags ...string) *storage.Article {
	return &storage.Article{
		ID:          uuid.New(),
		Title:       title,
		Content:     title + " content",
		Excerpt:     title + " content",
		URL:         url,
		Source:      source,
		DedupKey:    source + "|" + url,
		Sport:       "rugby_league",
		Tags:        tags,
		PublishedAt: published,
		ScrapedAt:   published,
		CreatedAt:   published,
	}
}

func TestInsertArticle_Deduplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := newArticle("NRL.com", "https://www.nrl.com/a", "Storm win", now, "NRL")
	a.League = strPtr("NRL")

	inserted, err := repo.InsertArticle(ctx, a)
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := newArticle("NRL.com", "https://www.nrl.com/a", "Storm win again", now)
	inserted, err = repo.InsertArticle(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	articles, err := repo.ListArticles(ctx, storage.ArticleFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	got := articles[0]
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "Storm win", got.Title)
	assert.Equal(t, storage.StringList{"NRL"}, got.Tags)
	require.NotNil(t, got.League)
	assert.Equal(t, "NRL", *got.League)
	assert.Nil(t, got.Club)
	assert.WithinDuration(t, now, got.PublishedAt, time.Millisecond)
}

func TestInsertArticle_ConcurrentDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.InsertArticle(ctx, newArticle("TotalRL", "https://www.totalrl.com/x", "Same story", now))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
}

func TestListArticles_Filters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	a1 := newArticle("NRL.com", "https://www.nrl.com/1", "Storm beat Broncos", base, "NRL", "Melbourne Storm")
	a1.League = strPtr("NRL")
	a1.Club = strPtr("Melbourne Storm")

	a2 := newArticle("BBC Sport", "https://www.bbc.com/2", "Wigan transfer latest", base.Add(time.Hour), "Super League", "Wigan Warriors", "Transfer News")
	a2.League = strPtr("Super League")
	a2.Club = strPtr("Wigan Warriors")

	a3 := newArticle("BBC Sport", "https://www.bbc.com/3", "Challenge Cup draw made", base.Add(2*time.Hour), "Challenge Cup")
	a3.Competition = strPtr("Challenge Cup")

	other := newArticle("BBC Sport", "https://www.bbc.com/4", "Six Nations preview", base.Add(3*time.Hour))
	other.Sport = "rugby_union"

	for _, a := range []*storage.Article{a1, a2, a3, other} {
		ok, err := repo.InsertArticle(ctx, a)
		require.NoError(t, err)
		require.True(t, ok)
	}

	titles := func(f storage.ArticleFilter) []string {
		t.Helper()
		if f.Limit == 0 {
			f.Limit = 20
		}
		f.Sport = "rugby_league"
		articles, err := repo.ListArticles(ctx, f)
		require.NoError(t, err)
		out := make([]string, 0, len(articles))
		for _, a := range articles {
			out = append(out, a.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Challenge Cup draw made", "Wigan transfer latest", "Storm beat Broncos"}, titles(storage.ArticleFilter{}))
	assert.Equal(t, []string{"Storm beat Broncos"}, titles(storage.ArticleFilter{League: "NRL"}))
	assert.Equal(t, []string{"Wigan transfer latest"}, titles(storage.ArticleFilter{Club: "Wigan Warriors"}))
	assert.Equal(t, []string{"Challenge Cup draw made"}, titles(storage.ArticleFilter{Competition: "Challenge Cup"}))
	assert.Equal(t, []string{"Challenge Cup draw made", "Wigan transfer latest"}, titles(storage.ArticleFilter{Source: "BBC Sport"}))
	assert.Equal(t, []string{"Wigan transfer latest"}, titles(storage.ArticleFilter{Tag: "Transfer News"}))
	assert.Equal(t, []string{"Storm beat Broncos"}, titles(storage.ArticleFilter{Search: "BRONCOS"}))
	assert.Empty(t, titles(storage.ArticleFilter{Search: "100%"}))
	assert.Equal(t, []string{"Wigan transfer latest"}, titles(storage.ArticleFilter{Limit: 1, Offset: 1}))
}

func TestAppendScrapeLog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.AppendScrapeLog(ctx, &storage.ScrapeLogEntry{
		ID:              uuid.New(),
		Source:          "Sky Sports",
		Status:          storage.StatusError,
		ArticlesScraped: 0,
		Errors:          storage.StringList{"HTTP 503: Service Unavailable"},
		CreatedAt:       time.Now(),
	})
	require.NoError(t, err)

	var (
		status string
		errs   storage.StringList
	)
	require.NoError(t, repo.db.QueryRowx(`SELECT status, errors FROM scraping_logs WHERE source = ?`, "Sky Sports").Scan(&status, &errs))
	assert.Equal(t, storage.StatusError, status)
	assert.Equal(t, storage.StringList{"HTTP 503: Service Unavailable"}, errs)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.EnsureSchema(context.Background()))
}
