package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osm-news/internal/config"
	"osm-news/internal/observability"
	"osm-news/internal/storage"
)

func TestOpenRepository_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "oracle"

	_, err := OpenRepository(context.Background(), cfg, observability.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrUnknownDriver))
}

func TestNewService_SQLite(t *testing.T) {
	cfg := testConfig(config.SourceConfig{Name: "A", URL: "https://a.example/news"})
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "svc", "news.db")

	svc, err := NewService(context.Background(), cfg, observability.NewNopLogger())
	require.NoError(t, err)
	defer svc.Close()

	assert.Nil(t, svc.Pipeline.renderer)
	assert.NotNil(t, svc.Metrics)

	articles, err := svc.Repo.ListArticles(context.Background(), storage.ArticleFilter{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestNewService_RendererWiredWhenEnabled(t *testing.T) {
	cfg := testConfig(config.SourceConfig{Name: "A", URL: "https://a.example/news", Render: true})
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "news.db")
	cfg.Rod.Enabled = true

	svc, err := NewService(context.Background(), cfg, observability.NewNopLogger())
	require.NoError(t, err)

	require.NotNil(t, svc.renderer)
	assert.NotNil(t, svc.Pipeline.renderer)
	assert.NoError(t, svc.Close())
}
