package app

import (
	"context"
	"fmt"

	"osm-news/internal/config"
	"osm-news/internal/fetcher"
	"osm-news/internal/observability"
	"osm-news/internal/storage"
	"osm-news/internal/storage/mssql"
	"osm-news/internal/storage/postgres"
	"osm-news/internal/storage/sqlite"
)

// OpenRepository connects to the configured backend and makes sure the
// schema exists.
func OpenRepository(ctx context.Context, cfg *config.Config, logger *observability.Logger) (storage.Repository, error) {
	var (
		repo storage.Repository
		err  error
	)

	switch cfg.Storage.Driver {
	case "mssql":
		repo, err = mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), cfg.Storage.MaxOpenConns, logger)
	case "postgres":
		repo, err = postgres.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), cfg.Storage.MaxOpenConns, logger)
	case "sqlite":
		repo, err = sqlite.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownDriver, cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s repository: %w", cfg.Storage.Driver, err)
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}

	logger.Info("Repository ready", "driver", cfg.Storage.Driver)
	return repo, nil
}

// Service bundles everything a command needs.
type Service struct {
	Config   *config.Config
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	Repo     storage.Repository
	Pipeline *Pipeline

	renderer *fetcher.Renderer
}

// NewService opens the repository and wires the pipeline.
func NewService(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Service, error) {
	repo, err := OpenRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	svc := &Service{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Repo:    repo,
	}

	httpFetcher := fetcher.NewFetcher(cfg, logger)

	var renderer PageFetcher
	if cfg.Rod.Enabled {
		svc.renderer = fetcher.NewRenderer(cfg, logger, httpFetcher)
		renderer = svc.renderer
	}

	svc.Pipeline = NewPipeline(cfg, logger, metrics, httpFetcher, renderer, repo)
	return svc, nil
}

func (s *Service) Close() error {
	if s.renderer != nil {
		if err := s.renderer.Close(); err != nil {
			s.Logger.Warn("Failed to close renderer", "error", err.Error())
		}
	}
	return s.Repo.Close()
}
