package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"osm-news/internal/api"
	"osm-news/internal/app"
)

func newServeCommand(load loaderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scrape scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := app.GracefulShutdown(logger)
			defer cancel()

			svc, err := app.NewService(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					logger.Warn("Failed to close service", "error", err.Error())
				}
			}()

			sched, err := app.NewScheduler(cfg, svc.Pipeline, logger)
			if err != nil {
				return fmt.Errorf("failed to create scheduler: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			if cfg.Observability.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			handler := api.NewHandler(cfg, svc.Pipeline, svc.Repo, logger)
			router := api.NewRouter(cfg, handler, svc.Metrics, logger)

			return api.NewServer(cfg, router, logger).Run(ctx)
		},
	}
}
