package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"osm-news/internal/config"
	"osm-news/internal/observability"
)

const defaultConfigPath = "configs/config.yaml"

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "osm-news",
		Short:         "Rugby league news aggregator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the YAML config file")

	load := func() (*config.Config, *observability.Logger, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		logger, err := observability.NewLogger(cfg.Observability)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create logger: %w", err)
		}
		return cfg, logger, nil
	}

	root.AddCommand(
		newServeCommand(load),
		newScrapeCommand(load),
		newSourcesCommand(load),
	)
	return root
}

type loaderFunc func() (*config.Config, *observability.Logger, error)
