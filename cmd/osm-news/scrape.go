package main

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"osm-news/internal/app"
)

func newScrapeCommand(load loaderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape over every enabled source and print the summary",
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
			defer func() { _ = svc.Close() }()

			summary, err := svc.Pipeline.Run(ctx)
			if err != nil {
				return err
			}

			renderSummary(os.Stdout, summary)
			return nil
		},
	}
}

func renderSummary(w io.Writer, summary *app.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Source", "Status", "New", "Errors"})
	for _, r := range summary.Results {
		t.AppendRow(table.Row{r.Source, r.Status, r.ArticlesScraped, strings.Join(r.Errors, "\n")})
	}
	t.AppendFooter(table.Row{"Total", "", summary.TotalArticles, ""})

	t.Render()
}
