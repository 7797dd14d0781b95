package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"osm-news/internal/config"
)

func newSourcesCommand(load loaderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured source registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			renderSources(os.Stdout, cfg.Sources)
			return nil
		},
	}
}

func renderSources(w io.Writer, sources []config.SourceConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Name", "URL", "Kind", "Render", "Enabled", "Article Selector"})
	for _, s := range sources {
		t.AppendRow(table.Row{s.Name, s.URL, s.Kind, s.Render, s.IsEnabled(), s.Selectors.Article})
	}

	t.Render()
}
