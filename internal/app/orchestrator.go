package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"osm-news/internal/checksum"
	"osm-news/internal/classify"
	"osm-news/internal/config"
	"osm-news/internal/fetcher"
	"osm-news/internal/normalize"
	"osm-news/internal/observability"
	"osm-news/internal/scraper"
	"osm-news/internal/storage"
)

// PageFetcher retrieves one page. Implemented by the HTTP fetcher and the
// headless renderer.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.FetchResponse, error)
}

// Store is what a run writes to.
type Store interface {
	storage.ArticleWriter
	storage.RunLogger
}

// SourceResult is the outcome of one source in one run.
type SourceResult struct {
	Source          string   `json:"source"`
	Status          string   `json:"status"`
	ArticlesScraped int      `json:"articlesScraped"`
	Errors          []string `json:"errors"`
}

type RunSummary struct {
	TotalArticles int            `json:"totalArticles"`
	Results       []SourceResult `json:"results"`
}

// Pipeline runs fetch, extract, classify and write for every enabled source,
// one source at a time.
type Pipeline struct {
	cfg        *config.Config
	logger     *observability.Logger
	metrics    *observability.Metrics
	fetcher    PageFetcher
	renderer   PageFetcher
	scraper    *scraper.Scraper
	feeds      *scraper.FeedScraper
	classifier *classify.Classifier
	dedup      *checksum.Generator
	store      Store
	now        func() time.Time
}

// NewPipeline wires a pipeline. renderer may be nil, in which case sources
// marked for rendering are fetched over plain HTTP.
func NewPipeline(
	cfg *config.Config,
	logger *observability.Logger,
	metrics *observability.Metrics,
	f PageFetcher,
	renderer PageFetcher,
	store Store,
) *Pipeline {
	n := normalize.NewNormalizer(cfg.Normalize)
	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		fetcher:    f,
		renderer:   renderer,
		scraper:    scraper.NewScraper(n, cfg.Scrape.MaxArticlesPerSource),
		feeds:      scraper.NewFeedScraper(n, cfg.Scrape.MaxArticlesPerSource),
		classifier: classify.NewClassifier(classify.TaxonomyFromConfig(cfg.Classifier)),
		dedup:      checksum.NewGenerator(),
		store:      store,
		now:        time.Now,
	}
}

// Run processes every enabled source in registry order. Source failures are
// reported in the summary; the only error returned is context cancellation.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	start := p.now()
	sources := p.cfg.EnabledSources()

	p.logger.Info("Starting scrape run", "sources", len(sources))

	results := make([]SourceResult, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			p.metrics.RunsTotal.WithLabelValues("cancelled").Inc()
			return nil, fmt.Errorf("scrape run cancelled: %w", err)
		}

		result := p.runSource(ctx, src)
		if err := ctx.Err(); err != nil {
			p.metrics.RunsTotal.WithLabelValues("cancelled").Inc()
			return nil, fmt.Errorf("scrape run cancelled: %w", err)
		}

		p.appendLog(ctx, result)
		results = append(results, result)
	}

	summary := &RunSummary{
		TotalArticles: lo.SumBy(results, func(r SourceResult) int { return r.ArticlesScraped }),
		Results:       results,
	}

	elapsed := p.now().Sub(start)
	p.metrics.RunsTotal.WithLabelValues("completed").Inc()
	p.metrics.RunDuration.Observe(elapsed.Seconds())

	p.logger.Info("Scrape run completed",
		"total_articles", summary.TotalArticles,
		"sources", len(results),
		"duration", elapsed.String(),
	)

	return summary, nil
}

func (p *Pipeline) runSource(ctx context.Context, src config.SourceConfig) (result SourceResult) {
	logger := p.logger.With("source", src.Name)
	result = SourceResult{
		Source: src.Name,
		Status: storage.StatusError,
		Errors: []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Source processing panicked", "panic", fmt.Sprint(r))
			p.metrics.SourceErrors.WithLabelValues(src.Name, "panic").Inc()
			result.Errors = append(result.Errors, fmt.Sprintf("Scraping failed: %v", r))
		}
		if result.ArticlesScraped > 0 {
			result.Status = storage.StatusSuccess
		}
	}()

	fetchStart := p.now()
	resp, err := p.fetcherFor(src).Fetch(ctx, src.URL)
	p.metrics.FetchDuration.WithLabelValues(src.Name).Observe(p.now().Sub(fetchStart).Seconds())
	if err != nil {
		logger.Error("Fetch failed", "url", src.URL, "error", err.Error())
		p.metrics.SourceErrors.WithLabelValues(src.Name, "fetch").Inc()
		result.Errors = append(result.Errors, fmt.Sprintf("Scraping failed: %v", err))
		return result
	}

	baseURL := resp.URL
	if baseURL == "" {
		baseURL = src.URL
	}

	var extraction *scraper.Extraction
	if src.Kind == config.SourceKindFeed {
		extraction, err = p.feeds.Extract(string(resp.Body), baseURL)
	} else {
		extraction, err = p.scraper.Extract(string(resp.Body), baseURL, src.Selectors)
	}
	if err != nil {
		logger.Error("Extraction failed", "error", err.Error())
		p.metrics.SourceErrors.WithLabelValues(src.Name, "extract").Inc()
		result.Errors = append(result.Errors, fmt.Sprintf("Scraping failed: %v", err))
		return result
	}

	for _, msg := range extraction.Errors {
		p.metrics.SourceErrors.WithLabelValues(src.Name, "fragment").Inc()
		result.Errors = append(result.Errors, "Error processing article: "+msg)
	}

	logger.Debug("Extracted drafts",
		"drafts", len(extraction.Drafts),
		"rejected", len(extraction.Errors),
	)

	for _, draft := range extraction.Drafts {
		article := p.buildArticle(src, draft)

		inserted, err := p.store.InsertArticle(ctx, article)
		if err != nil {
			logger.Error("Failed to insert article", "url", article.URL, "error", err.Error())
			p.metrics.SourceErrors.WithLabelValues(src.Name, "store").Inc()
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to insert article: %v", err))
			continue
		}
		if !inserted {
			p.metrics.ArticlesSkipped.WithLabelValues(src.Name).Inc()
			logger.Debug("Article already stored", "url", article.URL)
			continue
		}

		p.metrics.ArticlesInserted.WithLabelValues(src.Name).Inc()
		result.ArticlesScraped++
	}

	logger.Info("Source processed",
		"inserted", result.ArticlesScraped,
		"errors", len(result.Errors),
	)

	return result
}

func (p *Pipeline) buildArticle(src config.SourceConfig, d scraper.Draft) *storage.Article {
	now := p.now().UTC()
	published := now
	if d.PublishedAt != nil {
		published = d.PublishedAt.UTC()
	}

	c := p.classifier.Classify(d.Title + " " + d.Content)

	return &storage.Article{
		ID:          uuid.New(),
		Title:       d.Title,
		Content:     d.Content,
		Excerpt:     normalize.Excerpt(d.Content, p.cfg.Scrape.ExcerptChars),
		URL:         d.URL,
		Source:      src.Name,
		DedupKey:    p.dedup.DedupKey(src.Name, d.URL),
		Sport:       p.cfg.Scrape.Sport,
		League:      optional(c.League),
		Club:        optional(c.Club),
		Competition: optional(c.Competition),
		Tags:        c.Tags,
		PublishedAt: published,
		ScrapedAt:   now,
		CreatedAt:   now,
	}
}

// appendLog records the source outcome. Failures are logged and counted but
// never fail the run.
func (p *Pipeline) appendLog(ctx context.Context, result SourceResult) {
	entry := &storage.ScrapeLogEntry{
		ID:              uuid.New(),
		Source:          result.Source,
		Status:          result.Status,
		ArticlesScraped: result.ArticlesScraped,
		Errors:          result.Errors,
		CreatedAt:       p.now().UTC(),
	}
	if err := p.store.AppendScrapeLog(ctx, entry); err != nil {
		p.metrics.LogWriteFailures.Inc()
		p.logger.Warn("Failed to write scrape log",
			"source", result.Source,
			"error", err.Error(),
		)
	}
}

func (p *Pipeline) fetcherFor(src config.SourceConfig) PageFetcher {
	if src.Render && p.renderer != nil {
		return p.renderer
	}
	return p.fetcher
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
