package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"osm-news/internal/app"
	"osm-news/internal/config"
	"osm-news/internal/observability"
	"osm-news/internal/storage"
)

// Runner triggers a full scrape run.
type Runner interface {
	Run(ctx context.Context) (*app.RunSummary, error)
}

type Handler struct {
	runner       Runner
	reader       storage.ArticleReader
	logger       *observability.Logger
	sport        string
	defaultLimit int
	maxLimit     int
}

func NewHandler(cfg *config.Config, runner Runner, reader storage.ArticleReader, logger *observability.Logger) *Handler {
	return &Handler{
		runner:       runner,
		reader:       reader,
		logger:       logger,
		sport:        cfg.Scrape.Sport,
		defaultLimit: cfg.Server.DefaultPageLimit,
		maxLimit:     cfg.Server.MaxPageLimit,
	}
}

type scrapeResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	TotalArticles int                `json:"totalArticles"`
	Results       []app.SourceResult `json:"results"`
}

type listResponse struct {
	Articles []storage.Article `json:"articles"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// Scrape handles POST /api/news/scrape.
func (h *Handler) Scrape(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Scrape request panicked", "panic", fmt.Sprint(r))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Scraping failed",
				"details": fmt.Sprint(r),
			})
		}
	}()

	summary, err := h.runner.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Scrape request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Scraping failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, scrapeResponse{
		Success:       true,
		Message:       fmt.Sprintf("Scraping completed. %d new articles scraped.", summary.TotalArticles),
		TotalArticles: summary.TotalArticles,
		Results:       summary.Results,
	})
}

// ListNews handles GET /api/news.
func (h *Handler) ListNews(c *gin.Context) {
	page, err := positiveQuery(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := positiveQuery(c, "limit", h.defaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	if page > math.MaxInt/limit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page is out of range"})
		return
	}

	filter := storage.ArticleFilter{
		Sport:       h.sport,
		League:      c.Query("league"),
		Club:        c.Query("club"),
		Competition: c.Query("competition"),
		Source:      c.Query("source"),
		Tag:         c.Query("tag"),
		Search:      c.Query("search"),
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}

	articles, err := h.reader.ListArticles(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list articles", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if articles == nil {
		articles = []storage.Article{}
	}

	c.JSON(http.StatusOK, listResponse{Articles: articles, Page: page, Limit: limit})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func positiveQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}
