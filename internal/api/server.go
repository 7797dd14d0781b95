package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"osm-news/internal/config"
	"osm-news/internal/observability"
)

type Server struct {
	http            *http.Server
	logger          *observability.Logger
	shutdownTimeout time.Duration
}

// NewRouter registers the news endpoints, the health check and, unless
// disabled, the metrics endpoint.
func NewRouter(cfg *config.Config, h *Handler, metrics *observability.Metrics, logger *observability.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", h.Health)

	news := router.Group("/api/news")
	{
		news.GET("", h.ListNews)
		news.POST("/scrape", h.Scrape)
	}

	if !cfg.Server.DisableMetrics && metrics != nil {
		router.GET(cfg.Observability.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	return router
}

func NewServer(cfg *config.Config, router http.Handler, logger *observability.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.GetReadTimeout(),
			WriteTimeout: cfg.GetWriteTimeout(),
		},
		logger:          logger,
		shutdownTimeout: cfg.GetShutdownTimeout(),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Debug("HTTP request", fields...)
	}
}
