package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"osm-news/internal/config"
	"osm-news/internal/observability"
)

// ErrDisallowed is returned when robots.txt forbids the URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError is a non-2xx response that survived all retries.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}

type Fetcher struct {
	client      *http.Client
	cfg         *config.Config
	logger      *observability.Logger
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
	sleep       func(ctx context.Context, d time.Duration) error
}

type FetchResponse struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
}

func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	client := &http.Client{
		Timeout: cfg.GetTotalTimeout(),
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.GetConnectTimeout(),
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: cfg.GetConnectTimeout(),
			MaxIdleConns:        cfg.HTTP.MaxIdleConnections,
			MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnectionsPerHost,
			IdleConnTimeout:     cfg.GetIdleConnectionTimeout(),
		},
	}

	f := &Fetcher{
		client:      client,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: NewRateLimiter(cfg.RateLimit.RPM, cfg.RateLimit.Burst),
		sleep:       sleepContext,
	}
	if cfg.Robots.Respect {
		f.robotsCache = NewRobotsCache(cfg.GetRobotsCacheTTL(), logger)
	}
	return f
}

// Fetch GETs urlStr and returns the body of a 2xx response. Transport
// failures, 5xx and 429 are retried with backoff; any other status fails
// immediately.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	if err := f.Admit(ctx, urlStr); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.HTTP.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.calculateBackoff(attempt)
			f.logger.Debug("Retrying fetch",
				"url", urlStr,
				"attempt", attempt,
				"backoff", backoff.String(),
				"error", lastErr.Error(),
			)
			if err := f.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		resp, err := f.fetchOnce(ctx, urlStr)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		statusErr := &StatusError{Code: resp.StatusCode}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = statusErr
			continue
		}
		return nil, statusErr
	}

	if f.cfg.HTTP.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("fetch failed after %d retries: %w", f.cfg.HTTP.MaxRetries, lastErr)
}

// Admit applies the robots.txt policy and waits for the per-host rate
// limiter. Every request to a source goes through it, rendered ones included.
func (f *Fetcher) Admit(ctx context.Context, urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if f.robotsCache != nil {
		allowed, err := f.robotsCache.IsAllowed(ctx, parsedURL, f.cfg.HTTP.UserAgent, f.client)
		if err != nil {
			return fmt.Errorf("robots.txt check failed: %w", err)
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrDisallowed, urlStr)
		}
	}

	if err := f.rateLimiter.Wait(ctx, parsedURL.Host); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}
	return nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	req.Header.Set("Accept", f.cfg.HTTP.Accept)
	req.Header.Set("Accept-Language", f.cfg.HTTP.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "url", urlStr, "error", err.Error())
		}
	}()

	reader := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.cfg.HTTP.MaxBodyBytes))
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched page",
		"url", urlStr,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(body),
	)

	return &FetchResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
		URL:        resp.Request.URL.String(),
		Headers:    resp.Header,
	}, nil
}

func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	minDelay := f.cfg.GetBackoffMin()
	maxDelay := f.cfg.GetBackoffMax()

	// Exponential backoff: min * 2^(attempt-1)
	exponential := maxDelay
	if shift := attempt - 1; shift < 32 {
		if d := minDelay << uint(shift); d > 0 && d < maxDelay {
			exponential = d
		}
	}

	jitterRange := float64(exponential) * float64(f.cfg.Backoff.JitterPct) / 100
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange
	final := time.Duration(float64(exponential) + jitter)

	if final < minDelay {
		final = minDelay
	}
	return final
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
