package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"osm-news/internal/observability"
)

type RobotsCache struct {
	cache  map[string]*robotsEntry
	ttl    time.Duration
	mu     sync.RWMutex
	logger *observability.Logger
	now    func() time.Time
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, logger *observability.Logger) *RobotsCache {
	return &RobotsCache{
		cache:  make(map[string]*robotsEntry),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// IsAllowed reports whether agent may fetch target. A robots.txt that cannot
// be fetched is treated as allow-all.
func (rc *RobotsCache) IsAllowed(ctx context.Context, target *url.URL, agent string, client *http.Client) (bool, error) {
	key := target.Scheme + "://" + target.Host

	rc.mu.RLock()
	cached, exists := rc.cache[key]
	rc.mu.RUnlock()

	if exists && rc.now().Before(cached.expiresAt) {
		return cached.data.TestAgent(target.RequestURI(), agent), nil
	}

	data := rc.fetch(ctx, key+"/robots.txt", agent, client)

	rc.mu.Lock()
	rc.cache[key] = &robotsEntry{data: data, expiresAt: rc.now().Add(rc.ttl)}
	rc.mu.Unlock()

	return data.TestAgent(target.RequestURI(), agent), nil
}

func (rc *RobotsCache) fetch(ctx context.Context, robotsURL, agent string, client *http.Client) *robotstxt.RobotsData {
	allowAll, _ := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return allowAll
	}
	req.Header.Set("User-Agent", agent)

	resp, err := client.Do(req)
	if err != nil {
		rc.logger.Debug("robots.txt unavailable, allowing", "url", robotsURL, "error", err.Error())
		return allowAll
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return allowAll
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		rc.logger.Warn("Unparseable robots.txt, allowing", "url", robotsURL, "error", err.Error())
		return allowAll
	}
	return data
}
