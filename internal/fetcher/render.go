package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"osm-news/internal/config"
	"osm-news/internal/observability"
)

// Renderer loads pages in headless Chromium so script-built listings are
// present in the returned HTML. The browser is launched on first use. When a
// gate is set, its robots.txt policy and rate limiter apply before each load.
type Renderer struct {
	cfg    *config.Config
	logger *observability.Logger
	gate   *Fetcher

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewRenderer(cfg *config.Config, logger *observability.Logger, gate *Fetcher) *Renderer {
	return &Renderer{cfg: cfg, logger: logger, gate: gate}
}

func (r *Renderer) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	if r.gate != nil {
		if err := r.gate.Admit(ctx, urlStr); err != nil {
			return nil, err
		}
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Warn("Failed to close page", "url", urlStr, "error", err.Error())
		}
	}()

	var (
		status   int
		finalURL string
	)
	waitDocument := page.Timeout(r.cfg.GetRodWaitLoadTimeout()).EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = int(e.Response.Status)
		finalURL = e.Response.URL
		return true
	})

	if err := page.Navigate(urlStr); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	waitDocument()

	if err := page.Timeout(r.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	if delay := r.cfg.GetRodLazyLoadDelay(); delay > 0 {
		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	html, err := page.Timeout(r.cfg.GetRodPageTimeout()).HTML()
	if err != nil {
		return nil, fmt.Errorf("read rendered html: %w", err)
	}

	r.logger.Debug("Rendered page", "url", urlStr, "status", status, "bytes", len(html))

	return renderedResponse(urlStr, status, finalURL, html)
}

// renderedResponse applies the HTTP fetcher's status rules to a rendered
// page. status is zero when no document response was observed.
func renderedResponse(requested string, status int, finalURL, html string) (*FetchResponse, error) {
	if status == 0 {
		return nil, fmt.Errorf("no document response for %s", requested)
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{Code: status}
	}
	if finalURL == "" {
		finalURL = requested
	}
	return &FetchResponse{
		StatusCode: status,
		Body:       []byte(html),
		URL:        finalURL,
	}, nil
}

func (r *Renderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true).Leakless(false)
	if r.cfg.Rod.ChromePath != "" {
		l = l.Bin(r.cfg.Rod.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	r.launcher = l
	r.browser = browser
	return browser, nil
}

// Close shuts the browser down if it was started.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.launcher.Kill()
	r.browser = nil
	r.launcher = nil
	return err
}
