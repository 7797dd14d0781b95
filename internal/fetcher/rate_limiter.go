package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per host.
type RateLimiter struct {
	rpm   int
	burst int
	hosts map[string]*rate.Limiter
	mu    sync.Mutex
}

func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rpm:   rpm,
		burst: burst,
		hosts: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until host may be requested again or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	return rl.limiter(host).Wait(ctx)
}

func (rl *RateLimiter) limiter(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.hosts[host]
	if !ok {
		limit := rate.Inf
		if rl.rpm > 0 {
			limit = rate.Every(time.Minute / time.Duration(rl.rpm))
		}
		l = rate.NewLimiter(limit, rl.burst)
		rl.hosts[host] = l
	}
	return l
}
