package http

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter manages per-host request pacing using token buckets.
// Scraped endpoints get a conservative default rate; well-known hosts
// can be tuned individually.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	config   RateLimiterConfig
}

// RateLimiterConfig defines per-host request rates.
type RateLimiterConfig struct {
	// DefaultRPS is requests per second for hosts without a custom rate.
	DefaultRPS float64
	// PerHost maps host names to RPS values. 0 means unlimited.
	PerHost map[string]float64
}

// DefaultRateLimiterConfig returns rates aligned with what scraped
// endpoints tolerate without tripping anti-automation defenses.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		DefaultRPS: 2.0,
		PerHost: map[string]float64{
			"www.youtube.com":    2.5,
			"www.googleapis.com": 5.0,
			"docs.google.com":    5.0,
		},
	}
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.DefaultRPS == 0 {
		cfg.DefaultRPS = DefaultRateLimiterConfig().DefaultRPS
	}
	if cfg.PerHost == nil {
		cfg.PerHost = make(map[string]float64)
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
	}
}

// Wait blocks until the rate limit allows a request to the given URL,
// or the context is done.
func (rl *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	if rl == nil {
		return nil
	}
	limiter := rl.limiterFor(extractHost(urlStr))
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func (rl *RateLimiter) limiterFor(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limiters[host]; ok {
		return limiter
	}

	rps := rl.config.DefaultRPS
	if custom, ok := rl.config.PerHost[host]; ok {
		rps = custom
	}
	if rps == 0 {
		return nil
	}

	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	rl.limiters[host] = limiter
	return limiter
}

// extractHost extracts the host (without port) from a URL string.
func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}
