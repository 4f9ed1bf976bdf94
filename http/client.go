// Package http provides the HTTP client infrastructure for sheet,
// feed, and watch-page fetches: request pacing, retry with backoff,
// and typed errors for rate limiting and anti-automation responses.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"livesched/retry"
)

// Client wraps an HTTP client with retry logic, per-host rate limiting,
// and a failure breaker.
type Client struct {
	base        *http.Client
	config      *Config
	rateLimiter *RateLimiter
	breaker     *Breaker
}

// Config holds HTTP client configuration.
type Config struct {
	// Timeout for individual HTTP requests.
	Timeout time.Duration

	// UserAgent for all requests.
	UserAgent string

	// AcceptLanguage pins response language so scraped markup stays
	// pattern-matchable.
	AcceptLanguage string

	// Retry configuration.
	Retry retry.Config

	// RateLimiter configuration.
	RateLimiter RateLimiterConfig

	// Breaker configuration.
	Breaker BreakerConfig
}

// DefaultConfig returns sensible defaults for batch scraping.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        45 * time.Second,
		UserAgent:      "Mozilla/5.0 (compatible; livesched-bot/1.0)",
		AcceptLanguage: "en-US,en;q=0.9",
		Retry:          retry.DefaultConfig(),
		RateLimiter:    DefaultRateLimiterConfig(),
		Breaker:        DefaultBreakerConfig(),
	}
}

// New creates a new HTTP client with the given configuration.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{
		base: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:      cfg,
		rateLimiter: NewRateLimiter(cfg.RateLimiter),
		breaker:     NewBreaker(cfg.Breaker),
	}
}

// Response represents an HTTP response with status code and body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get performs a GET request with retry logic.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, nil)
}

// Do performs an HTTP request with rate limiting and retry. The body,
// if any, is replayed from the byte slice on each attempt.
func (c *Client) Do(ctx context.Context, method, urlStr string, body []byte, headers map[string]string) (*Response, error) {
	host := extractHost(urlStr)

	if err := c.breaker.Allow(host); err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx, urlStr); err != nil {
		return nil, err
	}

	var result *Response

	err := retry.Do(ctx, c.config.Retry, isRetryableHTTPError, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
		if err != nil {
			return err
		}

		req.Header.Set("User-Agent", c.config.UserAgent)
		if c.config.AcceptLanguage != "" {
			req.Header.Set("Accept-Language", c.config.AcceptLanguage)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.base.Do(req)
		if err != nil {
			return fmt.Errorf("http request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode == http.StatusForbidden {
			return &RateLimitError{
				StatusCode:     resp.StatusCode,
				RetryAfter:     parseRetryAfter(resp.Header),
				IsBotDetection: resp.StatusCode == http.StatusForbidden,
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return &HTTPError{StatusCode: resp.StatusCode, Body: bodyBytes}
		}

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		result = &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       respBody,
		}
		return nil
	})

	if err != nil {
		c.breaker.RecordFailure(host)
		return nil, err
	}

	c.breaker.RecordSuccess(host)
	return result, nil
}

// isRetryableHTTPError classifies HTTP errors for the retry loop:
// 5xx and rate limits are transient, other status errors are not.
func isRetryableHTTPError(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}
	if _, ok := err.(*RateLimitError); ok {
		return true
	}
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.StatusCode >= 500
	}
	return true
}

// parseRetryAfter extracts the Retry-After header value, either as
// seconds or as an HTTP date. Returns 0 if not present.
func parseRetryAfter(header http.Header) time.Duration {
	retryAfter := header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		return time.Until(t)
	}
	return 0
}
