package guard

import (
	"context"
	"net/http"
	"time"

	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/infra"
)

const (
	maxAttempts  = 3
	baseBackoff  = 1 * time.Second
	maxBackoff   = 10 * time.Second
)

// Transport is the raw HTTP layer beneath a Client. Satisfied by
// infra.HTTPClient.
type Transport interface {
	Get(ctx context.Context, url string, headers map[string]string) (*infra.Response, error)
	Post(ctx context.Context, url string, body []byte, headers map[string]string) (*infra.Response, error)
}

// Client wraps the shared transport with per-source rate limiting, retry
// with exponential backoff, a circuit breaker, and request counters. Each
// logical source gets its own Client; breaker state never crosses clients.
type Client struct {
	name      string
	transport Transport
	limiter   *RateLimiter
	breaker   *CircuitBreaker
	metrics   Metrics

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithMinInterval overrides the default request interval.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = NewRateLimiter(d) }
}

// WithBreaker overrides breaker thresholds.
func WithBreaker(failThreshold int, resetTimeout time.Duration) Option {
	return func(c *Client) { c.breaker = NewCircuitBreaker(failThreshold, resetTimeout) }
}

// NewClient creates a reliable client for one logical source.
func NewClient(name string, transport Transport, opts ...Option) *Client {
	c := &Client{
		name:      name,
		transport: transport,
		limiter:   NewRateLimiter(DefaultMinInterval),
		breaker:   NewCircuitBreaker(DefaultFailThreshold, DefaultResetTimeout),
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a rate-limited, retried GET through the breaker.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*infra.Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers)
}

// Post issues a rate-limited, retried POST through the breaker.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers map[string]string) (*infra.Response, error) {
	return c.do(ctx, http.MethodPost, url, body, headers)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*infra.Response, error) {
	if !c.breaker.Allow() {
		c.metrics.addRequest()
		c.metrics.addFailure()
		return nil, domain.ErrBreakerOpen(c.name)
	}

	c.metrics.addRequest()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			c.metrics.addRetry()
		}
		if err := c.limiter.Wait(ctx); err != nil {
			c.breaker.RecordFailure()
			c.metrics.addFailure()
			return nil, domain.ErrTransient("request canceled", err)
		}

		resp, err := c.request(ctx, method, url, body, headers)
		if err == nil {
			c.breaker.RecordSuccess()
			c.metrics.addSuccess()
			return resp, nil
		}
		lastErr = err

		// 4xx (other than 429) is the caller's problem; never retried.
		if domain.CodeOf(err) == domain.CodeClientError {
			c.breaker.RecordFailure()
			c.metrics.addFailure()
			return nil, err
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts-1 {
			if err := c.sleep(ctx, c.backoff(attempt, err)); err != nil {
				break
			}
		}
	}

	c.breaker.RecordFailure()
	c.metrics.addFailure()
	return nil, domain.ErrTransient("retries exhausted for "+c.name, lastErr)
}

// request performs one attempt and classifies the outcome.
func (c *Client) request(ctx context.Context, method, url string, body []byte, headers map[string]string) (*infra.Response, error) {
	var resp *infra.Response
	var err error
	switch method {
	case http.MethodPost:
		resp, err = c.transport.Post(ctx, url, body, headers)
	default:
		resp, err = c.transport.Get(ctx, url, headers)
	}
	if err != nil {
		return nil, domain.ErrTransient("network error", err)
	}

	switch {
	case resp.Status >= 200 && resp.Status < 300:
		return resp, nil
	case resp.Status == http.StatusTooManyRequests:
		return nil, &rateLimitedError{retryAfter: resp.RetryAfter()}
	case resp.Status >= 500:
		return nil, domain.ErrTransient("server error", domain.ErrClient(resp.Status, "upstream 5xx"))
	default:
		return nil, domain.ErrClient(resp.Status, string(truncate(resp.Body, 200)))
	}
}

// backoff computes the delay before the next attempt: 1, 2, 4, ... seconds
// capped at 10 s, or the server's Retry-After on 429.
func (c *Client) backoff(attempt int, err error) time.Duration {
	if rl, ok := err.(*rateLimitedError); ok && rl.retryAfter > 0 {
		if rl.retryAfter > maxBackoff {
			return maxBackoff
		}
		return rl.retryAfter
	}
	d := baseBackoff << attempt
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// Snapshot returns the client's counters and breaker state.
func (c *Client) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Client:       c.name,
		Requests:     c.metrics.requests.Load(),
		Successes:    c.metrics.successes.Load(),
		Failures:     c.metrics.failures.Load(),
		Retries:      c.metrics.retries.Load(),
		BreakerState: c.breaker.State().String(),
	}
}

// Name returns the logical source name.
func (c *Client) Name() string { return c.name }

type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string { return "rate limited by upstream" }

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
