package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Transport timeouts. One pooled client per process; retry and rate limiting
// live in the guard package, not here.
const (
	totalTimeout   = 30 * time.Second
	connectTimeout = 10 * time.Second
	readTimeout    = 20 * time.Second

	maxConns        = 100
	maxConnsPerHost = 30
)

// Response is the raw transport result. Adapters decode Body themselves;
// JSONBody is a convenience check on the advertised content type.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// IsJSON reports whether the response advertises a JSON content type.
func (r *Response) IsJSON() bool {
	ct := r.Header.Get("Content-Type")
	return ct == "application/json" || len(ct) > 16 && ct[:16] == "application/json"
}

// RetryAfter returns the Retry-After header in seconds, 0 if absent or
// unparseable.
func (r *Response) RetryAfter() time.Duration {
	v := r.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// HTTPClient is the shared connection-pooled transport.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient constructs the process-wide pooled client.
func NewHTTPClient() *HTTPClient {
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          maxConns,
		MaxConnsPerHost:       maxConnsPerHost,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: readTimeout,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   totalTimeout,
		},
	}
}

// Get performs a GET with the process deadline and returns the raw response.
// Non-2xx statuses are returned, not errors; classification is the guard's job.
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers)
}

// Post performs a POST with a raw body.
func (c *HTTPClient) Post(ctx context.Context, url string, body []byte, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body, headers)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
