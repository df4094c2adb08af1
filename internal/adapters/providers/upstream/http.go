package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sixassist/cityassist/pkg/retry"
)

// DefaultTimeout is the per-request timeout of clients built by NewHTTPClient.
const DefaultTimeout = 8 * time.Second

// StatusError is returned for a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.StatusCode)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// NewHTTPClient returns a client with DefaultTimeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Client performs JSON GET requests against third-party APIs, retrying
// throttling and server errors with backoff.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	retry      retry.Config
	name       string
}

// NewClient creates an upstream client. A nil httpClient uses NewHTTPClient.
func NewClient(name string, httpClient *http.Client, headers http.Header) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		httpClient: httpClient,
		headers:    headers,
		retry:      retry.UpstreamConfig(),
		name:       name,
	}
}

// WithRetry overrides the retry policy.
func (c *Client) WithRetry(cfg retry.Config) *Client {
	c.retry = cfg
	return c
}

// GetJSON fetches reqURL and decodes the body into dst.
func (c *Client) GetJSON(ctx context.Context, reqURL string, dst any) error {
	return retry.DoWithLog(ctx, c.retry, c.name, func() error {
		return c.getOnce(ctx, reqURL, dst)
	}, retry.LogAttempt(c.name))
}

func (c *Client) getOnce(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{URL: req.URL.Redacted(), StatusCode: resp.StatusCode, Body: string(body)}
		if statusErr.Retryable() {
			return statusErr
		}
		return retry.Permanent(statusErr)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return retry.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
