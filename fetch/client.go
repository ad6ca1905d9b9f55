// Package fetch retrieves status snapshots from the upstream endpoint and
// owns the cached query state the dashboard renders from.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"statusdash/status"
)

const (
	// RequestIDHeader carries the per-fetch correlation id.
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 16 << 20
)

// ErrStatus classifies non-2xx upstream responses.
var ErrStatus = errors.New("fetch: unexpected status")

// Options configures a Client.
type Options struct {
	URL        string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Client issues the single status GET.
type Client struct {
	url       string
	timeout   time.Duration
	userAgent string
	http      *http.Client
}

// Result is one successful fetch.
type Result struct {
	Snapshot  *status.Snapshot
	RequestID string
	FetchedAt time.Time
	Elapsed   time.Duration
	Bytes     int
}

// NewClient validates options and builds a Client.
func NewClient(opts Options) (*Client, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, errors.New("fetch: URL is empty")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{url: url, timeout: timeout, userAgent: opts.UserAgent, http: hc}, nil
}

// URL returns the endpoint this client reads.
func (c *Client) URL() string { return c.url }

// Fetch performs one GET and decodes the body. Every failure is returned;
// the request id and elapsed time are reported even when the fetch fails.
func (c *Client) Fetch(ctx context.Context) (result Result, err error) {
	result.RequestID = uuid.NewString()
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.url, nil)
	if err != nil {
		return result, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, result.RequestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return result, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return result, fmt.Errorf("%w %s", ErrStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return result, fmt.Errorf("fetch: read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return result, fmt.Errorf("fetch: body exceeds %d bytes", maxBodyBytes)
	}
	snap, err := status.Decode(body)
	if err != nil {
		return result, err
	}

	result.Snapshot = snap
	result.Bytes = len(body)
	result.FetchedAt = time.Now().UTC()
	return result, nil
}
