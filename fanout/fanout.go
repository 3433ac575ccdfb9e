// Package fanout issues batches of independent GET requests concurrently.
// A failed request never fails the batch: its slot is simply nil.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"beacons-hub/logger"
	"beacons-hub/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultConcurrency = 16
	maxBodySize        = 32 << 20
)

// Response is a completed request with its body fully read.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports a 200 response.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if r == nil {
		return fmt.Errorf("nil response")
	}
	return json.Unmarshal(r.Body, v)
}

// Client runs fan-out batches.
type Client struct {
	http        *http.Client
	timeout     time.Duration
	concurrency int
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithConcurrency caps the number of in-flight requests of one batch.
func WithConcurrency(n int) Option {
	return func(c *Client) { c.concurrency = n }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(lg *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{},
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		logger:      lg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAll fetches every URL and returns responses index-aligned with urls.
func (c *Client) GetAll(ctx context.Context, urls []string) []*Response {
	responses := make([]*Response, len(urls))
	if len(urls) == 0 {
		return responses
	}

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			responses[i] = c.get(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return responses
}

func (c *Client) get(ctx context.Context, url string) *Response {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.fetch(ctx, url)
	c.metrics.ObserveFanoutRequest(err == nil, time.Since(start))
	if err != nil {
		c.logger.Warn("fan-out request failed", map[string]any{
			"url":   url,
			"error": err.Error(),
		})
		return nil
	}
	return resp
}

func (c *Client) fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	return &Response{URL: url, StatusCode: resp.StatusCode, Body: body}, nil
}
