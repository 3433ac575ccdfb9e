// Package jobdispatcher is a client for a BLAST-style job dispatcher REST API
// (submit a sequence, poll the job status, fetch the JSON results).
//
// Every call is a single attempt bounded by the request timeout; retrying is
// up to the caller.
package jobdispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"beacons-hub/logger"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://www.ebi.ac.uk/Tools/services/rest/ncbiblast"
	DefaultTimeout   = 5 * time.Second
	DefaultRateLimit = 5
	DefaultEmail     = "pdbekb_help@ebi.ac.uk"

	maxResultSize = 64 << 20
)

var (
	ErrSubmissionFailed   = errors.New("job submission failed")
	ErrStatusUnavailable  = errors.New("job status unavailable")
	ErrResultsUnavailable = errors.New("job results unavailable")
)

// Client talks to the dispatcher.
type Client struct {
	baseURL    string
	email      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithEmail(email string) ClientOption {
	return func(c *Client) {
		c.email = email
	}
}

// WithTimeout bounds each individual call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit caps outbound calls per second.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

func NewClient(lg *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		email:      DefaultEmail,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     lg,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit starts a blastp search of sequence against UniProtKB and returns the
// dispatcher job handle.
func (c *Client) Submit(ctx context.Context, sequence string) (string, error) {
	form := url.Values{
		"email":    {c.email},
		"program":  {"blastp"},
		"stype":    {"protein"},
		"sequence": {sequence},
		"database": {"uniprotkb"},
	}

	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/run", strings.NewReader(form.Encode()), 4096)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrSubmissionFailed, status)
	}

	handle := strings.TrimSpace(string(body))
	if handle == "" {
		return "", fmt.Errorf("%w: empty job handle", ErrSubmissionFailed)
	}

	c.logger.Debug("job submitted to dispatcher", map[string]any{
		"job_id": handle,
	})
	return handle, nil
}

// Status returns the current dispatcher status of a job.
func (c *Client) Status(ctx context.Context, handle string) (Status, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/status/"+url.PathEscape(handle), nil, 1024)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: unexpected status %d", ErrStatusUnavailable, status)
	}

	parsed, ok := ParseStatus(string(body))
	if !ok {
		return 0, fmt.Errorf("%w: unrecognised status %q", ErrStatusUnavailable, strings.TrimSpace(string(body)))
	}
	return parsed, nil
}

// FetchResults downloads and decodes the JSON results of a finished job.
func (c *Client) FetchResults(ctx context.Context, handle string) (*SearchResults, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/result/"+url.PathEscape(handle)+"/json", nil, maxResultSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultsUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrResultsUnavailable, status)
	}

	var results SearchResults
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: decoding results: %v", ErrResultsUnavailable, err)
	}
	return &results, nil
}

func (c *Client) do(ctx context.Context, method, reqURL string, body io.Reader, limit int64) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, data, nil
}
