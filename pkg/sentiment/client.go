// Package sentiment wraps the review sentiment-analysis collaborator. The
// analyzer runs as its own service; this client only submits analysis jobs
// and reports their counts.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the sentiment analyzer operations used by the enrichment
// stage.
type Client interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error)
}

// AnalyzeRequest asks the analyzer to process up to Limit unanalyzed reviews
// for a tenant, in batches of BatchSize.
type AnalyzeRequest struct {
	TenantID  string `json:"tenant_id"`
	Limit     int    `json:"limit"`
	BatchSize int    `json:"batch_size"`
}

// AnalyzeResult is the analyzer's report for one request.
type AnalyzeResult struct {
	Success       bool   `json:"success"`
	AnalyzedCount int    `json:"analyzed_count"`
	FailedCount   int    `json:"failed_count"`
	Message       string `json:"message,omitempty"`
}

// APIError is returned when the analyzer responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sentiment: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit throttles Analyze calls to r requests per second.
func WithRateLimit(r float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(r), 1)
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	baseURL string
	key     string
	limiter *rate.Limiter
	http    *http.Client
}

// NewClient creates a sentiment analyzer client for the given base URL.
func NewClient(baseURL, key string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		key:     key,
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sentiment: rate limit wait")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sentiment: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "sentiment: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "sentiment: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sentiment: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var result AnalyzeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrap(err, "sentiment: decode response")
	}

	return &result, nil
}
