// Package apify wraps the Apify Google Maps reviews actor behind a small
// client interface. The client performs a single synchronous actor run per
// call; retry policy, if any, belongs to the caller.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the Apify v2 API.
const defaultBaseURL = "https://api.apify.com/v2"

// defaultTimeout bounds the synchronous actor run.
const defaultTimeout = 300 * time.Second

// FailureReason classifies why a scrape call failed. Each failure mode is
// reported distinctly rather than as a generic fault.
type FailureReason string

const (
	ReasonTimeout FailureReason = "timeout"
	ReasonHTTP    FailureReason = "http_error"
	ReasonDecode  FailureReason = "invalid_response"
	ReasonEmpty   FailureReason = "empty_result"
)

// ScrapeError is returned for every failed scrape call. Callers can branch
// on Reason without parsing message text.
type ScrapeError struct {
	Reason FailureReason
	Err    error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("apify: scrape failed (%s): %v", e.Reason, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// APIError is returned when Apify responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apify: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client defines the Apify operations used by the ingestion pipeline.
type Client interface {
	ScrapeReviews(ctx context.Context, in ScrapeInput) (*PlaceResult, error)
}

// ScrapeInput describes one reviews scrape request.
type ScrapeInput struct {
	PlaceURL   string
	MaxReviews int
	Language   string
}

// actorInput is the body sent to the actor run endpoint.
type actorInput struct {
	StartURLs               []startURL `json:"startUrls"`
	MaxReviews              int        `json:"maxReviews"`
	Language                string     `json:"language"`
	IncludeReviewerName     bool       `json:"includeReviewerName"`
	IncludeReviewID         bool       `json:"includeReviewId"`
	IncludeOwnerResponse    bool       `json:"includeOwnerResponse"`
	IncludeReviewerProfile  bool       `json:"includeReviewerProfile"`
}

type startURL struct {
	URL string `json:"url"`
}

// Location holds the place geocoordinates.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceResult is the first dataset item of a successful actor run: the
// business itself plus its nested reviews.
type PlaceResult struct {
	Title        string   `json:"title"`
	PlaceID      string   `json:"placeId"`
	CategoryName string   `json:"categoryName"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	PostalCode   string   `json:"postalCode"`
	Location     Location `json:"location"`
	Phone        string   `json:"phone"`
	Website      string   `json:"website"`

	TotalScore   float64 `json:"totalScore"`
	ReviewsCount int     `json:"reviewsCount"`
	ImagesCount  int     `json:"imagesCount"`

	OpeningHours        json.RawMessage `json:"openingHours,omitempty"`
	ReviewsDistribution json.RawMessage `json:"reviewsDistribution,omitempty"`
	Categories          json.RawMessage `json:"categories,omitempty"`

	Reviews []ReviewItem `json:"reviews"`

	// Raw is the verbatim dataset item, kept for forensics.
	Raw json.RawMessage `json:"-"`
}

// ReviewItem is one review entry in the vendor payload.
type ReviewItem struct {
	ReviewID          string  `json:"reviewId"`
	Name              string  `json:"name"`
	ReviewerID        string  `json:"reviewerId"`
	ReviewerURL       string  `json:"reviewerUrl"`
	ReviewerPhotoURL  string  `json:"reviewerPhotoUrl"`
	Stars             float64 `json:"stars"`
	Text              string  `json:"text"`
	TextTranslated    string  `json:"textTranslated"`
	PublishedAtDate   string  `json:"publishedAtDate"`
	OwnerResponseText string  `json:"responseFromOwnerText"`
	OwnerResponseDate string  `json:"responseFromOwnerDate"`
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithActor overrides the default actor id.
func WithActor(actor string) Option {
	return func(c *httpClient) {
		c.actor = actor
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the default run timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token   string
	baseURL string
	actor   string
	http    *http.Client
}

// NewClient creates a new Apify client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		actor:   "compass~crawler-google-places",
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScrapeReviews runs the actor synchronously and decodes its dataset. The
// first dataset item is the business; its reviews array holds the child
// records.
func (c *httpClient) ScrapeReviews(ctx context.Context, in ScrapeInput) (*PlaceResult, error) {
	body, err := json.Marshal(actorInput{
		StartURLs:              []startURL{{URL: in.PlaceURL}},
		MaxReviews:             in.MaxReviews,
		Language:               in.Language,
		IncludeReviewerName:    true,
		IncludeReviewID:        true,
		IncludeOwnerResponse:   true,
		IncludeReviewerProfile: true,
	})
	if err != nil {
		return nil, &ScrapeError{Reason: ReasonDecode, Err: eris.Wrap(err, "marshal actor input")}
	}

	url := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items", c.baseURL, c.actor)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ScrapeError{Reason: ReasonHTTP, Err: eris.Wrap(err, "create request")}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &ScrapeError{Reason: ReasonTimeout, Err: err}
		}
		return nil, &ScrapeError{Reason: ReasonHTTP, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ScrapeError{Reason: ReasonHTTP, Err: eris.Wrap(err, "read response body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ScrapeError{
			Reason: ReasonHTTP,
			Err:    &APIError{StatusCode: resp.StatusCode, Body: string(data)},
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &ScrapeError{Reason: ReasonDecode, Err: eris.Wrap(err, "decode dataset")}
	}
	if len(items) == 0 {
		return nil, &ScrapeError{Reason: ReasonEmpty, Err: eris.New("dataset returned no items")}
	}

	var place PlaceResult
	if err := json.Unmarshal(items[0], &place); err != nil {
		return nil, &ScrapeError{Reason: ReasonDecode, Err: eris.Wrap(err, "decode place item")}
	}
	place.Raw = items[0]

	return &place, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
