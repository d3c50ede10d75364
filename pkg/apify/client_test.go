package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL)}, opts...)
	return NewClient("test-token", opts...)
}

const placePayload = `[
  {
    "title": "Garasi Motor Jaya",
    "placeId": "ChIJplace1",
    "categoryName": "Car dealer",
    "address": "Jl. Sudirman No. 1, Jakarta",
    "city": "Jakarta",
    "location": {"lat": -6.2088, "lng": 106.8456},
    "totalScore": 4.6,
    "reviewsCount": 120,
    "imagesCount": 35,
    "reviewsDistribution": {"oneStar": 3, "fiveStar": 90},
    "reviews": [
      {"reviewId": "r1", "name": "Budi", "stars": 5, "text": "Pelayanan bagus", "publishedAtDate": "2026-08-01T10:00:00Z"},
      {"reviewId": "r2", "name": "Sari", "stars": 4, "text": "Cukup baik"}
    ]
  }
]`

func TestScrapeReviews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/acts/compass~crawler-google-places/run-sync-get-dataset-items", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, float64(10), in["maxReviews"])
		assert.Equal(t, "id", in["language"])
		assert.Equal(t, true, in["includeReviewerName"])
		assert.Equal(t, true, in["includeReviewId"])
		assert.Equal(t, true, in["includeOwnerResponse"])
		assert.Equal(t, true, in["includeReviewerProfile"])
		urls := in["startUrls"].([]any)
		require.Len(t, urls, 1)
		assert.Equal(t, "https://maps.google.com/?cid=123", urls[0].(map[string]any)["url"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(placePayload))
	})

	place, err := c.ScrapeReviews(context.Background(), ScrapeInput{
		PlaceURL:   "https://maps.google.com/?cid=123",
		MaxReviews: 10,
		Language:   "id",
	})
	require.NoError(t, err)

	assert.Equal(t, "Garasi Motor Jaya", place.Title)
	assert.Equal(t, "ChIJplace1", place.PlaceID)
	assert.InDelta(t, 4.6, place.TotalScore, 0.001)
	assert.Equal(t, 120, place.ReviewsCount)
	require.Len(t, place.Reviews, 2)
	assert.Equal(t, "r1", place.Reviews[0].ReviewID)
	assert.Equal(t, "Budi", place.Reviews[0].Name)
	assert.NotEmpty(t, place.Raw)
	assert.JSONEq(t, `{"oneStar": 3, "fiveStar": 90}`, string(place.ReviewsDistribution))
}

func TestScrapeReviews_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantReason FailureReason
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
				w.Write([]byte(`{"error":"insufficient credits"}`))
			},
			wantReason: ReasonHTTP,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json at all`))
			},
			wantReason: ReasonDecode,
		},
		{
			name: "empty dataset",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			},
			wantReason: ReasonEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.ScrapeReviews(context.Background(), ScrapeInput{PlaceURL: "https://maps.google.com/x"})
			require.Error(t, err)

			var se *ScrapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantReason, se.Reason)
		})
	}
}

func TestScrapeReviews_HTTPErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad token"}`))
	})

	_, err := c.ScrapeReviews(context.Background(), ScrapeInput{PlaceURL: "https://maps.google.com/x"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad token")
}

func TestScrapeReviews_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}, WithTimeout(20*time.Millisecond))

	_, err := c.ScrapeReviews(context.Background(), ScrapeInput{PlaceURL: "https://maps.google.com/x"})
	require.Error(t, err)

	var se *ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ReasonTimeout, se.Reason)
}

func TestScrapeReviews_ContextDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ScrapeReviews(ctx, ScrapeInput{PlaceURL: "https://maps.google.com/x"})
	require.Error(t, err)

	var se *ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ReasonTimeout, se.Reason)
}

func TestWithActor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acts/custom~actor/run-sync-get-dataset-items", r.URL.Path)
		w.Write([]byte(placePayload))
	}, WithActor("custom~actor"))

	_, err := c.ScrapeReviews(context.Background(), ScrapeInput{PlaceURL: "https://maps.google.com/x"})
	require.NoError(t, err)
}
