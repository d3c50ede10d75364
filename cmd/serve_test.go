package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/monitoring"
	"github.com/dealerpulse/reviews-cli/internal/pipeline"
	"github.com/dealerpulse/reviews-cli/internal/store"
	"github.com/dealerpulse/reviews-cli/pkg/apify"
)

type stubScraper struct {
	place *apify.PlaceResult
	err   error
}

func (s *stubScraper) ScrapeReviews(ctx context.Context, in apify.ScrapeInput) (*apify.PlaceResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.place, nil
}

type stubScheduler struct{ jobs int }

func (s *stubScheduler) Schedule(auditID, tenantID string, reviewCount int) bool {
	s.jobs++
	return true
}

func newServerEnv(t *testing.T, scraper apify.Client, sched pipeline.Scheduler) (*pipelineEnv, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.UpsertTenant(ctx, &model.Tenant{
		ID:       "tenant-1",
		Name:     "Garasi Motor Jaya",
		PlaceURL: "https://www.google.com/maps/place/?q=place_id:ChIJgaragejaya",
	}))

	limits := pipeline.Limits{DefaultMaxReviews: 10, MaxReviewsCap: 50, DefaultLanguage: "id"}
	env := &pipelineEnv{
		Store:        st,
		Orchestrator: pipeline.NewOrchestrator(st, scraper, sched, limits),
	}
	return env, st
}

func newTestRouter(t *testing.T, scraper apify.Client) (http.Handler, store.Store) {
	env, st := newServerEnv(t, scraper, nil)
	return newRouter(env, monitoring.NewCollector(st, 24)), st
}

func scrapedPlace() *apify.PlaceResult {
	return &apify.PlaceResult{
		Title:        "Garasi Motor Jaya",
		PlaceID:      "ChIJgaragejaya",
		TotalScore:   4.6,
		ReviewsCount: 120,
		Reviews: []apify.ReviewItem{
			{ReviewID: "r1", Name: "Budi Santoso", Stars: 5, Text: "Pelayanan cepat"},
		},
	}
}

func TestServe_Health(t *testing.T) {
	router, _ := newTestRouter(t, &stubScraper{place: scrapedPlace()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_ScrapeHappyPath(t *testing.T) {
	router, st := newTestRouter(t, &stubScraper{place: scrapedPlace()})

	body, _ := json.Marshal(scrapeRequest{MaxReviews: 10, RequestedBy: "api-test"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/tenants/tenant-1/reviews/scrape", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp scrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AuditID)
	assert.Equal(t, "tenant-1", resp.TenantID)
	assert.Equal(t, "ChIJgaragejaya", resp.VendorPlaceID)
	assert.Equal(t, "Garasi Motor Jaya", resp.BusinessName)
	assert.InDelta(t, 4.6, resp.Rating, 0.001)
	assert.Equal(t, 120, resp.VendorReviewCount)
	assert.Equal(t, 1, resp.ScrapedCount)
	assert.Equal(t, 1, resp.NewCount)
	assert.Equal(t, "success", resp.ScrapeStatus)
	assert.False(t, resp.ScrapedAt.IsZero())
	assert.False(t, resp.AutoEnrich)
	assert.Nil(t, resp.EnrichmentStatus)

	// The raw body carries an explicit null, not an omitted key.
	assert.Contains(t, rec.Body.String(), `"enrichment_status":null`)

	a, err := st.GetAudit(context.Background(), resp.AuditID)
	require.NoError(t, err)
	assert.Equal(t, model.AuditStatusCompleted, a.Status)
	assert.Equal(t, "api-test", a.RequestedBy)
}

func TestServe_ScrapeAutoEnrichReturnsProcessing(t *testing.T) {
	sched := &stubScheduler{}
	env, _ := newServerEnv(t, &stubScraper{place: scrapedPlace()}, sched)
	router := newRouter(env, monitoring.NewCollector(env.Store, 24))

	body, _ := json.Marshal(scrapeRequest{AutoAnalyze: true})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/tenants/tenant-1/reviews/scrape", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp scrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.AutoEnrich)
	require.NotNil(t, resp.EnrichmentStatus)
	assert.Equal(t, "processing", *resp.EnrichmentStatus)
	assert.Equal(t, 1, sched.jobs)
}

func TestServe_ScrapeEmptyBody(t *testing.T) {
	router, _ := newTestRouter(t, &stubScraper{place: scrapedPlace()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/tenants/tenant-1/reviews/scrape", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServe_ScrapeUnknownTenant(t *testing.T) {
	router, _ := newTestRouter(t, &stubScraper{place: scrapedPlace()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/tenants/nope/reviews/scrape", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestServe_ScrapeVendorFailure(t *testing.T) {
	router, _ := newTestRouter(t, &stubScraper{err: &apify.ScrapeError{
		Reason: apify.ReasonEmpty,
		Err:    context.DeadlineExceeded,
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/v1/tenants/tenant-1/reviews/scrape", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_GetAudit(t *testing.T) {
	router, st := newTestRouter(t, &stubScraper{place: scrapedPlace()})
	ctx := context.Background()

	a := &model.ScrapeAudit{TenantID: "tenant-1"}
	require.NoError(t, st.CreateAudit(ctx, a))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/audits/"+a.ID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.ScrapeAudit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, a.ID, got.ID)
}

func TestServe_GetAuditNotFound(t *testing.T) {
	router, _ := newTestRouter(t, &stubScraper{place: scrapedPlace()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/audits/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_ListAudits(t *testing.T) {
	router, st := newTestRouter(t, &stubScraper{place: scrapedPlace()})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, st.CreateAudit(ctx, &model.ScrapeAudit{TenantID: "tenant-1"}))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tenants/tenant-1/audits", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Audits []model.ScrapeAudit `json:"audits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Audits, 2)
}

func TestServe_ListAuditsEmpty(t *testing.T) {
	router, _ := newTestRouter(t, &stubScraper{place: scrapedPlace()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tenants/tenant-1/audits", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"audits":[]}`, rec.Body.String())
}

func TestServe_Metrics(t *testing.T) {
	router, st := newTestRouter(t, &stubScraper{place: scrapedPlace()})
	ctx := context.Background()

	require.NoError(t, st.CreateAudit(ctx, &model.ScrapeAudit{TenantID: "tenant-1"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap monitoring.MetricsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.AuditTotal)
	assert.Equal(t, 1, snap.AuditProcessing)
}
