package monitoring

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/store"
)

func newMonitoringStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "monitoring.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.UpsertTenant(ctx, &model.Tenant{ID: "tenant-1", Name: "Garasi Motor Jaya"}))
	return s
}

func completedAudit(t *testing.T, s store.Store, newCount, dupCount int) *model.ScrapeAudit {
	t.Helper()
	ctx := context.Background()
	a := &model.ScrapeAudit{TenantID: "tenant-1"}
	require.NoError(t, s.CreateAudit(ctx, a))
	require.NoError(t, s.CompleteAudit(ctx, a.ID, model.AuditOutcome{
		ScrapedCount:   newCount + dupCount,
		NewCount:       newCount,
		DuplicateCount: dupCount,
	}, time.Now().UTC(), 1))
	return a
}

func failedAudit(t *testing.T, s store.Store) *model.ScrapeAudit {
	t.Helper()
	ctx := context.Background()
	a := &model.ScrapeAudit{TenantID: "tenant-1"}
	require.NoError(t, s.CreateAudit(ctx, a))
	require.NoError(t, s.FailAudit(ctx, a.ID, "vendor timeout", time.Now().UTC(), 1))
	return a
}

func TestCollector_Collect(t *testing.T) {
	s := newMonitoringStore(t)
	ctx := context.Background()

	completedAudit(t, s, 7, 3)
	completedAudit(t, s, 2, 8)
	failedAudit(t, s)

	// One audit still processing.
	require.NoError(t, s.CreateAudit(ctx, &model.ScrapeAudit{TenantID: "tenant-1"}))

	// One completed audit with a failed analysis.
	withAnalysis := completedAudit(t, s, 1, 0)
	require.NoError(t, s.SetAuditAnalysis(ctx, withAnalysis.ID, store.AnalysisUpdate{
		Status: model.AnalysisStatusFailed, Warning: "analyzer down",
	}))

	snap, err := NewCollector(s, 24).Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, snap.AuditTotal)
	assert.Equal(t, 3, snap.AuditCompleted)
	assert.Equal(t, 1, snap.AuditFailed)
	assert.Equal(t, 1, snap.AuditProcessing)
	assert.InDelta(t, 0.25, snap.FailureRate, 0.001)

	assert.Equal(t, 21, snap.ReviewsScraped)
	assert.Equal(t, 10, snap.ReviewsNew)
	assert.Equal(t, 11, snap.ReviewsDuplicate)

	assert.Equal(t, 1, snap.AnalysisFailed)
	assert.Equal(t, 0, snap.AnalysisCompleted)
}

func TestCollector_Collect_Empty(t *testing.T) {
	s := newMonitoringStore(t)

	snap, err := NewCollector(s, 24).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.AuditTotal)
	assert.Equal(t, 0.0, snap.FailureRate)
	assert.Equal(t, 24, snap.LookbackHours)
}
