// Package monitoring aggregates scrape audit health and pushes webhook
// alerts when the failure rate climbs past its threshold.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/store"
)

// MetricsSnapshot summarizes scrape and enrichment activity over the
// lookback window.
type MetricsSnapshot struct {
	LookbackHours int `json:"lookback_hours"`

	AuditTotal      int     `json:"audit_total"`
	AuditCompleted  int     `json:"audit_completed"`
	AuditFailed     int     `json:"audit_failed"`
	AuditProcessing int     `json:"audit_processing"`
	FailureRate     float64 `json:"failure_rate"`

	ReviewsScraped   int `json:"reviews_scraped"`
	ReviewsNew       int `json:"reviews_new"`
	ReviewsDuplicate int `json:"reviews_duplicate"`

	AnalysisCompleted int `json:"analysis_completed"`
	AnalysisFailed    int `json:"analysis_failed"`
	AnalysisPending   int `json:"analysis_pending"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Collector builds metrics snapshots from the audit trail.
type Collector struct {
	store         store.Store
	lookbackHours int
	now           func() time.Time
}

func NewCollector(s store.Store, lookbackHours int) *Collector {
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	return &Collector{
		store:         s,
		lookbackHours: lookbackHours,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Collect aggregates all audits created inside the lookback window.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	now := c.now()
	since := now.Add(-time.Duration(c.lookbackHours) * time.Hour)

	audits, err := c.store.RecentAudits(ctx, since, 0)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: collect audits")
	}

	snap := &MetricsSnapshot{
		LookbackHours: c.lookbackHours,
		GeneratedAt:   now,
	}
	for _, a := range audits {
		snap.AuditTotal++
		switch a.Status {
		case model.AuditStatusCompleted:
			snap.AuditCompleted++
			snap.ReviewsScraped += a.ScrapedCount
			snap.ReviewsNew += a.NewCount
			snap.ReviewsDuplicate += a.DuplicateCount
		case model.AuditStatusFailed:
			snap.AuditFailed++
		case model.AuditStatusProcessing:
			snap.AuditProcessing++
		}

		switch a.AnalysisStatus {
		case model.AnalysisStatusCompleted:
			snap.AnalysisCompleted++
		case model.AnalysisStatusFailed:
			snap.AnalysisFailed++
		case model.AnalysisStatusPending, model.AnalysisStatusProcessing:
			snap.AnalysisPending++
		}
	}

	if finished := snap.AuditCompleted + snap.AuditFailed; finished > 0 {
		snap.FailureRate = float64(snap.AuditFailed) / float64(finished)
	}
	return snap, nil
}
