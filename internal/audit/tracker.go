// Package audit maintains the durable record of every scrape run. Each run
// gets exactly one row that moves from processing to a terminal state and is
// never rewritten afterwards.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/store"
)

// Tracker records scrape run lifecycles against the store.
type Tracker struct {
	store store.Store
	now   func() time.Time
}

func NewTracker(s store.Store) *Tracker {
	return &Tracker{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Begin creates a processing audit row before any pipeline work starts, so a
// crash mid-run still leaves a visible record.
func (t *Tracker) Begin(ctx context.Context, a *model.ScrapeAudit) error {
	a.StartedAt = t.now()
	if err := t.store.CreateAudit(ctx, a); err != nil {
		return err
	}
	zap.L().Info("audit started",
		zap.String("audit_id", a.ID),
		zap.String("tenant_id", a.TenantID))
	return nil
}

// Complete transitions the audit to completed with the scrape outcome.
func (t *Tracker) Complete(ctx context.Context, a *model.ScrapeAudit, out model.AuditOutcome) error {
	completedAt := t.now()
	if err := t.store.CompleteAudit(ctx, a.ID, out, completedAt, t.elapsed(a, completedAt)); err != nil {
		return err
	}
	zap.L().Info("audit completed",
		zap.String("audit_id", a.ID),
		zap.Int("new", out.NewCount),
		zap.Int("duplicate", out.DuplicateCount))
	return nil
}

// Fail transitions the audit to failed with a terminal reason.
func (t *Tracker) Fail(ctx context.Context, a *model.ScrapeAudit, reason string) error {
	completedAt := t.now()
	if err := t.store.FailAudit(ctx, a.ID, reason, completedAt, t.elapsed(a, completedAt)); err != nil {
		return err
	}
	zap.L().Warn("audit failed",
		zap.String("audit_id", a.ID),
		zap.String("reason", reason))
	return nil
}

// SetAnalysis writes the enrichment sub-state. Unlike the scrape status this
// may change after the audit row is terminal.
func (t *Tracker) SetAnalysis(ctx context.Context, auditID string, update store.AnalysisUpdate) error {
	return t.store.SetAuditAnalysis(ctx, auditID, update)
}

// elapsed returns seconds since the audit started, clamped at zero in case
// of clock skew between processes.
func (t *Tracker) elapsed(a *model.ScrapeAudit, at time.Time) float64 {
	secs := at.Sub(a.StartedAt).Seconds()
	if secs < 0 {
		return 0
	}
	return secs
}
