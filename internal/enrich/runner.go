// Package enrich runs sentiment analysis in the background after a scrape
// completes. Jobs are fire and forget: an enrichment failure only marks the
// audit's analysis sub-state and never touches the scrape outcome.
package enrich

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/resilience"
	"github.com/dealerpulse/reviews-cli/internal/store"
	"github.com/dealerpulse/reviews-cli/pkg/sentiment"
)

// Job identifies one enrichment task queued after a successful scrape.
type Job struct {
	AuditID     string
	TenantID    string
	ReviewCount int
}

// Runner executes one enrichment job against the sentiment service.
type Runner struct {
	store     store.Store
	analyzer  sentiment.Client
	batchSize int
	retry     resilience.RetryConfig
	now       func() time.Time
}

func NewRunner(s store.Store, analyzer sentiment.Client, batchSize, maxRetries int) *Runner {
	if batchSize <= 0 {
		batchSize = 10
	}
	retry := resilience.DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxAttempts = maxRetries
	}
	retry.ShouldRetry = retryableAnalyzeError
	return &Runner{
		store:     s,
		analyzer:  analyzer,
		batchSize: batchSize,
		retry:     retry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// retryableAnalyzeError retries network faults and 5xx responses; a 4xx from
// the analyzer will not improve on a second try.
func retryableAnalyzeError(err error) bool {
	var apiErr *sentiment.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

// Run processes one job. All failures are absorbed here: the method logs and
// records them but never propagates, so a worker goroutine cannot take the
// pipeline down with it.
func (r *Runner) Run(ctx context.Context, job Job) {
	var started time.Time
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("enrichment panic recovered",
				zap.String("audit_id", job.AuditID),
				zap.Any("panic", rec))
			r.markFailed(ctx, job.AuditID, "internal analysis fault", r.elapsedSince(started))
		}
	}()

	// The audit may have been pruned between scheduling and execution.
	if _, err := r.store.GetAudit(ctx, job.AuditID); err != nil {
		zap.L().Warn("enrichment audit lookup failed",
			zap.String("audit_id", job.AuditID), zap.Error(err))
		return
	}

	if err := r.setStatus(ctx, job.AuditID, model.AnalysisStatusProcessing); err != nil {
		zap.L().Warn("mark analysis processing failed",
			zap.String("audit_id", job.AuditID), zap.Error(err))
		return
	}

	started = r.now()
	result, err := resilience.DoVal(ctx, r.retry, "sentiment.analyze",
		func(ctx context.Context) (*sentiment.AnalyzeResult, error) {
			return r.analyzer.Analyze(ctx, sentiment.AnalyzeRequest{
				TenantID:  job.TenantID,
				Limit:     job.ReviewCount,
				BatchSize: r.batchSize,
			})
		})
	elapsed := r.now().Sub(started).Seconds()

	if err != nil {
		zap.L().Warn("sentiment analysis failed",
			zap.String("audit_id", job.AuditID),
			zap.String("tenant_id", job.TenantID),
			zap.Error(err))
		r.markFailed(ctx, job.AuditID, "sentiment analysis failed: "+err.Error(), elapsed)
		return
	}

	update := store.AnalysisUpdate{
		Status:        model.AnalysisStatusCompleted,
		AnalyzedCount: result.AnalyzedCount,
		FailedCount:   result.FailedCount,
		DurationSecs:  elapsed,
	}
	if !result.Success {
		update.Status = model.AnalysisStatusFailed
		update.Warning = result.Message
	}
	if err := r.store.SetAuditAnalysis(ctx, job.AuditID, update); err != nil {
		zap.L().Warn("record analysis result failed",
			zap.String("audit_id", job.AuditID), zap.Error(err))
		return
	}

	zap.L().Info("sentiment analysis finished",
		zap.String("audit_id", job.AuditID),
		zap.Int("analyzed", result.AnalyzedCount),
		zap.Int("failed", result.FailedCount),
		zap.Float64("secs", elapsed))
}

func (r *Runner) setStatus(ctx context.Context, auditID string, status model.AnalysisStatus) error {
	return r.store.SetAuditAnalysis(ctx, auditID, store.AnalysisUpdate{Status: status})
}

// elapsedSince is zero when the job never reached the analysis call.
func (r *Runner) elapsedSince(started time.Time) float64 {
	if started.IsZero() {
		return 0
	}
	return r.now().Sub(started).Seconds()
}

func (r *Runner) markFailed(ctx context.Context, auditID, warning string, elapsed float64) {
	if err := r.store.SetAuditAnalysis(ctx, auditID, store.AnalysisUpdate{
		Status:       model.AnalysisStatusFailed,
		Warning:      warning,
		DurationSecs: elapsed,
	}); err != nil {
		zap.L().Warn("mark analysis failed errored",
			zap.String("audit_id", auditID), zap.Error(err))
	}
}
