// Package pipeline orchestrates one scrape run end to end: validate the
// tenant, call the scrape vendor, reconcile the payload, and record the run
// in the audit trail. Enrichment is handed off to a background scheduler and
// never blocks or fails the run.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dealerpulse/reviews-cli/internal/audit"
	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/reconcile"
	"github.com/dealerpulse/reviews-cli/internal/store"
	"github.com/dealerpulse/reviews-cli/pkg/apify"
)

// Scheduler accepts enrichment work after a successful scrape. Schedule
// reports false when the job could not be queued.
type Scheduler interface {
	Schedule(auditID, tenantID string, reviewCount int) bool
}

// Limits bound per-request scrape parameters.
type Limits struct {
	DefaultMaxReviews int
	MaxReviewsCap     int
	DefaultLanguage   string
}

// Request describes one scrape run.
type Request struct {
	TenantID    string
	MaxReviews  int
	Language    string
	RequestedBy string
	AutoAnalyze bool
}

// Result is returned for a successful run.
type Result struct {
	AuditID   string
	TenantID  string
	Business  *model.Business
	Outcome   model.AuditOutcome
	ScrapedAt time.Time
	// EnrichmentStatus is the analysis sub-state recorded before returning:
	// "processing" when a job was queued, "failed" when the queue rejected
	// it, empty when no analysis was requested or nothing was new.
	EnrichmentStatus model.AnalysisStatus
	// EnrichmentScheduled is true when analysis work was queued.
	EnrichmentScheduled bool
}

// Orchestrator drives scrape runs.
type Orchestrator struct {
	store     store.Store
	scraper   apify.Client
	engine    *reconcile.Engine
	tracker   *audit.Tracker
	scheduler Scheduler // nil disables enrichment handoff
	limits    Limits
}

func NewOrchestrator(s store.Store, scraper apify.Client, scheduler Scheduler, limits Limits) *Orchestrator {
	return &Orchestrator{
		store:     s,
		scraper:   scraper,
		engine:    reconcile.NewEngine(s),
		tracker:   audit.NewTracker(s),
		scheduler: scheduler,
		limits:    limits,
	}
}

// Run executes one scrape for the tenant. Every run leaves an audit row
// behind, including failed ones: the row is created before any validation
// so a missing tenant still has a queryable trace.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	req = o.clamp(req)

	auditRow := &model.ScrapeAudit{
		TenantID:    req.TenantID,
		RequestedBy: req.RequestedBy,
		MaxReviews:  req.MaxReviews,
		Language:    req.Language,
		AutoAnalyze: req.AutoAnalyze,
	}
	if err := o.tracker.Begin(ctx, auditRow); err != nil {
		return nil, newError(KindReconciliation, "create audit", err)
	}

	tenant, err := o.store.GetTenant(ctx, req.TenantID)
	if err != nil {
		perr := newError(KindReconciliation, "load tenant", err)
		if store.IsNotFound(err) {
			perr = newError(KindNotFound, "tenant "+req.TenantID+" not found", err)
		}
		o.failAudit(ctx, auditRow, perr.Msg)
		return nil, perr
	}

	if !tenant.Configured() {
		perr := newError(KindConfiguration, "tenant "+req.TenantID+" has no place url configured", nil)
		o.failAudit(ctx, auditRow, perr.Msg)
		return nil, perr
	}

	place, err := o.scraper.ScrapeReviews(ctx, apify.ScrapeInput{
		PlaceURL:   tenant.PlaceURL,
		MaxReviews: req.MaxReviews,
		Language:   req.Language,
	})
	if err != nil {
		perr := newError(KindUpstream, "scrape place reviews", err)
		o.recordFailedBusiness(ctx, tenant)
		o.failAudit(ctx, auditRow, perr.Error())
		return nil, perr
	}

	out, err := o.engine.Apply(ctx, req.TenantID, place)
	if err != nil {
		perr := newError(KindReconciliation, "reconcile scraped payload", err)
		o.failAudit(ctx, auditRow, perr.Error())
		return nil, perr
	}

	outcome := model.AuditOutcome{
		PlaceID:        place.PlaceID,
		BusinessName:   place.Title,
		Rating:         place.TotalScore,
		TotalReviews:   place.ReviewsCount,
		ScrapedCount:   len(place.Reviews),
		NewCount:       out.NewCount,
		DuplicateCount: out.DuplicateCount,
	}
	if err := o.tracker.Complete(ctx, auditRow, outcome); err != nil {
		return nil, newError(KindReconciliation, "complete audit", err)
	}

	res := &Result{
		AuditID:   auditRow.ID,
		TenantID:  req.TenantID,
		Business:  out.Business,
		Outcome:   outcome,
		ScrapedAt: out.Business.ScrapedAt,
	}
	res.EnrichmentStatus = o.scheduleEnrichment(ctx, auditRow, req, out.NewCount)
	res.EnrichmentScheduled = res.EnrichmentStatus == model.AnalysisStatusProcessing
	return res, nil
}

// scheduleEnrichment queues the analysis job when the run produced new
// reviews and the caller asked for it. The sub-state goes to processing at
// handoff. A full queue or scheduler fault only marks the analysis
// sub-state; the scrape itself already succeeded.
func (o *Orchestrator) scheduleEnrichment(ctx context.Context, auditRow *model.ScrapeAudit, req Request, newCount int) model.AnalysisStatus {
	if !req.AutoAnalyze || newCount == 0 || o.scheduler == nil {
		return ""
	}

	if err := o.tracker.SetAnalysis(ctx, auditRow.ID, store.AnalysisUpdate{
		Status: model.AnalysisStatusProcessing,
	}); err != nil {
		zap.L().Warn("mark analysis processing failed",
			zap.String("audit_id", auditRow.ID), zap.Error(err))
		return ""
	}

	if !o.scheduler.Schedule(auditRow.ID, req.TenantID, newCount) {
		zap.L().Warn("enrichment queue full, skipping analysis",
			zap.String("audit_id", auditRow.ID))
		if err := o.tracker.SetAnalysis(ctx, auditRow.ID, store.AnalysisUpdate{
			Status:  model.AnalysisStatusFailed,
			Warning: "analysis queue full",
		}); err != nil {
			zap.L().Warn("mark analysis failed errored",
				zap.String("audit_id", auditRow.ID), zap.Error(err))
		}
		return model.AnalysisStatusFailed
	}
	return model.AnalysisStatusProcessing
}

// recordFailedBusiness leaves a stub row behind when the vendor call fails,
// so failed scrapes stay visible per tenant. The vendor never answered, so
// the place id is unknown and the stub cannot be reconciled later.
func (o *Orchestrator) recordFailedBusiness(ctx context.Context, tenant *model.Tenant) {
	stub := &model.Business{
		TenantID:     tenant.ID,
		Name:         tenant.Name,
		ScrapeStatus: model.ScrapeStateFailed,
		ScrapedAt:    time.Now().UTC(),
	}
	if err := o.store.InsertBusiness(ctx, stub); err != nil {
		zap.L().Error("record failed business stub errored",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
	}
}

func (o *Orchestrator) clamp(req Request) Request {
	if req.MaxReviews <= 0 {
		req.MaxReviews = o.limits.DefaultMaxReviews
	}
	if o.limits.MaxReviewsCap > 0 && req.MaxReviews > o.limits.MaxReviewsCap {
		req.MaxReviews = o.limits.MaxReviewsCap
	}
	if req.Language == "" {
		req.Language = o.limits.DefaultLanguage
	}
	return req
}

// failAudit marks the audit failed; a marking failure is logged, not
// returned, so the original pipeline error wins.
func (o *Orchestrator) failAudit(ctx context.Context, a *model.ScrapeAudit, reason string) {
	if err := o.tracker.Fail(ctx, a, reason); err != nil {
		zap.L().Error("fail audit errored",
			zap.String("audit_id", a.ID), zap.Error(err))
	}
}
