package store

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dealerpulse/reviews-cli/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AuditFilter specifies criteria for listing scrape audits.
type AuditFilter struct {
	Status model.AuditStatus `json:"status,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for the reviews ingestion pipeline.
//
// Reconciliation writes happen inside InTx so that a business and all of its
// reviews commit or roll back as one unit.
type Store interface {
	// Tenants
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	UpsertTenant(ctx context.Context, t *model.Tenant) error

	// Businesses
	GetBusinessByPlaceID(ctx context.Context, placeID string) (*model.Business, error)
	InsertBusiness(ctx context.Context, b *model.Business) error
	UpdateBusiness(ctx context.Context, b *model.Business) error
	ListFailedBusinesses(ctx context.Context, tenantID string) ([]model.Business, error)

	// Reviews
	ExistingReviewIDs(ctx context.Context, vendorIDs []string) (map[string]string, error)
	InsertReview(ctx context.Context, r *model.Review) error
	UpdateReviewContent(ctx context.Context, r *model.Review) error
	CountReviews(ctx context.Context, businessID string) (int, error)

	// Audits
	CreateAudit(ctx context.Context, a *model.ScrapeAudit) error
	GetAudit(ctx context.Context, id string) (*model.ScrapeAudit, error)
	ListAudits(ctx context.Context, tenantID string, filter AuditFilter) ([]model.ScrapeAudit, error)
	RecentAudits(ctx context.Context, since time.Time, limit int) ([]model.ScrapeAudit, error)
	CompleteAudit(ctx context.Context, id string, out model.AuditOutcome, completedAt time.Time, durationSecs float64) error
	FailAudit(ctx context.Context, id, reason string, completedAt time.Time, durationSecs float64) error
	SetAuditAnalysis(ctx context.Context, id string, update AnalysisUpdate) error

	// InTx runs fn against a transaction-scoped view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// AnalysisUpdate carries one enrichment sub-state transition.
type AnalysisUpdate struct {
	Status        model.AnalysisStatus
	AnalyzedCount int
	FailedCount   int
	DurationSecs  float64
	Warning       string
}
