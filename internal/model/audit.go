package model

import "time"

// AuditStatus is the scrape state of one orchestration run. It is monotonic:
// once a run reaches a terminal state its scrape-outcome fields never change.
type AuditStatus string

const (
	AuditStatusProcessing AuditStatus = "processing"
	AuditStatusCompleted  AuditStatus = "completed"
	AuditStatusFailed     AuditStatus = "failed"
	AuditStatusPartial    AuditStatus = "partial"
)

// Terminal reports whether the status allows no further scrape-outcome mutation.
func (s AuditStatus) Terminal() bool {
	return s == AuditStatusCompleted || s == AuditStatusFailed
}

// AnalysisStatus is the enrichment sub-state of an audit. It transitions
// independently of the scrape status and may keep moving after the scrape
// has reached a terminal state.
type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

// ScrapeAudit is the durable trace of one orchestration invocation. A row is
// inserted as processing before any external call, so every attempt leaves a
// trace even when it fails before the vendor is reached.
type ScrapeAudit struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`

	// Request echo.
	RequestedBy string `json:"requested_by,omitempty"`
	MaxReviews  int    `json:"max_reviews"`
	Language    string `json:"language"`

	Status AuditStatus `json:"status"`

	// Outcome metrics, immutable once Status is terminal.
	PlaceID        string  `json:"place_id,omitempty"`
	BusinessName   string  `json:"business_name,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	TotalReviews   int     `json:"total_reviews"`   // vendor-reported review count
	ScrapedCount   int     `json:"scraped_count"`   // reviews returned this run
	NewCount       int     `json:"new_count"`       // newly created this run
	DuplicateCount int     `json:"duplicate_count"` // already existing this run

	ErrorMessage   string `json:"error_message,omitempty"`
	WarningMessage string `json:"warning_message,omitempty"`

	// Enrichment sub-state.
	AutoAnalyze         bool           `json:"auto_analyze"`
	AnalysisStatus      AnalysisStatus `json:"analysis_status,omitempty"`
	AnalyzedCount       int            `json:"analyzed_count"`
	AnalysisFailedCount int            `json:"analysis_failed_count"`
	AnalysisDuration    float64        `json:"analysis_duration_secs"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Duration    float64    `json:"duration_secs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditOutcome carries the scrape-outcome metrics written when a run
// completes successfully.
type AuditOutcome struct {
	PlaceID        string
	BusinessName   string
	Rating         float64
	TotalReviews   int
	ScrapedCount   int
	NewCount       int
	DuplicateCount int
}
