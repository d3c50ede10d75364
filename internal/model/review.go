package model

import (
	"encoding/json"
	"time"
)

// Review is one individual review, keyed by the vendor review id. If the
// vendor omits the id the row cannot be deduplicated and every scrape
// inserts it again.
type Review struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	BusinessID string `json:"business_id"`
	ReviewID   string `json:"review_id,omitempty"` // vendor review id

	ReviewerName     string     `json:"reviewer_name,omitempty"`
	ReviewerID       string     `json:"reviewer_id,omitempty"`
	ReviewerURL      string     `json:"reviewer_url,omitempty"`
	ReviewerPhotoURL string     `json:"reviewer_photo_url,omitempty"`
	Rating           float64    `json:"rating,omitempty"`
	Text             string     `json:"text,omitempty"`
	TextTranslated   string     `json:"text_translated,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	OwnerReply       string     `json:"owner_reply,omitempty"`
	OwnerReplyAt     *time.Time `json:"owner_reply_at,omitempty"`

	// Enrichment fields, populated only by the background sentiment stage.
	SentimentLabel    string          `json:"sentiment_label,omitempty"`
	SentimentScore    *float64        `json:"sentiment_score,omitempty"`
	SentimentReason   string          `json:"sentiment_reason,omitempty"`
	SentimentTags     json.RawMessage `json:"sentiment_tags,omitempty"`
	AnalyzedAt        *time.Time      `json:"analyzed_at,omitempty"`
	EnrichmentBatchID string          `json:"enrichment_batch_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
