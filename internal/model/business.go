package model

import (
	"encoding/json"
	"time"
)

// ScrapeState records the outcome of the scrape that produced a business row.
type ScrapeState string

const (
	ScrapeStateSuccess ScrapeState = "success"
	ScrapeStateFailed  ScrapeState = "failed"
)

// Business is one external place/location, keyed by the vendor-supplied
// place id. A row with an empty place id cannot be reconciled against later
// scrapes and is re-created each run.
type Business struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	PlaceID  string `json:"place_id,omitempty"`

	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Address    string  `json:"address,omitempty"`
	City       string  `json:"city,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	Lat        float64 `json:"lat,omitempty"`
	Lng        float64 `json:"lng,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Website    string  `json:"website,omitempty"`

	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
	ImageCount  int     `json:"image_count,omitempty"`

	// Vendor payload blobs stored verbatim for forensics.
	OpeningHours      json.RawMessage `json:"opening_hours,omitempty"`
	ScoreDistribution json.RawMessage `json:"score_distribution,omitempty"`
	Categories        json.RawMessage `json:"categories,omitempty"`
	RawPayload        json.RawMessage `json:"raw_payload,omitempty"`

	ScrapeStatus ScrapeState `json:"scrape_status"`
	ScrapedAt    time.Time   `json:"scraped_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
