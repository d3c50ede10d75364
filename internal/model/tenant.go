package model

import "time"

// Tenant is the organizational unit (a dealer) that scraped business data
// and audit trails belong to.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PlaceURL  string    `json:"place_url"` // Google Maps location URL used as the scrape target
	CreatedAt time.Time `json:"created_at"`
}

// Configured reports whether the tenant has a scrape target set.
func (t *Tenant) Configured() bool {
	return t.PlaceURL != ""
}
