// Package reconcile merges a scraped vendor payload into the store. The
// merge is idempotent on vendor identifiers: re-running the same payload
// yields the same rows, with duplicate reviews refreshed in place.
package reconcile

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/store"
	"github.com/dealerpulse/reviews-cli/pkg/apify"
)

// Outcome summarizes one reconciliation run.
type Outcome struct {
	Business       *model.Business
	NewCount       int
	DuplicateCount int
}

// Engine applies scraped payloads to the store.
type Engine struct {
	store store.Store
}

func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// Apply reconciles one place payload for a tenant. The whole merge runs in a
// single transaction so a mid-run failure leaves no partial rows behind.
func (e *Engine) Apply(ctx context.Context, tenantID string, place *apify.PlaceResult) (*Outcome, error) {
	if place == nil {
		return nil, eris.New("reconcile: nil place payload")
	}

	var out Outcome
	err := e.store.InTx(ctx, func(tx store.Store) error {
		business, err := e.applyBusiness(ctx, tx, tenantID, place)
		if err != nil {
			return err
		}
		out.Business = business

		newCount, dupCount, err := e.applyReviews(ctx, tx, tenantID, business.ID, place.Reviews)
		if err != nil {
			return err
		}
		out.NewCount = newCount
		out.DuplicateCount = dupCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("reconciled place payload",
		zap.String("tenant_id", tenantID),
		zap.String("place_id", place.PlaceID),
		zap.Int("new", out.NewCount),
		zap.Int("duplicate", out.DuplicateCount))
	return &out, nil
}

// applyBusiness updates the business row matching the vendor place id, or
// inserts a fresh one. A payload without a place id always inserts: there is
// nothing to match on.
func (e *Engine) applyBusiness(ctx context.Context, tx store.Store, tenantID string, place *apify.PlaceResult) (*model.Business, error) {
	existing, err := tx.GetBusinessByPlaceID(ctx, place.PlaceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if existing != nil {
		fillBusiness(existing, place, now)
		if err := tx.UpdateBusiness(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	b := &model.Business{
		TenantID: tenantID,
		PlaceID:  place.PlaceID,
	}
	fillBusiness(b, place, now)
	if err := tx.InsertBusiness(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func fillBusiness(b *model.Business, place *apify.PlaceResult, scrapedAt time.Time) {
	b.Name = place.Title
	b.Category = place.CategoryName
	b.Address = place.Address
	b.City = place.City
	b.PostalCode = place.PostalCode
	b.Lat = place.Location.Lat
	b.Lng = place.Location.Lng
	b.Phone = place.Phone
	b.Website = place.Website
	b.Rating = place.TotalScore
	b.ReviewCount = place.ReviewsCount
	b.ImageCount = place.ImagesCount
	b.OpeningHours = place.OpeningHours
	b.ScoreDistribution = place.ReviewsDistribution
	b.Categories = place.Categories
	b.RawPayload = place.Raw
	b.ScrapeStatus = model.ScrapeStateSuccess
	b.ScrapedAt = scrapedAt
}

// applyReviews walks the vendor reviews in payload order. Reviews whose
// vendor id already exists are refreshed in place and counted as duplicates;
// everything else, including reviews without a vendor id, inserts as new.
func (e *Engine) applyReviews(ctx context.Context, tx store.Store, tenantID, businessID string, items []apify.ReviewItem) (newCount, dupCount int, err error) {
	vendorIDs := make([]string, 0, len(items))
	for _, item := range items {
		if item.ReviewID != "" {
			vendorIDs = append(vendorIDs, item.ReviewID)
		}
	}
	existing, err := tx.ExistingReviewIDs(ctx, vendorIDs)
	if err != nil {
		return 0, 0, err
	}

	for _, item := range items {
		r := reviewFromItem(tenantID, businessID, item)

		if rowID, ok := existing[item.ReviewID]; ok && item.ReviewID != "" {
			r.ID = rowID
			if err := tx.UpdateReviewContent(ctx, r); err != nil {
				return 0, 0, eris.Wrapf(err, "reconcile: refresh review %s", item.ReviewID)
			}
			dupCount++
			continue
		}

		if err := tx.InsertReview(ctx, r); err != nil {
			return 0, 0, eris.Wrapf(err, "reconcile: insert review %s", item.ReviewID)
		}
		// A vendor id repeated later in the same payload is a duplicate of
		// this row, not a second insert.
		if item.ReviewID != "" {
			existing[item.ReviewID] = r.ID
		}
		newCount++
	}
	return newCount, dupCount, nil
}

func reviewFromItem(tenantID, businessID string, item apify.ReviewItem) *model.Review {
	return &model.Review{
		TenantID:         tenantID,
		BusinessID:       businessID,
		ReviewID:         item.ReviewID,
		ReviewerName:     item.Name,
		ReviewerID:       item.ReviewerID,
		ReviewerURL:      item.ReviewerURL,
		ReviewerPhotoURL: item.ReviewerPhotoURL,
		Rating:           item.Stars,
		Text:             item.Text,
		TextTranslated:   item.TextTranslated,
		PublishedAt:      parseVendorTime(item.PublishedAtDate),
		OwnerReply:       item.OwnerResponseText,
		OwnerReplyAt:     parseVendorTime(item.OwnerResponseDate),
	}
}

// parseVendorTime parses the vendor timestamp format. Unparseable or empty
// values become nil rather than failing the whole run.
func parseVendorTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
