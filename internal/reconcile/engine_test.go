package reconcile

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/store"
	"github.com/dealerpulse/reviews-cli/pkg/apify"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "reconcile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.UpsertTenant(context.Background(), &model.Tenant{
		ID:       "tenant-1",
		Name:     "Garasi Motor Jaya",
		PlaceURL: "https://www.google.com/maps/place/?q=place_id:ChIJgaragejaya",
	}))
	return s
}

func samplePlace() *apify.PlaceResult {
	return &apify.PlaceResult{
		Title:        "Garasi Motor Jaya",
		PlaceID:      "ChIJgaragejaya",
		CategoryName: "Used car dealer",
		Address:      "Jl. Raya Darmo No. 12, Surabaya",
		City:         "Surabaya",
		TotalScore:   4.6,
		ReviewsCount: 120,
		Raw:          json.RawMessage(`{"title":"Garasi Motor Jaya"}`),
		Reviews: []apify.ReviewItem{
			{
				ReviewID:        "r1",
				Name:            "Budi Santoso",
				Stars:           5,
				Text:            "Pelayanan cepat dan ramah",
				PublishedAtDate: "2025-11-03T08:30:00.000Z",
			},
			{
				ReviewID:          "r2",
				Name:              "Siti Rahma",
				Stars:             4,
				Text:              "Harga wajar",
				OwnerResponseText: "Terima kasih bu Siti",
				OwnerResponseDate: "2025-11-04T10:00:00.000Z",
			},
		},
	}
}

func TestEngine_Apply_FirstRunInsertsEverything(t *testing.T) {
	s := newTestStore(t)
	eng := NewEngine(s)

	out, err := eng.Apply(context.Background(), "tenant-1", samplePlace())
	require.NoError(t, err)

	assert.Equal(t, 2, out.NewCount)
	assert.Equal(t, 0, out.DuplicateCount)
	require.NotNil(t, out.Business)
	assert.Equal(t, "ChIJgaragejaya", out.Business.PlaceID)
	assert.Equal(t, model.ScrapeStateSuccess, out.Business.ScrapeStatus)

	n, err := s.CountReviews(context.Background(), out.Business.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEngine_Apply_RerunIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	eng := NewEngine(s)
	ctx := context.Background()

	first, err := eng.Apply(ctx, "tenant-1", samplePlace())
	require.NoError(t, err)

	// Same payload again: same business row, all reviews are duplicates.
	second, err := eng.Apply(ctx, "tenant-1", samplePlace())
	require.NoError(t, err)

	assert.Equal(t, first.Business.ID, second.Business.ID)
	assert.Equal(t, 0, second.NewCount)
	assert.Equal(t, 2, second.DuplicateCount)

	n, err := s.CountReviews(ctx, first.Business.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEngine_Apply_MixedNewAndDuplicate(t *testing.T) {
	s := newTestStore(t)
	eng := NewEngine(s)
	ctx := context.Background()

	_, err := eng.Apply(ctx, "tenant-1", samplePlace())
	require.NoError(t, err)

	place := samplePlace()
	place.Reviews[0].Text = "Pelayanan cepat, montir paham mesin"
	place.Reviews = append(place.Reviews, apify.ReviewItem{
		ReviewID: "r3",
		Name:     "Agus Wijaya",
		Stars:    3,
		Text:     "Antri lama di akhir pekan",
	})

	out, err := eng.Apply(ctx, "tenant-1", place)
	require.NoError(t, err)
	assert.Equal(t, 1, out.NewCount)
	assert.Equal(t, 2, out.DuplicateCount)

	n, err := s.CountReviews(ctx, out.Business.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEngine_Apply_RepeatedVendorIDWithinPayload(t *testing.T) {
	s := newTestStore(t)
	eng := NewEngine(s)
	ctx := context.Background()

	place := samplePlace()
	place.Reviews = append(place.Reviews, apify.ReviewItem{
		ReviewID: "r1",
		Name:     "Budi Santoso",
		Stars:    5,
		Text:     "Pelayanan cepat dan ramah (edit)",
	})

	out, err := eng.Apply(ctx, "tenant-1", place)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NewCount)
	assert.Equal(t, 1, out.DuplicateCount)

	n, err := s.CountReviews(ctx, out.Business.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEngine_Apply_ReviewsWithoutVendorIDAlwaysInsert(t *testing.T) {
	s := newTestStore(t)
	eng := NewEngine(s)
	ctx := context.Background()

	place := samplePlace()
	place.Reviews = []apify.ReviewItem{
		{Name: "Anonim", Stars: 5, Text: "Mantap"},
	}

	out1, err := eng.Apply(ctx, "tenant-1", place)
	require.NoError(t, err)
	assert.Equal(t, 1, out1.NewCount)

	// Without a vendor id there is nothing to match; the row repeats.
	out2, err := eng.Apply(ctx, "tenant-1", place)
	require.NoError(t, err)
	assert.Equal(t, 1, out2.NewCount)
	assert.Equal(t, 0, out2.DuplicateCount)

	n, err := s.CountReviews(ctx, out2.Business.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEngine_Apply_RefreshesBusinessMetadata(t *testing.T) {
	s := newTestStore(t)
	eng := NewEngine(s)
	ctx := context.Background()

	_, err := eng.Apply(ctx, "tenant-1", samplePlace())
	require.NoError(t, err)

	place := samplePlace()
	place.TotalScore = 4.8
	place.ReviewsCount = 135
	place.Phone = "+62 31 555 0100"

	out, err := eng.Apply(ctx, "tenant-1", place)
	require.NoError(t, err)

	got, err := s.GetBusinessByPlaceID(ctx, "ChIJgaragejaya")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, out.Business.ID, got.ID)
	assert.Equal(t, 4.8, got.Rating)
	assert.Equal(t, 135, got.ReviewCount)
	assert.Equal(t, "+62 31 555 0100", got.Phone)
}

func TestEngine_Apply_ParsesVendorTimestamps(t *testing.T) {
	s := newTestStore(t)
	eng := NewEngine(s)
	ctx := context.Background()

	out, err := eng.Apply(ctx, "tenant-1", samplePlace())
	require.NoError(t, err)

	ids, err := s.ExistingReviewIDs(ctx, []string{"r1"})
	require.NoError(t, err)
	require.Contains(t, ids, "r1")
	_ = out

	// parseVendorTime behavior on its own.
	ts := parseVendorTime("2025-11-03T08:30:00.000Z")
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2025, 11, 3, 8, 30, 0, 0, time.UTC), *ts)

	assert.Nil(t, parseVendorTime(""))
	assert.Nil(t, parseVendorTime("not-a-date"))

	dateOnly := parseVendorTime("2025-11-03")
	require.NotNil(t, dateOnly)
	assert.Equal(t, 2025, dateOnly.Year())
}

func TestEngine_Apply_NilPayload(t *testing.T) {
	s := newTestStore(t)
	eng := NewEngine(s)

	_, err := eng.Apply(context.Background(), "tenant-1", nil)
	require.Error(t, err)
}
