package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dealerpulse/reviews-cli/internal/model"
)

// sqlQuerier is the subset of database/sql operations shared by *sql.DB and
// *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store using modernc.org/sqlite. It is intended for
// local development and tests; production deployments use Postgres.
type SQLiteStore struct {
	db *sql.DB
	q  sqlQuerier
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// The reconciliation transaction assumes a single writer.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, q: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS tenants (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	place_url  TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS businesses (
	id                 TEXT PRIMARY KEY,
	tenant_id          TEXT NOT NULL REFERENCES tenants(id),
	place_id           TEXT UNIQUE,
	name               TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	city               TEXT NOT NULL DEFAULT '',
	postal_code        TEXT NOT NULL DEFAULT '',
	lat                REAL NOT NULL DEFAULT 0,
	lng                REAL NOT NULL DEFAULT 0,
	phone              TEXT NOT NULL DEFAULT '',
	website            TEXT NOT NULL DEFAULT '',
	rating             REAL NOT NULL DEFAULT 0,
	review_count       INTEGER NOT NULL DEFAULT 0,
	image_count        INTEGER NOT NULL DEFAULT 0,
	opening_hours      TEXT,
	score_distribution TEXT,
	categories         TEXT,
	raw_payload        TEXT,
	scrape_status      TEXT NOT NULL DEFAULT 'success',
	scraped_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_businesses_tenant ON businesses(tenant_id);

CREATE TABLE IF NOT EXISTS reviews (
	id                  TEXT PRIMARY KEY,
	tenant_id           TEXT NOT NULL REFERENCES tenants(id),
	business_id         TEXT NOT NULL REFERENCES businesses(id),
	review_id           TEXT UNIQUE,
	reviewer_name       TEXT NOT NULL DEFAULT '',
	reviewer_id         TEXT NOT NULL DEFAULT '',
	reviewer_url        TEXT NOT NULL DEFAULT '',
	reviewer_photo_url  TEXT NOT NULL DEFAULT '',
	rating              REAL NOT NULL DEFAULT 0,
	text                TEXT NOT NULL DEFAULT '',
	text_translated     TEXT NOT NULL DEFAULT '',
	published_at        DATETIME,
	owner_reply         TEXT NOT NULL DEFAULT '',
	owner_reply_at      DATETIME,
	sentiment_label     TEXT NOT NULL DEFAULT '',
	sentiment_score     REAL,
	sentiment_reason    TEXT NOT NULL DEFAULT '',
	sentiment_tags      TEXT,
	analyzed_at         DATETIME,
	enrichment_batch_id TEXT NOT NULL DEFAULT '',
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reviews_business ON reviews(business_id);
CREATE INDEX IF NOT EXISTS idx_reviews_tenant ON reviews(tenant_id);

CREATE TABLE IF NOT EXISTS scrape_audits (
	id                    TEXT PRIMARY KEY,
	tenant_id             TEXT NOT NULL,
	requested_by          TEXT NOT NULL DEFAULT '',
	max_reviews           INTEGER NOT NULL DEFAULT 0,
	language              TEXT NOT NULL DEFAULT '',
	status                TEXT NOT NULL DEFAULT 'processing',
	place_id              TEXT NOT NULL DEFAULT '',
	business_name         TEXT NOT NULL DEFAULT '',
	rating                REAL NOT NULL DEFAULT 0,
	total_reviews         INTEGER NOT NULL DEFAULT 0,
	scraped_count         INTEGER NOT NULL DEFAULT 0,
	new_count             INTEGER NOT NULL DEFAULT 0,
	duplicate_count       INTEGER NOT NULL DEFAULT 0,
	error_message         TEXT NOT NULL DEFAULT '',
	warning_message       TEXT NOT NULL DEFAULT '',
	auto_analyze          INTEGER NOT NULL DEFAULT 0,
	analysis_status       TEXT,
	analyzed_count        INTEGER NOT NULL DEFAULT 0,
	analysis_failed_count INTEGER NOT NULL DEFAULT 0,
	analysis_duration     REAL NOT NULL DEFAULT 0,
	started_at            DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at          DATETIME,
	duration              REAL NOT NULL DEFAULT 0,
	created_at            DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scrape_audits_tenant ON scrape_audits(tenant_id, created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.q.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return eris.Wrap(s.db.Close(), "sqlite: close")
	}
	return nil
}

// InTx runs fn against a transaction-scoped copy of the store.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	txStore := &SQLiteStore{db: s.db, q: tx}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit tx")
	}
	return nil
}

// -- Tenants --

func (s *SQLiteStore) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(place_url, ''), created_at FROM tenants WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Name, &t.PlaceURL, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: tenant %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get tenant")
	}
	return &t, nil
}

func (s *SQLiteStore) UpsertTenant(ctx context.Context, t *model.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO tenants (id, name, place_url, created_at) VALUES (?, ?, NULLIF(?, ''), ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, place_url = excluded.place_url`,
		t.ID, t.Name, t.PlaceURL, t.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: upsert tenant")
}

// -- Businesses --

const sqliteBusinessColumns = `id, tenant_id, COALESCE(place_id, ''), name, category, address, city,
	postal_code, lat, lng, phone, website, rating, review_count, image_count,
	opening_hours, score_distribution, categories, raw_payload,
	scrape_status, scraped_at, created_at, updated_at`

// sqlRow matches both *sql.Row and *sql.Rows.
type sqlRow interface {
	Scan(dest ...any) error
}

func scanSQLiteBusiness(row sqlRow) (*model.Business, error) {
	var b model.Business
	err := row.Scan(
		&b.ID, &b.TenantID, &b.PlaceID, &b.Name, &b.Category, &b.Address, &b.City,
		&b.PostalCode, &b.Lat, &b.Lng, &b.Phone, &b.Website, &b.Rating, &b.ReviewCount, &b.ImageCount,
		&b.OpeningHours, &b.ScoreDistribution, &b.Categories, &b.RawPayload,
		&b.ScrapeStatus, &b.ScrapedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *SQLiteStore) GetBusinessByPlaceID(ctx context.Context, placeID string) (*model.Business, error) {
	if placeID == "" {
		return nil, nil
	}
	b, err := scanSQLiteBusiness(s.q.QueryRowContext(ctx,
		`SELECT `+sqliteBusinessColumns+` FROM businesses WHERE place_id = ?`,
		placeID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get business by place id")
	}
	return b, nil
}

func (s *SQLiteStore) InsertBusiness(ctx context.Context, b *model.Business) error {
	now := time.Now().UTC()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO businesses (id, tenant_id, place_id, name, category, address, city,
			postal_code, lat, lng, phone, website, rating, review_count, image_count,
			opening_hours, score_distribution, categories, raw_payload,
			scrape_status, scraped_at, created_at, updated_at)
		 VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TenantID, b.PlaceID, b.Name, b.Category, b.Address, b.City,
		b.PostalCode, b.Lat, b.Lng, b.Phone, b.Website, b.Rating, b.ReviewCount, b.ImageCount,
		[]byte(b.OpeningHours), []byte(b.ScoreDistribution), []byte(b.Categories), []byte(b.RawPayload),
		string(b.ScrapeStatus), b.ScrapedAt, b.CreatedAt, b.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert business")
}

func (s *SQLiteStore) UpdateBusiness(ctx context.Context, b *model.Business) error {
	b.UpdatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE businesses SET tenant_id = ?, name = ?, category = ?, address = ?, city = ?,
			postal_code = ?, lat = ?, lng = ?, phone = ?, website = ?,
			rating = ?, review_count = ?, image_count = ?,
			opening_hours = ?, score_distribution = ?, categories = ?, raw_payload = ?,
			scrape_status = ?, scraped_at = ?, updated_at = ?
		 WHERE id = ?`,
		b.TenantID, b.Name, b.Category, b.Address, b.City,
		b.PostalCode, b.Lat, b.Lng, b.Phone, b.Website,
		b.Rating, b.ReviewCount, b.ImageCount,
		[]byte(b.OpeningHours), []byte(b.ScoreDistribution), []byte(b.Categories), []byte(b.RawPayload),
		string(b.ScrapeStatus), b.ScrapedAt, b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update business")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: business %s", b.ID)
	}
	return nil
}

func (s *SQLiteStore) ListFailedBusinesses(ctx context.Context, tenantID string) ([]model.Business, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+sqliteBusinessColumns+` FROM businesses
		 WHERE tenant_id = ? AND scrape_status = 'failed'
		 ORDER BY created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list failed businesses")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		b, err := scanSQLiteBusiness(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan failed business")
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate failed businesses")
}

// -- Reviews --

func (s *SQLiteStore) ExistingReviewIDs(ctx context.Context, vendorIDs []string) (map[string]string, error) {
	existing := make(map[string]string, len(vendorIDs))
	if len(vendorIDs) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(vendorIDs)), ",")
	args := make([]any, len(vendorIDs))
	for i, id := range vendorIDs {
		args[i] = id
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT review_id, id FROM reviews WHERE review_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query existing review ids")
	}
	defer rows.Close()

	for rows.Next() {
		var vendorID, rowID string
		if err := rows.Scan(&vendorID, &rowID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan review id")
		}
		existing[vendorID] = rowID
	}
	return existing, eris.Wrap(rows.Err(), "sqlite: iterate review ids")
}

func (s *SQLiteStore) InsertReview(ctx context.Context, r *model.Review) error {
	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO reviews (id, tenant_id, business_id, review_id,
			reviewer_name, reviewer_id, reviewer_url, reviewer_photo_url,
			rating, text, text_translated, published_at, owner_reply, owner_reply_at,
			created_at, updated_at)
		 VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TenantID, r.BusinessID, r.ReviewID,
		r.ReviewerName, r.ReviewerID, r.ReviewerURL, r.ReviewerPhotoURL,
		r.Rating, r.Text, r.TextTranslated, r.PublishedAt, r.OwnerReply, r.OwnerReplyAt,
		r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert review")
}

func (s *SQLiteStore) UpdateReviewContent(ctx context.Context, r *model.Review) error {
	r.UpdatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE reviews SET reviewer_name = ?, reviewer_id = ?, reviewer_url = ?,
			reviewer_photo_url = ?, rating = ?, text = ?, text_translated = ?,
			published_at = ?, owner_reply = ?, owner_reply_at = ?, updated_at = ?
		 WHERE id = ?`,
		r.ReviewerName, r.ReviewerID, r.ReviewerURL,
		r.ReviewerPhotoURL, r.Rating, r.Text, r.TextTranslated,
		r.PublishedAt, r.OwnerReply, r.OwnerReplyAt, r.UpdatedAt,
		r.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update review")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: review %s", r.ID)
	}
	return nil
}

func (s *SQLiteStore) CountReviews(ctx context.Context, businessID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE business_id = ?`,
		businessID,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count reviews")
}

// -- Audits --

const sqliteAuditColumns = `id, tenant_id, requested_by, max_reviews, language, status,
	place_id, business_name, rating, total_reviews, scraped_count, new_count, duplicate_count,
	error_message, warning_message, auto_analyze,
	COALESCE(analysis_status, ''), analyzed_count, analysis_failed_count, analysis_duration,
	started_at, completed_at, duration, created_at, updated_at`

func scanSQLiteAudit(row sqlRow) (*model.ScrapeAudit, error) {
	var a model.ScrapeAudit
	err := row.Scan(
		&a.ID, &a.TenantID, &a.RequestedBy, &a.MaxReviews, &a.Language, &a.Status,
		&a.PlaceID, &a.BusinessName, &a.Rating, &a.TotalReviews, &a.ScrapedCount, &a.NewCount, &a.DuplicateCount,
		&a.ErrorMessage, &a.WarningMessage, &a.AutoAnalyze,
		&a.AnalysisStatus, &a.AnalyzedCount, &a.AnalysisFailedCount, &a.AnalysisDuration,
		&a.StartedAt, &a.CompletedAt, &a.Duration, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) CreateAudit(ctx context.Context, a *model.ScrapeAudit) error {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = now
	}
	if a.Status == "" {
		a.Status = model.AuditStatusProcessing
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO scrape_audits (id, tenant_id, requested_by, max_reviews, language, status,
			auto_analyze, analysis_status, started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?)`,
		a.ID, a.TenantID, a.RequestedBy, a.MaxReviews, a.Language, string(a.Status),
		a.AutoAnalyze, string(a.AnalysisStatus), a.StartedAt, a.CreatedAt, a.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert audit")
}

func (s *SQLiteStore) GetAudit(ctx context.Context, id string) (*model.ScrapeAudit, error) {
	a, err := scanSQLiteAudit(s.q.QueryRowContext(ctx,
		`SELECT `+sqliteAuditColumns+` FROM scrape_audits WHERE id = ?`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: audit %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get audit")
	}
	return a, nil
}

func (s *SQLiteStore) ListAudits(ctx context.Context, tenantID string, filter AuditFilter) ([]model.ScrapeAudit, error) {
	query := `SELECT ` + sqliteAuditColumns + ` FROM scrape_audits WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audits")
	}
	defer rows.Close()

	var out []model.ScrapeAudit
	for rows.Next() {
		a, err := scanSQLiteAudit(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate audits")
}

func (s *SQLiteStore) RecentAudits(ctx context.Context, since time.Time, limit int) ([]model.ScrapeAudit, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+sqliteAuditColumns+` FROM scrape_audits
		 WHERE created_at >= ?
		 ORDER BY created_at DESC LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent audits")
	}
	defer rows.Close()

	var out []model.ScrapeAudit
	for rows.Next() {
		a, err := scanSQLiteAudit(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recent audit")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate recent audits")
}

func (s *SQLiteStore) CompleteAudit(ctx context.Context, id string, out model.AuditOutcome, completedAt time.Time, durationSecs float64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE scrape_audits SET status = ?, place_id = ?, business_name = ?, rating = ?,
			total_reviews = ?, scraped_count = ?, new_count = ?, duplicate_count = ?,
			completed_at = ?, duration = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(model.AuditStatusCompleted), out.PlaceID, out.BusinessName, out.Rating,
		out.TotalReviews, out.ScrapedCount, out.NewCount, out.DuplicateCount,
		completedAt, durationSecs, time.Now().UTC(),
		id, string(model.AuditStatusProcessing),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: complete audit")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("sqlite: audit %s is not in processing state", id)
	}
	return nil
}

func (s *SQLiteStore) FailAudit(ctx context.Context, id, reason string, completedAt time.Time, durationSecs float64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE scrape_audits SET status = ?, error_message = ?,
			completed_at = ?, duration = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(model.AuditStatusFailed), reason,
		completedAt, durationSecs, time.Now().UTC(),
		id, string(model.AuditStatusProcessing),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: fail audit")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("sqlite: audit %s is not in processing state", id)
	}
	return nil
}

func (s *SQLiteStore) SetAuditAnalysis(ctx context.Context, id string, update AnalysisUpdate) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE scrape_audits SET analysis_status = ?, analyzed_count = ?,
			analysis_failed_count = ?, analysis_duration = ?,
			warning_message = CASE WHEN ? <> '' THEN ? ELSE warning_message END,
			updated_at = ?
		 WHERE id = ?`,
		string(update.Status), update.AnalyzedCount,
		update.FailedCount, update.DurationSecs,
		update.Warning, update.Warning,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: set audit analysis")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: audit %s", id)
	}
	return nil
}
