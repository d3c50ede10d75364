package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dealerpulse/reviews-cli/internal/model"
)

// Querier is the subset of pgx operations shared by a pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool abstracts *pgxpool.Pool so tests can substitute pgxmock.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
	q    Querier // pool by default, a pgx.Tx inside InTx
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, q: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests (pgxmock) and by
// callers that manage the pool lifecycle themselves.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS tenants (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	place_url  TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
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
	lat                DOUBLE PRECISION NOT NULL DEFAULT 0,
	lng                DOUBLE PRECISION NOT NULL DEFAULT 0,
	phone              TEXT NOT NULL DEFAULT '',
	website            TEXT NOT NULL DEFAULT '',
	rating             DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count       INTEGER NOT NULL DEFAULT 0,
	image_count        INTEGER NOT NULL DEFAULT 0,
	opening_hours      JSONB,
	score_distribution JSONB,
	categories         JSONB,
	raw_payload        JSONB,
	scrape_status      TEXT NOT NULL DEFAULT 'success',
	scraped_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
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
	rating              DOUBLE PRECISION NOT NULL DEFAULT 0,
	text                TEXT NOT NULL DEFAULT '',
	text_translated     TEXT NOT NULL DEFAULT '',
	published_at        TIMESTAMPTZ,
	owner_reply         TEXT NOT NULL DEFAULT '',
	owner_reply_at      TIMESTAMPTZ,
	sentiment_label     TEXT NOT NULL DEFAULT '',
	sentiment_score     DOUBLE PRECISION,
	sentiment_reason    TEXT NOT NULL DEFAULT '',
	sentiment_tags      JSONB,
	analyzed_at         TIMESTAMPTZ,
	enrichment_batch_id TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
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
	rating                DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_reviews         INTEGER NOT NULL DEFAULT 0,
	scraped_count         INTEGER NOT NULL DEFAULT 0,
	new_count             INTEGER NOT NULL DEFAULT 0,
	duplicate_count       INTEGER NOT NULL DEFAULT 0,
	error_message         TEXT NOT NULL DEFAULT '',
	warning_message       TEXT NOT NULL DEFAULT '',
	auto_analyze          BOOLEAN NOT NULL DEFAULT false,
	analysis_status       TEXT,
	analyzed_count        INTEGER NOT NULL DEFAULT 0,
	analysis_failed_count INTEGER NOT NULL DEFAULT 0,
	analysis_duration     DOUBLE PRECISION NOT NULL DEFAULT 0,
	started_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at          TIMESTAMPTZ,
	duration              DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scrape_audits_tenant ON scrape_audits(tenant_id, created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.q.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// InTx runs fn against a transaction-scoped copy of the store.
func (s *PostgresStore) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	txStore := &PostgresStore{pool: s.pool, q: tx}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit tx")
	}
	return nil
}

// -- Tenants --

func (s *PostgresStore) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	err := s.q.QueryRow(ctx,
		`SELECT id, name, COALESCE(place_url, ''), created_at FROM tenants WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.PlaceURL, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: tenant %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get tenant")
	}
	return &t, nil
}

func (s *PostgresStore) UpsertTenant(ctx context.Context, t *model.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.Exec(ctx,
		`INSERT INTO tenants (id, name, place_url, created_at) VALUES ($1, $2, NULLIF($3, ''), $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, place_url = EXCLUDED.place_url`,
		t.ID, t.Name, t.PlaceURL, t.CreatedAt,
	)
	return eris.Wrap(err, "postgres: upsert tenant")
}

// -- Businesses --

const businessColumns = `id, tenant_id, COALESCE(place_id, ''), name, category, address, city,
	postal_code, lat, lng, phone, website, rating, review_count, image_count,
	opening_hours, score_distribution, categories, raw_payload,
	scrape_status, scraped_at, created_at, updated_at`

func scanBusiness(row pgx.Row) (*model.Business, error) {
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

func (s *PostgresStore) GetBusinessByPlaceID(ctx context.Context, placeID string) (*model.Business, error) {
	if placeID == "" {
		return nil, nil
	}
	b, err := scanBusiness(s.q.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE place_id = $1`,
		placeID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get business by place id")
	}
	return b, nil
}

func (s *PostgresStore) InsertBusiness(ctx context.Context, b *model.Business) error {
	now := time.Now().UTC()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := s.q.Exec(ctx,
		`INSERT INTO businesses (id, tenant_id, place_id, name, category, address, city,
			postal_code, lat, lng, phone, website, rating, review_count, image_count,
			opening_hours, score_distribution, categories, raw_payload,
			scrape_status, scraped_at, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23)`,
		b.ID, b.TenantID, b.PlaceID, b.Name, b.Category, b.Address, b.City,
		b.PostalCode, b.Lat, b.Lng, b.Phone, b.Website, b.Rating, b.ReviewCount, b.ImageCount,
		[]byte(b.OpeningHours), []byte(b.ScoreDistribution), []byte(b.Categories), []byte(b.RawPayload),
		string(b.ScrapeStatus), b.ScrapedAt, b.CreatedAt, b.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert business")
}

func (s *PostgresStore) UpdateBusiness(ctx context.Context, b *model.Business) error {
	b.UpdatedAt = time.Now().UTC()
	tag, err := s.q.Exec(ctx,
		`UPDATE businesses SET tenant_id = $1, name = $2, category = $3, address = $4, city = $5,
			postal_code = $6, lat = $7, lng = $8, phone = $9, website = $10,
			rating = $11, review_count = $12, image_count = $13,
			opening_hours = $14, score_distribution = $15, categories = $16, raw_payload = $17,
			scrape_status = $18, scraped_at = $19, updated_at = $20
		 WHERE id = $21`,
		b.TenantID, b.Name, b.Category, b.Address, b.City,
		b.PostalCode, b.Lat, b.Lng, b.Phone, b.Website,
		b.Rating, b.ReviewCount, b.ImageCount,
		[]byte(b.OpeningHours), []byte(b.ScoreDistribution), []byte(b.Categories), []byte(b.RawPayload),
		string(b.ScrapeStatus), b.ScrapedAt, b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update business")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: business %s", b.ID)
	}
	return nil
}

func (s *PostgresStore) ListFailedBusinesses(ctx context.Context, tenantID string) ([]model.Business, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+businessColumns+` FROM businesses
		 WHERE tenant_id = $1 AND scrape_status = 'failed'
		 ORDER BY created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list failed businesses")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan failed business")
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate failed businesses")
}

// -- Reviews --

func (s *PostgresStore) ExistingReviewIDs(ctx context.Context, vendorIDs []string) (map[string]string, error) {
	existing := make(map[string]string, len(vendorIDs))
	if len(vendorIDs) == 0 {
		return existing, nil
	}

	rows, err := s.q.Query(ctx,
		`SELECT review_id, id FROM reviews WHERE review_id = ANY($1)`,
		vendorIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query existing review ids")
	}
	defer rows.Close()

	for rows.Next() {
		var vendorID, rowID string
		if err := rows.Scan(&vendorID, &rowID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan review id")
		}
		existing[vendorID] = rowID
	}
	return existing, eris.Wrap(rows.Err(), "postgres: iterate review ids")
}

func (s *PostgresStore) InsertReview(ctx context.Context, r *model.Review) error {
	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	_, err := s.q.Exec(ctx,
		`INSERT INTO reviews (id, tenant_id, business_id, review_id,
			reviewer_name, reviewer_id, reviewer_url, reviewer_photo_url,
			rating, text, text_translated, published_at, owner_reply, owner_reply_at,
			created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		r.ID, r.TenantID, r.BusinessID, r.ReviewID,
		r.ReviewerName, r.ReviewerID, r.ReviewerURL, r.ReviewerPhotoURL,
		r.Rating, r.Text, r.TextTranslated, r.PublishedAt, r.OwnerReply, r.OwnerReplyAt,
		r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert review")
}

// UpdateReviewContent overwrites the content fields of an existing review.
// Enrichment fields are owned by the background stage and left untouched.
func (s *PostgresStore) UpdateReviewContent(ctx context.Context, r *model.Review) error {
	r.UpdatedAt = time.Now().UTC()
	tag, err := s.q.Exec(ctx,
		`UPDATE reviews SET reviewer_name = $1, reviewer_id = $2, reviewer_url = $3,
			reviewer_photo_url = $4, rating = $5, text = $6, text_translated = $7,
			published_at = $8, owner_reply = $9, owner_reply_at = $10, updated_at = $11
		 WHERE id = $12`,
		r.ReviewerName, r.ReviewerID, r.ReviewerURL,
		r.ReviewerPhotoURL, r.Rating, r.Text, r.TextTranslated,
		r.PublishedAt, r.OwnerReply, r.OwnerReplyAt, r.UpdatedAt,
		r.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update review")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: review %s", r.ID)
	}
	return nil
}

func (s *PostgresStore) CountReviews(ctx context.Context, businessID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE business_id = $1`,
		businessID,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count reviews")
}

// -- Audits --

const auditColumns = `id, tenant_id, requested_by, max_reviews, language, status,
	place_id, business_name, rating, total_reviews, scraped_count, new_count, duplicate_count,
	error_message, warning_message, auto_analyze,
	COALESCE(analysis_status, ''), analyzed_count, analysis_failed_count, analysis_duration,
	started_at, completed_at, duration, created_at, updated_at`

func scanAudit(row pgx.Row) (*model.ScrapeAudit, error) {
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

func (s *PostgresStore) CreateAudit(ctx context.Context, a *model.ScrapeAudit) error {
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

	_, err := s.q.Exec(ctx,
		`INSERT INTO scrape_audits (id, tenant_id, requested_by, max_reviews, language, status,
			auto_analyze, analysis_status, started_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11)`,
		a.ID, a.TenantID, a.RequestedBy, a.MaxReviews, a.Language, string(a.Status),
		a.AutoAnalyze, string(a.AnalysisStatus), a.StartedAt, a.CreatedAt, a.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert audit")
}

func (s *PostgresStore) GetAudit(ctx context.Context, id string) (*model.ScrapeAudit, error) {
	a, err := scanAudit(s.q.QueryRow(ctx,
		`SELECT `+auditColumns+` FROM scrape_audits WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: audit %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get audit")
	}
	return a, nil
}

func (s *PostgresStore) ListAudits(ctx context.Context, tenantID string, filter AuditFilter) ([]model.ScrapeAudit, error) {
	sql := `SELECT ` + auditColumns + ` FROM scrape_audits WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		sql += ` AND status = $2`
	}
	sql += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	sql += ` LIMIT $` + strconv.Itoa(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sql += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list audits")
	}
	defer rows.Close()

	var out []model.ScrapeAudit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate audits")
}

// RecentAudits returns audits across all tenants created at or after since,
// newest first. Used by the monitoring collector.
func (s *PostgresStore) RecentAudits(ctx context.Context, since time.Time, limit int) ([]model.ScrapeAudit, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+auditColumns+` FROM scrape_audits
		 WHERE created_at >= $1
		 ORDER BY created_at DESC LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent audits")
	}
	defer rows.Close()

	var out []model.ScrapeAudit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan recent audit")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate recent audits")
}

// CompleteAudit transitions a processing audit to completed and writes the
// scrape-outcome metrics. The WHERE clause enforces the monotonic state
// machine: terminal rows are never rewritten.
func (s *PostgresStore) CompleteAudit(ctx context.Context, id string, out model.AuditOutcome, completedAt time.Time, durationSecs float64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE scrape_audits SET status = $1, place_id = $2, business_name = $3, rating = $4,
			total_reviews = $5, scraped_count = $6, new_count = $7, duplicate_count = $8,
			completed_at = $9, duration = $10, updated_at = $11
		 WHERE id = $12 AND status = $13`,
		string(model.AuditStatusCompleted), out.PlaceID, out.BusinessName, out.Rating,
		out.TotalReviews, out.ScrapedCount, out.NewCount, out.DuplicateCount,
		completedAt, durationSecs, time.Now().UTC(),
		id, string(model.AuditStatusProcessing),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: complete audit")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: audit %s is not in processing state", id)
	}
	return nil
}

// FailAudit transitions a processing audit to failed with a terminal reason.
func (s *PostgresStore) FailAudit(ctx context.Context, id, reason string, completedAt time.Time, durationSecs float64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE scrape_audits SET status = $1, error_message = $2,
			completed_at = $3, duration = $4, updated_at = $5
		 WHERE id = $6 AND status = $7`,
		string(model.AuditStatusFailed), reason,
		completedAt, durationSecs, time.Now().UTC(),
		id, string(model.AuditStatusProcessing),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: fail audit")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: audit %s is not in processing state", id)
	}
	return nil
}

// SetAuditAnalysis writes only the enrichment sub-state fields. It is legal
// after the audit has reached a terminal scrape state.
func (s *PostgresStore) SetAuditAnalysis(ctx context.Context, id string, update AnalysisUpdate) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE scrape_audits SET analysis_status = $1, analyzed_count = $2,
			analysis_failed_count = $3, analysis_duration = $4,
			warning_message = CASE WHEN $5 <> '' THEN $5 ELSE warning_message END,
			updated_at = $6
		 WHERE id = $7`,
		string(update.Status), update.AnalyzedCount,
		update.FailedCount, update.DurationSecs,
		update.Warning,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: set audit analysis")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: audit %s", id)
	}
	return nil
}

