package leadstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/finclip/prospector-cli/internal/model"
)

// Pool is the pgxpool surface the store uses. pgxmock satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool. It exists for deployments
// that share the lead base between machines; the sqlite store remains the
// single-operator default.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, mainly for tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	phone        TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	website      TEXT NOT NULL DEFAULT '',
	city         TEXT NOT NULL DEFAULT '',
	state        TEXT NOT NULL DEFAULT '',
	address      TEXT NOT NULL DEFAULT '',
	contact_name TEXT NOT NULL DEFAULT '',
	contact_role TEXT NOT NULL DEFAULT '',
	tax_id       TEXT NOT NULL DEFAULT '',
	rating       DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'new',
	stage        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(name, city)
);

CREATE TABLE IF NOT EXISTS messages (
	id         BIGSERIAL PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	direction  TEXT NOT NULL,
	body       TEXT NOT NULL,
	sent       BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_progress (
	lead_id      TEXT PRIMARY KEY REFERENCES leads(id),
	run_id       TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_tax_id ON leads(tax_id);
CREATE INDEX IF NOT EXISTS idx_messages_lead_id ON messages(lead_id);
CREATE INDEX IF NOT EXISTS idx_progress_processed_at ON enrichment_progress(processed_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = model.StatusNew
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO leads (id, name, phone, email, website, city, state, address,
			contact_name, contact_role, tax_id, rating, review_count, status, stage,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (name, city) DO UPDATE SET
			phone = CASE WHEN excluded.phone != '' THEN excluded.phone ELSE leads.phone END,
			email = CASE WHEN excluded.email != '' THEN excluded.email ELSE leads.email END,
			website = CASE WHEN excluded.website != '' THEN excluded.website ELSE leads.website END,
			state = CASE WHEN excluded.state != '' THEN excluded.state ELSE leads.state END,
			address = CASE WHEN excluded.address != '' THEN excluded.address ELSE leads.address END,
			rating = excluded.rating,
			review_count = excluded.review_count,
			updated_at = excluded.updated_at`,
		lead.ID, lead.Name, lead.Phone, lead.Email, lead.Website, lead.City, lead.State,
		lead.Address, lead.ContactName, lead.ContactRole, lead.TaxID, lead.Rating,
		lead.ReviewCount, string(lead.Status), lead.Stage, lead.CreatedAt, lead.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert lead %s", lead.Name)
}

const pgLeadSelect = `SELECT id, name, phone, email, website, city, state, address,
	contact_name, contact_role, tax_id, rating, review_count, status, stage,
	created_at, updated_at FROM leads`

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, pgLeadSelect+` WHERE id = $1`, id)
	l, err := scanPgLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("lead not found")
	}
	return l, err
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := pgLeadSelect
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at`
	if filter.Limit > 0 {
		query += ` LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()
	return collectPgLeads(rows)
}

func (s *PostgresStore) ListUnresolved(ctx context.Context, limit int) ([]model.Lead, error) {
	query := pgLeadSelect + ` WHERE tax_id = '' ORDER BY created_at`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unresolved")
	}
	defer rows.Close()
	return collectPgLeads(rows)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ApplyEnrichment(ctx context.Context, id string, enr *model.EnrichedLead) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE leads SET
			tax_id = CASE WHEN $1 != '' THEN $1 ELSE tax_id END,
			phone = CASE WHEN $2 != '' THEN $2 ELSE phone END,
			email = CASE WHEN $3 != '' THEN $3 ELSE email END,
			contact_name = CASE WHEN $4 != '' THEN $4 ELSE contact_name END,
			contact_role = CASE WHEN $5 != '' THEN $5 ELSE contact_role END,
			updated_at = $6
		WHERE id = $7`,
		enr.ResolvedID, enr.Phone, enr.Email, enr.ContactName, enr.ContactRole,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: apply enrichment %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) StatusCounts(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: status counts")
	}
	defer rows.Close()

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: status counts iterate")
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, leadID, runID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrichment_progress (lead_id, run_id, processed_at) VALUES ($1, $2, $3)
		ON CONFLICT (lead_id) DO UPDATE SET run_id = excluded.run_id, processed_at = excluded.processed_at`,
		leadID, runID, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: mark processed %s", leadID)
}

func (s *PostgresStore) IsProcessed(ctx context.Context, leadID string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrichment_progress WHERE lead_id = $1`, leadID,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: is processed %s", leadID)
	}
	return n > 0, nil
}

func (s *PostgresStore) CountProcessedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrichment_progress WHERE processed_at >= $1`, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count processed")
	}
	return n, nil
}

func (s *PostgresStore) AddMessage(ctx context.Context, msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (lead_id, direction, body, sent, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		msg.LeadID, string(msg.Direction), msg.Body, msg.Sent, msg.CreatedAt,
	).Scan(&msg.ID)
	return eris.Wrapf(err, "postgres: add message for %s", msg.LeadID)
}

func (s *PostgresStore) ListMessages(ctx context.Context, leadID string) ([]model.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, direction, body, sent, created_at FROM messages
		 WHERE lead_id = $1 ORDER BY created_at, id`, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list messages %s", leadID)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		var direction string
		if err := rows.Scan(&m.ID, &m.LeadID, &direction, &m.Body, &m.Sent, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan message")
		}
		m.Direction = model.MessageDirection(direction)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: messages iterate")
}

// helpers

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func scanPgLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var status string
	err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.Website, &l.City, &l.State,
		&l.Address, &l.ContactName, &l.ContactRole, &l.TaxID, &l.Rating, &l.ReviewCount,
		&status, &l.Stage, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Status = model.LeadStatus(status)
	return &l, nil
}

func collectPgLeads(rows pgx.Rows) ([]model.Lead, error) {
	var out []model.Lead
	for rows.Next() {
		l, err := scanPgLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		out = append(out, *l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: leads iterate")
}
