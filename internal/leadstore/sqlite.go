package leadstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/finclip/prospector-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	rating       REAL NOT NULL DEFAULT 0,
	review_count INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'new',
	stage        TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(name, city)
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	direction  TEXT NOT NULL,
	body       TEXT NOT NULL,
	sent       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS enrichment_progress (
	lead_id      TEXT PRIMARY KEY REFERENCES leads(id),
	run_id       TEXT NOT NULL,
	processed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_tax_id ON leads(tax_id);
CREATE INDEX IF NOT EXISTS idx_messages_lead_id ON messages(lead_id);
CREATE INDEX IF NOT EXISTS idx_progress_processed_at ON enrichment_progress(processed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertLead inserts a lead, or refreshes the scraped fields of an existing
// one. Leads are identified by (name, city) across imports so re-running an
// import never duplicates; enrichment-owned columns are left untouched on
// conflict.
func (s *SQLiteStore) UpsertLead(ctx context.Context, lead *model.Lead) error {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (id, name, phone, email, website, city, state, address,
			contact_name, contact_role, tax_id, rating, review_count, status, stage,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, city) DO UPDATE SET
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
	return eris.Wrapf(err, "sqlite: upsert lead %s", lead.Name)
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, leadSelect+` WHERE id = ?`, id)
	return scanLead(row)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := leadSelect
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()
	return collectLeads(rows)
}

// ListUnresolved returns leads with no tax id yet, oldest first.
func (s *SQLiteStore) ListUnresolved(ctx context.Context, limit int) ([]model.Lead, error) {
	query := leadSelect + ` WHERE tax_id = '' ORDER BY created_at`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unresolved")
	}
	defer rows.Close()
	return collectLeads(rows)
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead status %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

// ApplyEnrichment writes resolved identity and contact data onto a lead.
// Empty enrichment fields never overwrite values already present.
func (s *SQLiteStore) ApplyEnrichment(ctx context.Context, id string, enr *model.EnrichedLead) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads SET
			tax_id = CASE WHEN ? != '' THEN ? ELSE tax_id END,
			phone = CASE WHEN ? != '' THEN ? ELSE phone END,
			email = CASE WHEN ? != '' THEN ? ELSE email END,
			contact_name = CASE WHEN ? != '' THEN ? ELSE contact_name END,
			contact_role = CASE WHEN ? != '' THEN ? ELSE contact_role END,
			updated_at = ?
		WHERE id = ?`,
		enr.ResolvedID, enr.ResolvedID,
		enr.Phone, enr.Phone,
		enr.Email, enr.Email,
		enr.ContactName, enr.ContactName,
		enr.ContactRole, enr.ContactRole,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: apply enrichment %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func (s *SQLiteStore) StatusCounts(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: status counts")
	}
	defer rows.Close()

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: status counts iterate")
}

func (s *SQLiteStore) MarkProcessed(ctx context.Context, leadID, runID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO enrichment_progress (lead_id, run_id, processed_at) VALUES (?, ?, ?)`,
		leadID, runID, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: mark processed %s", leadID)
}

func (s *SQLiteStore) IsProcessed(ctx context.Context, leadID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrichment_progress WHERE lead_id = ?`, leadID,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: is processed %s", leadID)
	}
	return n > 0, nil
}

func (s *SQLiteStore) CountProcessedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrichment_progress WHERE processed_at >= ?`, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count processed")
	}
	return n, nil
}

func (s *SQLiteStore) AddMessage(ctx context.Context, msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (lead_id, direction, body, sent, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.LeadID, string(msg.Direction), msg.Body, msg.Sent, msg.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: add message for %s", msg.LeadID)
	}
	msg.ID, err = res.LastInsertId()
	return eris.Wrap(err, "sqlite: message id")
}

func (s *SQLiteStore) ListMessages(ctx context.Context, leadID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, direction, body, sent, created_at FROM messages
		 WHERE lead_id = ? ORDER BY created_at, id`, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list messages %s", leadID)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		var direction string
		if err := rows.Scan(&m.ID, &m.LeadID, &direction, &m.Body, &m.Sent, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan message")
		}
		m.Direction = model.MessageDirection(direction)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: messages iterate")
}

// helpers

const leadSelect = `SELECT id, name, phone, email, website, city, state, address,
	contact_name, contact_role, tax_id, rating, review_count, status, stage,
	created_at, updated_at FROM leads`

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var status string
	err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.Website, &l.City, &l.State,
		&l.Address, &l.ContactName, &l.ContactRole, &l.TaxID, &l.Rating, &l.ReviewCount,
		&status, &l.Stage, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("lead not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}
	l.Status = model.LeadStatus(status)
	return &l, nil
}

func collectLeads(rows *sql.Rows) ([]model.Lead, error) {
	var out []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: leads iterate")
}
