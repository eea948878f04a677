// Package registry persists the bulk company registry dataset (companies
// and their establishments) in SQLite and serves exact-key and full-text
// lookups over it.
package registry

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/finclip/prospector-cli/internal/cnpj"
	"github.com/finclip/prospector-cli/internal/model"
)

// Establishment is one registered location of a company. Branch order
// "0001" marks the headquarters.
type Establishment struct {
	FullID       string
	BaseID       string
	BranchOrder  string
	TradeName    string
	Status       string
	State        string
	Municipality string
	Phone        string // normalized, "55"-prefixed; "" when absent
	Email        string
}

// Store serves the registry dataset. Bulk loads are exclusive maintenance
// operations; searches must not run concurrently with them.
type Store struct {
	db        *sql.DB
	batchSize int
}

// Option configures a Store.
type Option func(*Store)

// WithBatchSize overrides the bulk-load commit interval (default 50000 rows).
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Open opens (creating if needed) the registry database at path and ensures
// the schema exists. A missing dataset file is not an error: lookups against
// the resulting empty store simply find nothing, which is what callers of an
// unavailable registry must see.
func Open(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			zap.L().Warn("registry: dataset file missing, lookups will return no matches",
				zap.String("path", path),
			)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "registry: exec %s", pragma)
		}
	}

	s := &Store{db: db, batchSize: 50000}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	base_id       TEXT PRIMARY KEY,
	official_name TEXT,
	legal_nature  TEXT,
	capital       TEXT,
	size_class    TEXT
);

CREATE TABLE IF NOT EXISTS establishments (
	full_id       TEXT PRIMARY KEY,
	base_id       TEXT,
	branch_order  TEXT,
	check_digits  TEXT,
	branch_flag   TEXT,
	trade_name    TEXT,
	status        TEXT,
	status_date   TEXT,
	street_type   TEXT,
	street        TEXT,
	number        TEXT,
	complement    TEXT,
	district      TEXT,
	zip           TEXT,
	state         TEXT,
	municipality  TEXT,
	area_code1    TEXT,
	phone1        TEXT,
	area_code2    TEXT,
	phone2        TEXT,
	email         TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS companies_fts USING fts5(
	base_id,
	official_name,
	content='companies'
);

CREATE INDEX IF NOT EXISTS idx_establishments_base_id
	ON establishments(base_id);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return eris.Wrap(err, "registry: migrate")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RebuildIndex fully reconstructs the full-text index from the companies
// table. Must run after any bulk load; there is no incremental path.
func (s *Store) RebuildIndex(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO companies_fts(companies_fts) VALUES('rebuild')`)
	if err != nil {
		return eris.Wrap(err, "registry: rebuild index")
	}
	zap.L().Info("registry: search index rebuilt")
	return nil
}

// SearchByName tokenizes the query into uppercase terms and AND-matches them
// against the full-text index. Candidates come back unranked; scoring is the
// matcher's job. An unavailable or empty dataset yields no candidates, never
// an error the caller has to branch on.
func (s *Store) SearchByName(ctx context.Context, name string, limit int) ([]model.Candidate, error) {
	match := ftsQuery(name)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT base_id, official_name FROM companies_fts WHERE companies_fts MATCH ? LIMIT ?`,
		match, limit,
	)
	if err != nil {
		zap.L().Warn("registry: name search failed, treating as no match", zap.Error(err))
		return nil, nil
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.BaseID, &c.OfficialName); err != nil {
			return nil, eris.Wrap(err, "registry: scan candidate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "registry: search iterate")
}

// ftsQuery turns free text into an FTS5 MATCH expression: normalized
// uppercase tokens, each quoted, implicitly AND-joined.
func ftsQuery(name string) string {
	tokens := strings.Fields(NormalizeName(name))
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// FindEstablishment returns the headquarters establishment for a base id,
// falling back to any branch when no headquarters row exists. Returns nil
// when the company has no establishments at all.
func (s *Store) FindEstablishment(ctx context.Context, baseID string) (*Establishment, error) {
	est, err := s.queryEstablishment(ctx, baseID, true)
	if err != nil {
		return nil, err
	}
	if est == nil {
		est, err = s.queryEstablishment(ctx, baseID, false)
		if err != nil {
			return nil, err
		}
		if est != nil {
			zap.L().Debug("registry: no headquarters row, using branch establishment",
				zap.String("base_id", baseID),
			)
		}
	}
	return est, nil
}

func (s *Store) queryEstablishment(ctx context.Context, baseID string, matrixOnly bool) (*Establishment, error) {
	query := `SELECT full_id, base_id, branch_order, trade_name, status, state, municipality,
		area_code1, phone1, area_code2, phone2, email
		FROM establishments WHERE base_id = ?`
	args := []any{baseID}
	if matrixOnly {
		query += ` AND branch_order = ?`
		args = append(args, cnpj.MatrixBranch)
	}
	query += ` LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)

	var est Establishment
	var area1, phone1, area2, phone2 sql.NullString
	err := row.Scan(&est.FullID, &est.BaseID, &est.BranchOrder, &est.TradeName, &est.Status,
		&est.State, &est.Municipality, &area1, &phone1, &area2, &phone2, &est.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		zap.L().Warn("registry: establishment lookup failed, treating as not found", zap.Error(err))
		return nil, nil
	}

	est.Phone = model.NormalizePhone(area1.String, phone1.String)
	if est.Phone == "" {
		est.Phone = model.NormalizePhone(area2.String, phone2.String)
	}
	return &est, nil
}

// Counts returns the number of loaded companies and establishments.
func (s *Store) Counts(ctx context.Context) (companies, establishments int64, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&companies); err != nil {
		return 0, 0, eris.Wrap(err, "registry: count companies")
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM establishments`).Scan(&establishments); err != nil {
		return 0, 0, eris.Wrap(err, "registry: count establishments")
	}
	return companies, establishments, nil
}
