package registry

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/finclip/prospector-cli/internal/cnpj"
)

// LoadStats summarizes one bulk load.
type LoadStats struct {
	Rows    int64
	Skipped int64
}

// LoadCompanies streams a zipped companies dump into the store. The dump is
// semicolon-delimited Latin-1 with no header row. Rows are upserted, so
// re-running a load is idempotent. Call RebuildIndex afterwards.
func (s *Store) LoadCompanies(ctx context.Context, zipPath string) (LoadStats, error) {
	return s.load(ctx, zipPath, 6, `INSERT OR REPLACE INTO companies
		(base_id, official_name, legal_nature, capital, size_class)
		VALUES (?, ?, ?, ?, ?)`,
		func(rec []string) []any {
			return []any{
				rec[0],
				NormalizeName(rec[1]),
				rec[2],
				rec[4],
				rec[5],
			}
		})
}

// LoadEstablishments streams a zipped establishments dump into the store.
// Rows with fewer than 20 columns are counted as skipped, not fatal; the
// published dumps contain the occasional truncated line.
func (s *Store) LoadEstablishments(ctx context.Context, zipPath string) (LoadStats, error) {
	return s.load(ctx, zipPath, 20, `INSERT OR REPLACE INTO establishments
		(full_id, base_id, branch_order, check_digits, branch_flag, trade_name,
		 status, status_date, street_type, street, number, complement, district,
		 zip, state, municipality, area_code1, phone1, area_code2, phone2, email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		func(rec []string) []any {
			return []any{
				cnpj.FullID(rec[0], rec[1], rec[2]),
				rec[0],
				rec[1],
				rec[2],
				rec[3],
				NormalizeName(rec[4]),
				rec[5],
				rec[6],
				field(rec, 13),
				field(rec, 14),
				field(rec, 15),
				field(rec, 16),
				field(rec, 17),
				field(rec, 18),
				field(rec, 19),
				field(rec, 20),
				field(rec, 21),
				field(rec, 22),
				field(rec, 23),
				field(rec, 24),
				strings.ToLower(field(rec, 26)),
			}
		})
}

// field tolerates short rows past the minimum column guard.
func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

func (s *Store) load(ctx context.Context, zipPath string, minCols int, insert string, bind func([]string) []any) (LoadStats, error) {
	var stats LoadStats

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return stats, eris.Wrapf(err, "registry: open zip %s", zipPath)
	}
	defer zr.Close()

	var entry *zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			entry = f
			break
		}
	}
	if entry == nil {
		return stats, eris.Errorf("registry: zip %s contains no files", zipPath)
	}

	rc, err := entry.Open()
	if err != nil {
		return stats, eris.Wrap(err, "registry: open zip entry")
	}
	defer rc.Close()

	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(rc))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	tx, err := s.db.Begin()
	if err != nil {
		return stats, eris.Wrap(err, "registry: begin load tx")
	}
	stmt, err := tx.Prepare(insert)
	if err != nil {
		tx.Rollback()
		return stats, eris.Wrap(err, "registry: prepare load stmt")
	}

	for {
		if err := ctx.Err(); err != nil {
			stmt.Close()
			tx.Rollback()
			return stats, eris.Wrap(err, "registry: load canceled")
		}

		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Skipped++
			continue
		}
		if len(rec) < minCols {
			stats.Skipped++
			continue
		}

		if _, err := stmt.Exec(bind(rec)...); err != nil {
			stmt.Close()
			tx.Rollback()
			return stats, eris.Wrap(err, "registry: insert row")
		}
		stats.Rows++

		if stats.Rows%int64(s.batchSize) == 0 {
			if tx, stmt, err = s.rotateTx(tx, stmt, insert); err != nil {
				return stats, err
			}
			zap.L().Info("registry: load progress",
				zap.String("file", entry.Name),
				zap.Int64("rows", stats.Rows),
			)
		}
	}

	stmt.Close()
	if err := tx.Commit(); err != nil {
		return stats, eris.Wrap(err, "registry: commit load")
	}

	zap.L().Info("registry: load complete",
		zap.String("file", entry.Name),
		zap.Int64("rows", stats.Rows),
		zap.Int64("skipped", stats.Skipped),
	)
	return stats, nil
}

// rotateTx commits the running batch and opens a fresh transaction with the
// same prepared statement.
func (s *Store) rotateTx(tx *sql.Tx, stmt *sql.Stmt, insert string) (*sql.Tx, *sql.Stmt, error) {
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return nil, nil, eris.Wrap(err, "registry: commit batch")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, eris.Wrap(err, "registry: begin batch tx")
	}
	stmt, err = tx.Prepare(insert)
	if err != nil {
		tx.Rollback()
		return nil, nil, eris.Wrap(err, "registry: prepare batch stmt")
	}
	return tx, stmt, nil
}
