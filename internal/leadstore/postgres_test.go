package leadstore

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finclip/prospector-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_UpsertLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(pgxmock.AnyArg(), "Padaria São João", "", "", "", "João Pessoa", "", "",
			"", "", "", 0.0, 0, "new", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	lead := &model.Lead{Name: "Padaria São João", City: "João Pessoa"}
	require.NoError(t, s.UpsertLead(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM leads WHERE id`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := s.GetLead(context.Background(), "missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListUnresolved(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "name", "phone", "email", "website", "city", "state", "address",
		"contact_name", "contact_role", "tax_id", "rating", "review_count",
		"status", "stage", "created_at", "updated_at",
	}).AddRow("l1", "Empresa A", "", "", "", "Recife", "PE", "",
		"", "", "", 0.0, 0, "new", "", now, now)

	mock.ExpectQuery(`SELECT .* FROM leads WHERE tax_id = ''`).
		WithArgs(10).
		WillReturnRows(rows)

	leads, err := s.ListUnresolved(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Empresa A", leads[0].Name)
	assert.Equal(t, model.StatusNew, leads[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApplyEnrichment_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET`).
		WithArgs("11222333000181", "", "", "", "", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.ApplyEnrichment(context.Background(), "missing",
		&model.EnrichedLead{ResolvedID: "11222333000181"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkProcessedAndCount(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO enrichment_progress`).
		WithArgs("l1", "run-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM enrichment_progress WHERE processed_at`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	require.NoError(t, s.MarkProcessed(context.Background(), "l1", "run-1"))

	n, err := s.CountProcessedSince(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddMessage(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs("l1", "outbound", "Olá!", false, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	msg := &model.Message{LeadID: "l1", Direction: model.DirectionOutbound, Body: "Olá!"}
	require.NoError(t, s.AddMessage(context.Background(), msg))
	assert.Equal(t, int64(7), msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
