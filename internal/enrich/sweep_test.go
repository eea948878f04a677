package enrich

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finclip/prospector-cli/internal/leadstore"
	"github.com/finclip/prospector-cli/internal/model"
)

// nameResolver resolves only leads whose name appears in ids.
type nameResolver struct {
	ids map[string]string
}

func (r *nameResolver) Name() string { return "registry" }

func (r *nameResolver) Resolve(ctx context.Context, lead model.Lead) (*Resolution, error) {
	id, ok := r.ids[lead.Name]
	if !ok {
		return nil, nil
	}
	return &Resolution{ID: id}, nil
}

func newSweepStore(t *testing.T, names ...string) *leadstore.SQLiteStore {
	t.Helper()
	s, err := leadstore.NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	for _, name := range names {
		require.NoError(t, s.UpsertLead(context.Background(), &model.Lead{Name: name, City: "Recife"}))
	}
	return s
}

func TestSweepResolvesAndRecords(t *testing.T) {
	store := newSweepStore(t, "Padaria A", "Mercado B", "Fantasma C")
	pipeline := NewPipeline(nil, &nameResolver{ids: map[string]string{
		"Padaria A": "11222333000181",
	}})

	report, err := NewSweeper(store, pipeline, 10, 0).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Resolved)
	assert.Equal(t, 2, report.Unresolved)
	assert.Zero(t, report.Errors)
	assert.False(t, report.BudgetStopped)
	assert.NotEmpty(t, report.RunID)

	leads, err := store.ListLeads(context.Background(), leadstore.LeadFilter{})
	require.NoError(t, err)
	for _, lead := range leads {
		if lead.Name == "Padaria A" {
			assert.Equal(t, "11222333000181", lead.TaxID)
		} else {
			assert.Empty(t, lead.TaxID)
		}
	}
}

func TestSweepSkipsAlreadyProcessed(t *testing.T) {
	store := newSweepStore(t, "Fantasma A", "Fantasma B")
	pipeline := NewPipeline(nil, &nameResolver{})
	sweeper := NewSweeper(store, pipeline, 10, 0)

	first, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Processed)

	// Unresolved leads were marked, so the next sweep leaves them alone.
	second, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Processed)
}

func TestSweepHonorsDailyBudget(t *testing.T) {
	store := newSweepStore(t, "Lead A", "Lead B", "Lead C")
	pipeline := NewPipeline(nil, &nameResolver{})

	report, err := NewSweeper(store, pipeline, 10, 2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.True(t, report.BudgetStopped)

	// The budget spans runs within the same day.
	report, err = NewSweeper(store, pipeline, 10, 2).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
	assert.True(t, report.BudgetStopped)
}

func TestSweepHonorsLimit(t *testing.T) {
	store := newSweepStore(t, "Lead A", "Lead B", "Lead C")
	pipeline := NewPipeline(nil, &nameResolver{})

	report, err := NewSweeper(store, pipeline, 2, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
}
