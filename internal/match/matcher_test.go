package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/internal/registry"
)

type fakeSearcher struct {
	candidates     []model.Candidate
	establishments map[string]*registry.Establishment

	searchQuery string
	searchLimit int
}

func (f *fakeSearcher) SearchByName(_ context.Context, name string, limit int) ([]model.Candidate, error) {
	f.searchQuery = name
	f.searchLimit = limit
	return f.candidates, nil
}

func (f *fakeSearcher) FindEstablishment(_ context.Context, baseID string) (*registry.Establishment, error) {
	return f.establishments[baseID], nil
}

func TestBestMatchExact(t *testing.T) {
	fake := &fakeSearcher{
		candidates: []model.Candidate{
			{BaseID: "11222333", OfficialName: "PADARIA SÃO JOÃO LTDA"},
			{BaseID: "00009999", OfficialName: "PADARIA CENTRAL LTDA"},
		},
		establishments: map[string]*registry.Establishment{
			"11222333": {
				Phone:        "5583999112233",
				Email:        "contato@padaria.br",
				Municipality: "JOAO PESSOA",
				State:        "PB",
			},
		},
	}

	got, err := New(fake).BestMatch(context.Background(), "padaria são joão ltda")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "11222333", got.BaseID)
	assert.Equal(t, "11222333000181", got.FullID)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
	assert.Equal(t, "5583999112233", got.Phone)
	assert.Equal(t, "contato@padaria.br", got.Email)
	assert.Equal(t, "JOAO PESSOA", got.Municipality)
	assert.Equal(t, "PB", got.State)

	assert.Equal(t, "PADARIA SÃO JOÃO LTDA", fake.searchQuery)
	assert.Equal(t, 20, fake.searchLimit)
}

func TestBestMatchThresholdBoundary(t *testing.T) {
	// 4 substitutions over 10 chars scores exactly 0.6 and still matches;
	// 5 substitutions scores 0.5 and does not.
	atThreshold := &fakeSearcher{candidates: []model.Candidate{
		{BaseID: "00000001", OfficialName: "ABCDEFXXXX"},
	}}
	got, err := New(atThreshold).BestMatch(context.Background(), "ABCDEFGHIJ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 0.6, got.Score, 1e-9)

	below := &fakeSearcher{candidates: []model.Candidate{
		{BaseID: "00000001", OfficialName: "ABCDEXXXXX"},
	}}
	got, err = New(below).BestMatch(context.Background(), "ABCDEFGHIJ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBestMatchTieKeepsFirstCandidate(t *testing.T) {
	fake := &fakeSearcher{candidates: []model.Candidate{
		{BaseID: "00000001", OfficialName: "MERCADO BOM PRECO"},
		{BaseID: "00000002", OfficialName: "MERCADO BOM PRECO"},
	}}

	got, err := New(fake).BestMatch(context.Background(), "mercado bom preco")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "00000001", got.BaseID)
}

func TestBestMatchNoCandidates(t *testing.T) {
	got, err := New(&fakeSearcher{}).BestMatch(context.Background(), "loja fantasma")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBestMatchEmptyName(t *testing.T) {
	fake := &fakeSearcher{candidates: []model.Candidate{
		{BaseID: "00000001", OfficialName: "QUALQUER"},
	}}
	got, err := New(fake).BestMatch(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, fake.searchQuery)
}

func TestBestMatchNoEstablishment(t *testing.T) {
	fake := &fakeSearcher{candidates: []model.Candidate{
		{BaseID: "00004567", OfficialName: "MERCADINHO CENTRAL EIRELI"},
	}}

	got, err := New(fake).BestMatch(context.Background(), "mercadinho central eireli")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "00004567000136", got.FullID)
	assert.Empty(t, got.Phone)
	assert.Empty(t, got.State)
}

func TestMatcherOptions(t *testing.T) {
	fake := &fakeSearcher{candidates: []model.Candidate{
		{BaseID: "00000001", OfficialName: "ABCDEFXXXX"}, // 0.6 vs query below
	}}

	m := New(fake, WithThreshold(0.7), WithMaxCandidates(5))
	got, err := m.BestMatch(context.Background(), "ABCDEFGHIJ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 5, fake.searchLimit)
}
