package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/pkg/receitaws"
)

type fakeResolver struct {
	name  string
	res   *Resolution
	err   error
	calls int
}

func (f *fakeResolver) Name() string { return f.name }

func (f *fakeResolver) Resolve(ctx context.Context, lead model.Lead) (*Resolution, error) {
	f.calls++
	return f.res, f.err
}

type fakeAPI struct {
	details *receitaws.CompanyDetails
	err     error
	lookups []string
}

func (f *fakeAPI) Lookup(ctx context.Context, fullID string) (*receitaws.CompanyDetails, error) {
	f.lookups = append(f.lookups, fullID)
	return f.details, f.err
}

func TestResolveIDFallbackOrder(t *testing.T) {
	miss := &fakeResolver{name: "registry"}
	broken := &fakeResolver{name: "website", err: errors.New("site down")}
	hit := &fakeResolver{name: "search", res: &Resolution{ID: "11222333000181"}}

	p := NewPipeline(nil, miss, broken, hit)
	res, source, err := p.ResolveID(context.Background(), model.Lead{Name: "Padaria"})
	require.NoError(t, err)

	assert.Equal(t, "11222333000181", res.ID)
	assert.Equal(t, "search", source)
	assert.Equal(t, 1, miss.calls)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, hit.calls)
}

func TestResolveIDFirstHitWins(t *testing.T) {
	first := &fakeResolver{name: "registry", res: &Resolution{ID: "11222333000181"}}
	second := &fakeResolver{name: "website", res: &Resolution{ID: "06990590000123"}}

	p := NewPipeline(nil, first, second)
	res, source, err := p.ResolveID(context.Background(), model.Lead{Name: "Padaria"})
	require.NoError(t, err)

	assert.Equal(t, "11222333000181", res.ID)
	assert.Equal(t, "registry", source)
	assert.Zero(t, second.calls)
}

func TestResolveIDExhausted(t *testing.T) {
	p := NewPipeline(nil, &fakeResolver{name: "registry"}, &fakeResolver{name: "search"})
	_, _, err := p.ResolveID(context.Background(), model.Lead{Name: "Fantasma"})
	assert.ErrorIs(t, err, ErrNotResolved)
}

func TestEnrichMergesAPIDetails(t *testing.T) {
	resolver := &fakeResolver{name: "registry", res: &Resolution{
		ID:    "11222333000181",
		Phone: "558333221100",
		Email: "registro@empresa.br",
	}}
	api := &fakeAPI{details: &receitaws.CompanyDetails{
		Status: "OK",
		Name:   "PADARIA SAO JOAO LTDA",
		Phone:  "(83) 99911-2233 / (83) 3322-1100",
		Email:  "oficial@empresa.br",
		Officers: []receitaws.Officer{
			{Name: "MARIA DA SILVA", Role: "49-Sócio-Administrador"},
			{Name: "JOSE DA SILVA", Role: "22-Sócio"},
		},
	}}

	enriched, err := NewPipeline(api, resolver).Enrich(context.Background(), model.Lead{Name: "Padaria"})
	require.NoError(t, err)

	assert.Equal(t, []string{"11222333000181"}, api.lookups)
	assert.Equal(t, "11222333000181", enriched.ResolvedID)
	assert.Equal(t, "registry", enriched.Source)
	// API mobile beats the registry fixed line.
	assert.Equal(t, "5583999112233", enriched.Phone)
	assert.Equal(t, "oficial@empresa.br", enriched.Email)
	assert.Equal(t, "Maria", enriched.ContactName)
	assert.Equal(t, "49-Sócio-Administrador", enriched.ContactRole)
	assert.Len(t, enriched.Officers, 2)
}

func TestEnrichKeepsResolutionWhenAPIEmpty(t *testing.T) {
	resolver := &fakeResolver{name: "registry", res: &Resolution{
		ID:    "11222333000181",
		Phone: "5583999112233",
		Email: "registro@empresa.br",
	}}
	api := &fakeAPI{} // id unknown upstream

	enriched, err := NewPipeline(api, resolver).Enrich(context.Background(), model.Lead{Name: "Padaria"})
	require.NoError(t, err)

	assert.Equal(t, "5583999112233", enriched.Phone)
	assert.Equal(t, "registro@empresa.br", enriched.Email)
	assert.Empty(t, enriched.ContactName)
}

func TestEnrichPrefersUsablePhone(t *testing.T) {
	resolver := &fakeResolver{name: "registry", res: &Resolution{
		ID:    "11222333000181",
		Phone: "5583999112233", // mobile
	}}
	api := &fakeAPI{details: &receitaws.CompanyDetails{
		Status: "OK",
		Phone:  "(83) 3322-1100", // fixed line
	}}

	enriched, err := NewPipeline(api, resolver).Enrich(context.Background(), model.Lead{Name: "Padaria"})
	require.NoError(t, err)
	assert.Equal(t, "5583999112233", enriched.Phone)
}

func TestNormalizeAPIPhone(t *testing.T) {
	assert.Equal(t, "5583999112233", normalizeAPIPhone("(83) 99911-2233"))
	assert.Equal(t, "558333221100", normalizeAPIPhone("(83) 3322-1100 / (83) 3322-1101"))
	assert.Empty(t, normalizeAPIPhone("12345"))
	assert.Empty(t, normalizeAPIPhone(""))
}

func TestFirstOfficerContact(t *testing.T) {
	name, role := firstOfficerContact([]receitaws.Officer{
		{Name: "MARIA DA SILVA", Role: "49-Sócio-Administrador"},
	})
	assert.Equal(t, "Maria", name)
	assert.Equal(t, "49-Sócio-Administrador", role)

	name, role = firstOfficerContact(nil)
	assert.Empty(t, name)
	assert.Empty(t, role)
}
