// Package enrich resolves leads to their registry identity and enriches
// them with official contact data.
package enrich

import (
	"context"

	"github.com/finclip/prospector-cli/internal/extract"
	"github.com/finclip/prospector-cli/internal/match"
	"github.com/finclip/prospector-cli/internal/model"
)

// Resolution is a resolved tax id plus whatever contact data the resolver
// picked up along the way.
type Resolution struct {
	ID    string
	Phone string
	Email string
	Score float64
}

// Resolver attempts to find a lead's tax id from one source. A nil
// Resolution without error means this source has nothing for the lead and
// the next resolver in the chain should try.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, lead model.Lead) (*Resolution, error)
}

// RegistryResolver matches the lead name against the local registry dataset.
type RegistryResolver struct {
	matcher *match.Matcher
}

// NewRegistryResolver builds the registry-backed resolver.
func NewRegistryResolver(m *match.Matcher) *RegistryResolver {
	return &RegistryResolver{matcher: m}
}

func (r *RegistryResolver) Name() string { return "registry" }

func (r *RegistryResolver) Resolve(ctx context.Context, lead model.Lead) (*Resolution, error) {
	res, err := r.matcher.BestMatch(ctx, lead.Name)
	if err != nil || res == nil {
		return nil, err
	}
	return &Resolution{
		ID:    res.FullID,
		Phone: res.Phone,
		Email: res.Email,
		Score: res.Score,
	}, nil
}

// WebsiteResolver scans the lead's own website for its tax id.
type WebsiteResolver struct {
	extractor *extract.Extractor
}

// NewWebsiteResolver builds the website-scanning resolver.
func NewWebsiteResolver(e *extract.Extractor) *WebsiteResolver {
	return &WebsiteResolver{extractor: e}
}

func (r *WebsiteResolver) Name() string { return "website" }

func (r *WebsiteResolver) Resolve(ctx context.Context, lead model.Lead) (*Resolution, error) {
	if lead.Website == "" {
		return nil, nil
	}
	id := r.extractor.FromWebsite(ctx, lead.Website)
	if id == "" {
		return nil, nil
	}
	return &Resolution{ID: id}, nil
}

// SearchResolver queries a web search for the lead and scans the results.
type SearchResolver struct {
	extractor *extract.Extractor
}

// NewSearchResolver builds the search-page resolver.
func NewSearchResolver(e *extract.Extractor) *SearchResolver {
	return &SearchResolver{extractor: e}
}

func (r *SearchResolver) Name() string { return "search" }

func (r *SearchResolver) Resolve(ctx context.Context, lead model.Lead) (*Resolution, error) {
	id := r.extractor.FromSearch(ctx, lead.Name, lead.City)
	if id == "" {
		return nil, nil
	}
	return &Resolution{ID: id}, nil
}
