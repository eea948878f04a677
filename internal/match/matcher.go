// Package match resolves scraped business names against the registry
// dataset by fuzzy-scoring full-text search candidates.
package match

import (
	"context"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/finclip/prospector-cli/internal/cnpj"
	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/internal/registry"
)

// Searcher is the registry surface the matcher needs.
type Searcher interface {
	SearchByName(ctx context.Context, name string, limit int) ([]model.Candidate, error)
	FindEstablishment(ctx context.Context, baseID string) (*registry.Establishment, error)
}

// Matcher scores registry candidates against a scraped business name.
type Matcher struct {
	searcher      Searcher
	threshold     float64
	maxCandidates int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold sets the minimum similarity for a match (default 0.6).
func WithThreshold(v float64) Option {
	return func(m *Matcher) {
		if v > 0 {
			m.threshold = v
		}
	}
}

// WithMaxCandidates caps how many search candidates are scored (default 20).
func WithMaxCandidates(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.maxCandidates = n
		}
	}
}

// New builds a Matcher over a registry searcher.
func New(searcher Searcher, opts ...Option) *Matcher {
	m := &Matcher{
		searcher:      searcher,
		threshold:     0.6,
		maxCandidates: 20,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BestMatch returns the highest-scoring registry company for a business
// name, or nil when nothing clears the similarity threshold. Candidate
// order breaks score ties, so results are stable for a given dataset. The
// returned match carries the headquarters-derived full id plus whatever
// contact data the establishment rows hold.
func (m *Matcher) BestMatch(ctx context.Context, name string) (*model.MatchResult, error) {
	query := registry.NormalizeName(name)
	if query == "" {
		return nil, nil
	}

	candidates, err := m.searcher.SearchByName(ctx, query, m.maxCandidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var best *model.MatchResult
	for _, c := range candidates {
		score := levenshtein.Similarity(query, registry.NormalizeName(c.OfficialName), nil)
		if best == nil || score > best.Score {
			best = &model.MatchResult{
				BaseID:       c.BaseID,
				OfficialName: c.OfficialName,
				Score:        score,
			}
		}
	}
	if best == nil || best.Score < m.threshold {
		zap.L().Debug("match: no candidate above threshold",
			zap.String("name", name),
			zap.Int("candidates", len(candidates)),
		)
		return nil, nil
	}

	best.FullID = cnpj.MatrixID(best.BaseID)

	est, err := m.searcher.FindEstablishment(ctx, best.BaseID)
	if err != nil {
		return nil, err
	}
	if est != nil {
		best.Phone = est.Phone
		best.Email = est.Email
		best.Municipality = est.Municipality
		best.State = est.State
	}

	zap.L().Debug("match: resolved",
		zap.String("name", name),
		zap.String("full_id", best.FullID),
		zap.Float64("score", best.Score),
	)
	return best, nil
}
