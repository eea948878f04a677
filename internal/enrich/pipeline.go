package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/finclip/prospector-cli/internal/cnpj"
	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/pkg/receitaws"
)

// ErrNotResolved means no source in the chain produced a tax id.
var ErrNotResolved = eris.New("enrich: lead not resolved")

var titler = cases.Title(language.BrazilianPortuguese)

// Pipeline resolves a lead's identity through an ordered chain of sources
// and enriches the resolved id with official registry details.
type Pipeline struct {
	resolvers []Resolver
	api       receitaws.Client
}

// NewPipeline assembles a pipeline. Resolver order is the fallback order:
// the first resolution wins and later sources are never consulted. The api
// client may be nil, in which case enrichment stops at identity resolution.
func NewPipeline(api receitaws.Client, resolvers ...Resolver) *Pipeline {
	return &Pipeline{resolvers: resolvers, api: api}
}

// ResolveID walks the resolver chain. Individual resolver failures log and
// fall through to the next source; only an empty-handed end of chain is
// reported, as ErrNotResolved.
func (p *Pipeline) ResolveID(ctx context.Context, lead model.Lead) (*Resolution, string, error) {
	for _, r := range p.resolvers {
		res, err := r.Resolve(ctx, lead)
		if err != nil {
			zap.L().Warn("enrich: resolver failed, trying next source",
				zap.String("resolver", r.Name()),
				zap.String("lead", lead.Name),
				zap.Error(err),
			)
			continue
		}
		if res != nil {
			zap.L().Debug("enrich: resolved",
				zap.String("resolver", r.Name()),
				zap.String("lead", lead.Name),
				zap.String("tax_id", res.ID),
			)
			return res, r.Name(), nil
		}
	}
	return nil, "", ErrNotResolved
}

// Enrich resolves a lead and merges registry-sourced contact data onto it.
// API details take precedence; data carried by the resolution fills the
// gaps. Phones prefer the first outreach-usable number.
func (p *Pipeline) Enrich(ctx context.Context, lead model.Lead) (*model.EnrichedLead, error) {
	res, source, err := p.ResolveID(ctx, lead)
	if err != nil {
		return nil, err
	}

	enriched := &model.EnrichedLead{
		ResolvedID: res.ID,
		Source:     source,
		Phone:      res.Phone,
		Email:      res.Email,
	}

	if p.api == nil {
		return enriched, nil
	}

	details, err := p.api.Lookup(ctx, res.ID)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: fetch details")
	}
	if details == nil {
		return enriched, nil
	}

	enriched.Phone = pickPhone(normalizeAPIPhone(details.Phone), res.Phone)
	if details.Email != "" {
		enriched.Email = details.Email
	}
	for _, o := range details.Officers {
		enriched.Officers = append(enriched.Officers, model.Officer{Name: o.Name, Role: o.Role})
	}
	if name, role := firstOfficerContact(details.Officers); name != "" {
		enriched.ContactName = name
		enriched.ContactRole = role
	}
	return enriched, nil
}

// pickPhone returns the first outreach-usable phone, or failing that the
// first non-empty one.
func pickPhone(phones ...string) string {
	for _, p := range phones {
		if model.UsablePhone(p) {
			return p
		}
	}
	for _, p := range phones {
		if p != "" {
			return p
		}
	}
	return ""
}

// normalizeAPIPhone converts an API-formatted phone like "(83) 99911-2233"
// (possibly several, slash-separated) into the canonical "55"-prefixed
// digits form. Returns "" for anything that is not a plausible national
// number.
func normalizeAPIPhone(phone string) string {
	first, _, _ := strings.Cut(phone, "/")
	digits := cnpj.OnlyDigits(first)
	if len(digits) != 10 && len(digits) != 11 {
		return ""
	}
	return "55" + digits
}

// firstOfficerContact derives an outreach contact from the officer board:
// the first officer's first name, title-cased for salutation use.
func firstOfficerContact(officers []receitaws.Officer) (name, role string) {
	if len(officers) == 0 {
		return "", ""
	}
	fields := strings.Fields(officers[0].Name)
	if len(fields) == 0 {
		return "", ""
	}
	return titler.String(strings.ToLower(fields[0])), officers[0].Role
}
