package model

// Candidate is a raw full-text search hit from the registry store.
type Candidate struct {
	BaseID       string `json:"base_id"`
	OfficialName string `json:"official_name"`
}

// MatchResult is the outcome of fuzzy-matching a lead name against the
// registry. It is ephemeral: computed per query, never persisted.
type MatchResult struct {
	BaseID       string  `json:"base_id"`
	FullID       string  `json:"full_id"` // derived headquarters CNPJ
	OfficialName string  `json:"official_name"`
	Score        float64 `json:"score"` // similarity ratio, 0.0–1.0
	Phone        string  `json:"phone,omitempty"`
	Email        string  `json:"email,omitempty"`
	Municipality string  `json:"municipality,omitempty"`
	State        string  `json:"state,omitempty"`
}

// Officer is a registered company officer as reported by the registry API.
type Officer struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// EnrichedLead is the output of the enrichment pipeline, consumed by the
// lead store to update its persisted lead entity.
type EnrichedLead struct {
	ResolvedID  string    `json:"resolved_id"` // 14-digit CNPJ
	Source      string    `json:"source"`      // resolver that produced the id
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	ContactName string    `json:"contact_name,omitempty"`
	ContactRole string    `json:"contact_role,omitempty"`
	Officers    []Officer `json:"officers,omitempty"`
}
