// Package leadstore persists leads, their outreach messages, and the
// enrichment progress log.
package leadstore

import (
	"context"
	"time"

	"github.com/finclip/prospector-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status model.LeadStatus
	Limit  int
	Offset int
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// Leads
	UpsertLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	ListUnresolved(ctx context.Context, limit int) ([]model.Lead, error)
	UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error
	ApplyEnrichment(ctx context.Context, id string, enr *model.EnrichedLead) error
	StatusCounts(ctx context.Context) (map[model.LeadStatus]int, error)

	// Enrichment progress
	MarkProcessed(ctx context.Context, leadID, runID string) error
	IsProcessed(ctx context.Context, leadID string) (bool, error)
	CountProcessedSince(ctx context.Context, since time.Time) (int, error)

	// Outreach messages
	AddMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, leadID string) ([]model.Message, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
