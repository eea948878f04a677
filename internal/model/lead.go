// Package model defines the domain types shared across the prospector
// pipeline: leads, registry match results, and enrichment output.
package model

import "time"

// LeadStatus tracks a lead through the outreach funnel.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusQualified LeadStatus = "qualified"
	StatusMeeting   LeadStatus = "meeting_scheduled"
	StatusCustomer  LeadStatus = "customer"
	StatusLost      LeadStatus = "lost"
)

// Lead is a scraped business listing tracked by the outreach pipeline.
type Lead struct {
	ID      string `json:"id"` // place id from the listing source, or a UUID
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Address string `json:"address,omitempty"`

	ContactName string `json:"contact_name,omitempty"`
	ContactRole string `json:"contact_role,omitempty"`
	TaxID       string `json:"tax_id,omitempty"` // resolved 14-digit CNPJ

	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`

	Status LeadStatus `json:"status"`
	Stage  string     `json:"stage,omitempty"` // conversation stage, set by the bot

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageDirection distinguishes outbound drafts/sends from inbound replies.
type MessageDirection string

const (
	DirectionOutbound MessageDirection = "outbound"
	DirectionInbound  MessageDirection = "inbound"
)

// Message is one entry in a lead's conversation history. Drafts are
// outbound messages with Sent false.
type Message struct {
	ID        int64            `json:"id"`
	LeadID    string           `json:"lead_id"`
	Direction MessageDirection `json:"direction"`
	Body      string           `json:"body"`
	Sent      bool             `json:"sent"`
	CreatedAt time.Time        `json:"created_at"`
}
