package domain

import (
	"encoding/json"
	"time"
)

// ProposalStatus enumerates the lifecycle states of a proposal.
type ProposalStatus string

const (
	ProposalDraft    ProposalStatus = "draft"
	ProposalSent     ProposalStatus = "sent"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// ValidStatus reports whether s is a member of the status enum. Transitions
// are validated against the enum only, not a transition table: a draft may
// be set directly to accepted/rejected (admin override path).
func ValidStatus(s ProposalStatus) bool {
	switch s {
	case ProposalDraft, ProposalSent, ProposalAccepted, ProposalRejected:
		return true
	}
	return false
}

// Proposal represents a client-facing sales proposal with pricing and
// service data and a lifecycle status.
type Proposal struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Title    string `json:"title" db:"title"`

	// Client contact fields
	ClientName    string `json:"client_name" db:"client_name"`
	ClientEmail   string `json:"client_email" db:"client_email"`
	ClientPhone   string `json:"client_phone" db:"client_phone"`
	ClientCompany string `json:"client_company" db:"client_company"`

	// Service description
	ServiceType  string  `json:"service_type" db:"service_type"`
	Frequency    string  `json:"frequency" db:"frequency"`
	FacilitySqFt int     `json:"facility_sq_ft" db:"facility_sq_ft"`
	MonthlyPrice float64 `json:"monthly_price" db:"monthly_price"`

	// ServiceData is a structured blob owned by the pricing/editor frontend.
	// The backend stores and returns it without interpreting its shape.
	ServiceData json.RawMessage `json:"service_data" db:"service_data"`

	Status ProposalStatus `json:"status" db:"status"`

	// Denormalized engagement counters. Monotonic non-decreasing,
	// best-effort (see engagement package).
	ViewCount     int `json:"view_count" db:"view_count"`
	DownloadCount int `json:"download_count" db:"download_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the proposal is in a final state.
func (p *Proposal) IsTerminal() bool {
	return p.Status == ProposalAccepted || p.Status == ProposalRejected
}

// StatusChange is an immutable audit record of a proposal status transition.
// Exactly one row is appended per transition, in the same transaction as the
// status write.
type StatusChange struct {
	ID         string         `json:"id" db:"id"`
	ProposalID string         `json:"proposal_id" db:"proposal_id"`
	PrevStatus ProposalStatus `json:"prev_status" db:"prev_status"`
	NewStatus  ProposalStatus `json:"new_status" db:"new_status"`
	ActorID    string         `json:"actor_id" db:"actor_id"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// PDFExport records one export of a proposal to PDF, including where the
// archive copy was stored.
type PDFExport struct {
	ID         string    `json:"id" db:"id"`
	ProposalID string    `json:"proposal_id" db:"proposal_id"`
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	Bucket     string    `json:"bucket" db:"bucket"`
	ObjectKey  string    `json:"object_key" db:"object_key"`
	SizeBytes  int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
