package domain

import "time"

// EngagementType enumerates the classes of recipient engagement events.
type EngagementType string

const (
	EngagementOpen     EngagementType = "open"
	EngagementView     EngagementType = "view"
	EngagementDownload EngagementType = "download"
	EngagementScroll   EngagementType = "scroll"
	EngagementTime     EngagementType = "time"
	EngagementClick    EngagementType = "click"
)

// Tracking holds the per-token engagement aggregate for one shared proposal
// link. Counters only increase; first-event timestamps are written once.
type Tracking struct {
	Token      string `json:"token" db:"token"`
	ProposalID string `json:"proposal_id" db:"proposal_id"`

	Opened   bool       `json:"opened" db:"opened"`
	OpenedAt *time.Time `json:"opened_at" db:"opened_at"`

	Viewed       bool       `json:"viewed" db:"viewed"`
	FirstViewAt  *time.Time `json:"first_view_at" db:"first_view_at"`
	LastViewedAt *time.Time `json:"last_viewed_at" db:"last_viewed_at"`
	ViewCount    int        `json:"view_count" db:"view_count"`

	Downloaded    bool       `json:"downloaded" db:"downloaded"`
	DownloadedAt  *time.Time `json:"downloaded_at" db:"downloaded_at"`
	DownloadCount int        `json:"download_count" db:"download_count"`

	// MaxScrollDepth is a running maximum in [0,100]; it never decreases.
	MaxScrollDepth int `json:"max_scroll_depth" db:"max_scroll_depth"`
	// TimeSpentSeconds accumulates floor(reported_ms / 1000) per beacon.
	TimeSpentSeconds int `json:"time_spent_seconds" db:"time_spent_seconds"`

	// Most recent caller metadata; refreshed on every event.
	UserAgent string `json:"user_agent" db:"user_agent"`
	IPAddress string `json:"ip_address" db:"ip_address"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EngagementEvent is an immutable append-only audit record of a single
// recipient interaction. Event rows are never mutated after insert.
type EngagementEvent struct {
	ID         string         `json:"id" db:"id"`
	Token      string         `json:"token" db:"token"`
	ProposalID string         `json:"proposal_id" db:"proposal_id"`
	Type       EngagementType `json:"type" db:"type"`
	IPAddress  string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string         `json:"user_agent,omitempty" db:"user_agent"`
	Referrer   string         `json:"referrer,omitempty" db:"referrer"`

	// Click metadata, bounded at write time (255 free text / 100 ids).
	ElementID   string `json:"element_id,omitempty" db:"element_id"`
	ElementText string `json:"element_text,omitempty" db:"element_text"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Caller carries requester metadata extracted from a beacon request.
type Caller struct {
	IPAddress string
	UserAgent string
	Referrer  string
}
