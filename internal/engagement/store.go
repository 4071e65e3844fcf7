package engagement

import (
	"context"
	"time"

	"github.com/cleanbid/backend/internal/domain"
)

// Store defines the data access contract for tracking tokens, their
// aggregates, and the append-only event rows. Implementations must be safe
// for concurrent use.
//
// Aggregate updates are expressed as single-row atomic statements so that
// concurrent beacons for the same token never lose counts: increments are
// done in SQL, first timestamps with COALESCE, scroll depth with GREATEST.
type Store interface {
	// GetByToken resolves a token to its tracking row.
	GetByToken(ctx context.Context, token string) (*domain.Tracking, error)

	// CreateToken inserts a fresh tracking row for a shared proposal.
	CreateToken(ctx context.Context, t *domain.Tracking) error

	// MarkOpened sets opened=true and writes opened_at once.
	MarkOpened(ctx context.Context, token string, at time.Time, c domain.Caller) error

	// IncrementView bumps view_count, sets first_view_at once and
	// last_viewed_at always.
	IncrementView(ctx context.Context, token string, at time.Time, c domain.Caller) error

	// IncrementDownload bumps download_count and writes downloaded_at once.
	IncrementDownload(ctx context.Context, token string, at time.Time, c domain.Caller) error

	// RaiseScrollDepth raises max_scroll_depth to percent if higher.
	RaiseScrollDepth(ctx context.Context, token string, percent int) error

	// AddTimeSpent adds whole seconds to time_spent_seconds.
	AddTimeSpent(ctx context.Context, token string, seconds int) error

	// InsertEvent appends one immutable event row.
	InsertEvent(ctx context.Context, evt *domain.EngagementEvent) error

	// IncrementProposalViews bumps the parent proposal's denormalized
	// view counter.
	IncrementProposalViews(ctx context.Context, proposalID string) error

	// IncrementProposalDownloads bumps the parent proposal's denormalized
	// download counter.
	IncrementProposalDownloads(ctx context.Context, proposalID string) error
}
