package proposal

import (
	"context"

	"github.com/cleanbid/backend/internal/domain"
)

// Repository defines the data access contract for proposals.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single proposal scoped to the owning tenant.
	// Returns ErrNotFound if it doesn't exist or is owned by someone else.
	Get(ctx context.Context, tenantID, id string) (*domain.Proposal, error)

	// List returns proposals for a tenant, ordered by created_at DESC.
	List(ctx context.Context, tenantID string, filter ListFilter) ([]domain.Proposal, int, error)

	// Create inserts a new proposal and returns its ID.
	Create(ctx context.Context, p *domain.Proposal) (string, error)

	// UpdateStatus writes the new status and appends the status history row
	// in a single transaction. Returns ErrNotFound on ownership failure.
	UpdateStatus(ctx context.Context, tenantID, id string, status domain.ProposalStatus, actorID string) error

	// History returns the proposal's status transitions, newest first.
	History(ctx context.Context, tenantID, id string) ([]domain.StatusChange, error)

	// IncrementDownloadCount bumps the denormalized download counter.
	// Best-effort: not guarded against concurrent increments.
	IncrementDownloadCount(ctx context.Context, id string) error
}

// ListFilter controls pagination and filtering for proposal lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
