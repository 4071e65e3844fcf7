package billing

import (
	"context"
	"errors"

	"github.com/cleanbid/backend/internal/domain"
)

// Sentinel errors for the billing layer.
var (
	// ErrNotFound means the tenant has no subscription row.
	ErrNotFound = errors.New("subscription not found")
	// ErrUnavailable means the data store could not be reached. Callers
	// must treat this as "cannot create" (fail closed).
	ErrUnavailable = errors.New("billing store unavailable")
)

// Repository defines the data access contract for subscriptions and plans.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetSubscription returns the tenant's subscription.
	GetSubscription(ctx context.Context, tenantID string) (*domain.Subscription, error)

	// GetPlan returns a plan from the catalog.
	GetPlan(ctx context.Context, planID string) (*domain.Plan, error)

	// IncrementUsage bumps the tenant's current-period proposal count.
	// Read-modify-write; not guarded against concurrent increments.
	IncrementUsage(ctx context.Context, tenantID string) error
}
