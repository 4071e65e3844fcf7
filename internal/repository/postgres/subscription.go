package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cleanbid/backend/internal/billing"
	"github.com/cleanbid/backend/internal/domain"
)

// SubscriptionRepo implements billing.Repository against PostgreSQL.
type SubscriptionRepo struct{ db *sql.DB }

// NewSubscriptionRepo creates a Postgres-backed subscription repository.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

func (r *SubscriptionRepo) GetSubscription(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	s := &domain.Subscription{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, plan_id, status, proposals_used, trial_ends_at,
		       created_at, updated_at
		FROM subscriptions
		WHERE tenant_id = $1
	`, tenantID).Scan(
		&s.ID, &s.TenantID, &s.PlanID, &s.Status, &s.ProposalsUsed, &s.TrialEndsAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, billing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get subscription: %v", billing.ErrUnavailable, err)
	}
	return s, nil
}

func (r *SubscriptionRepo) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	p := &domain.Plan{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, proposal_limit, monthly_price
		FROM subscription_plans
		WHERE id = $1
	`, planID).Scan(&p.ID, &p.Name, &p.ProposalLimit, &p.MonthlyPrice)
	if err == sql.ErrNoRows {
		return nil, billing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get plan: %v", billing.ErrUnavailable, err)
	}
	return p, nil
}

func (r *SubscriptionRepo) IncrementUsage(ctx context.Context, tenantID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET proposals_used = proposals_used + 1, updated_at = NOW()
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return fmt.Errorf("%w: increment usage: %v", billing.ErrUnavailable, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return billing.ErrNotFound
	}
	return nil
}
