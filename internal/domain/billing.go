package domain

import "time"

// SubscriptionStatus enumerates the billing states of a tenant subscription.
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// UnlimitedProposals marks a plan with no proposal cap.
const UnlimitedProposals = -1

// Plan describes a subscription tier and its proposal quota.
type Plan struct {
	ID            string  `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	ProposalLimit int     `json:"proposal_limit" db:"proposal_limit"`
	MonthlyPrice  float64 `json:"monthly_price" db:"monthly_price"`
}

// Unlimited reports whether the plan has no proposal cap.
func (p Plan) Unlimited() bool { return p.ProposalLimit == UnlimitedProposals }

// Subscription is the per-tenant billing record with current-period usage.
type Subscription struct {
	ID            string             `json:"id" db:"id"`
	TenantID      string             `json:"tenant_id" db:"tenant_id"`
	PlanID        string             `json:"plan_id" db:"plan_id"`
	Status        SubscriptionStatus `json:"status" db:"status"`
	ProposalsUsed int                `json:"proposals_used" db:"proposals_used"`
	TrialEndsAt   *time.Time         `json:"trial_ends_at" db:"trial_ends_at"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}

// InTrial reports whether the subscription is still in its trial period.
func (s *Subscription) InTrial() bool {
	return s.Status == SubscriptionTrialing
}
