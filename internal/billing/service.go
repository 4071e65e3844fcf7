package billing

import (
	"context"
	"time"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

// Eligibility is the result of a usage-gate check.
type Eligibility struct {
	CanCreate          bool                      `json:"canCreateProposal"`
	CurrentUsage       int                       `json:"currentUsage"`
	Limit              int                       `json:"proposalLimit"`
	Remaining          int                       `json:"remainingProposals"`
	IsTrial            bool                      `json:"isTrial"`
	TrialEndsAt        *time.Time                `json:"trialEndAt"`
	PlanName           string                    `json:"subscriptionPlan"`
	SubscriptionStatus domain.SubscriptionStatus `json:"subscriptionStatus"`
}

// Service is the usage gate. It reads subscription and plan state and
// decides whether a tenant may create another proposal. It never mutates
// usage during a check.
type Service struct {
	repo  Repository
	cache *PlanCache
}

// NewService creates the usage gate backed by the given repository and
// plan cache.
func NewService(repo Repository, cache *PlanCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// CheckCanCreate reports whether the tenant may create a new proposal.
//
// Read-only: a subsequent creation must re-validate independently; no
// reservation is held between check and create. Store errors propagate so
// the caller fails closed.
func (s *Service) CheckCanCreate(ctx context.Context, tenantID string) (*Eligibility, error) {
	sub, err := s.repo.GetSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	plan, err := s.plan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	elig := &Eligibility{
		CurrentUsage:       sub.ProposalsUsed,
		Limit:              plan.ProposalLimit,
		IsTrial:            sub.InTrial(),
		TrialEndsAt:        sub.TrialEndsAt,
		PlanName:           plan.Name,
		SubscriptionStatus: sub.Status,
	}

	if sub.Status == domain.SubscriptionCanceled || sub.Status == domain.SubscriptionPastDue {
		elig.Remaining = 0
		return elig, nil
	}

	if plan.Unlimited() {
		elig.CanCreate = true
		elig.Remaining = domain.UnlimitedProposals
		return elig, nil
	}

	remaining := plan.ProposalLimit - sub.ProposalsUsed
	if remaining < 0 {
		remaining = 0
	}
	elig.Remaining = remaining
	elig.CanCreate = remaining > 0
	return elig, nil
}

// RecordProposalCreated bumps the tenant's usage counter after a proposal
// was created. Called by the orchestrating handler, never by the proposal
// service itself.
func (s *Service) RecordProposalCreated(ctx context.Context, tenantID string) error {
	if err := s.repo.IncrementUsage(ctx, tenantID); err != nil {
		logger.Error("usage increment failed", "tenant_id", tenantID, "error", err.Error())
		return err
	}
	return nil
}

func (s *Service) plan(ctx context.Context, planID string) (domain.Plan, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(planID); ok {
			return p, nil
		}
	}
	p, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return domain.Plan{}, err
	}
	if s.cache != nil {
		s.cache.Put(*p)
	}
	return *p, nil
}
