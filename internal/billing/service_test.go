package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cleanbid/backend/internal/billing"
	"github.com/cleanbid/backend/internal/domain"
)

type fakeRepo struct {
	subs      map[string]*domain.Subscription
	plans     map[string]*domain.Plan
	planCalls int
	fail      bool
}

func (f *fakeRepo) GetSubscription(_ context.Context, tenantID string) (*domain.Subscription, error) {
	if f.fail {
		return nil, billing.ErrUnavailable
	}
	s, ok := f.subs[tenantID]
	if !ok {
		return nil, billing.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) GetPlan(_ context.Context, planID string) (*domain.Plan, error) {
	f.planCalls++
	if f.fail {
		return nil, billing.ErrUnavailable
	}
	p, ok := f.plans[planID]
	if !ok {
		return nil, billing.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) IncrementUsage(_ context.Context, tenantID string) error {
	if f.fail {
		return billing.ErrUnavailable
	}
	f.subs[tenantID].ProposalsUsed++
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func repoWith(used, limit int, status domain.SubscriptionStatus) *fakeRepo {
	return &fakeRepo{
		subs: map[string]*domain.Subscription{
			"t1": {ID: "sub-1", TenantID: "t1", PlanID: "starter", Status: status, ProposalsUsed: used},
		},
		plans: map[string]*domain.Plan{
			"starter": {ID: "starter", Name: "Starter", ProposalLimit: limit},
		},
	}
}

func TestCheckAtLimit(t *testing.T) {
	// Tenant with limit=3 and usage=3 must be blocked with zero remaining.
	svc := billing.NewService(repoWith(3, 3, domain.SubscriptionActive), nil)

	elig, err := svc.CheckCanCreate(context.Background(), "t1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if elig.CanCreate {
		t.Error("expected canCreate=false at limit")
	}
	if elig.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", elig.Remaining)
	}
	if elig.CurrentUsage != 3 || elig.Limit != 3 {
		t.Errorf("usage/limit = %d/%d, want 3/3", elig.CurrentUsage, elig.Limit)
	}
}

func TestCheckUnderLimit(t *testing.T) {
	svc := billing.NewService(repoWith(1, 3, domain.SubscriptionActive), nil)

	elig, err := svc.CheckCanCreate(context.Background(), "t1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !elig.CanCreate {
		t.Error("expected canCreate=true under limit")
	}
	if elig.Remaining != 2 {
		t.Errorf("remaining = %d, want 2", elig.Remaining)
	}
}

func TestCheckOverLimitClampsRemaining(t *testing.T) {
	// Usage above the limit (external recalculation) must clamp, not go
	// negative.
	svc := billing.NewService(repoWith(5, 3, domain.SubscriptionActive), nil)

	elig, _ := svc.CheckCanCreate(context.Background(), "t1")
	if elig.CanCreate || elig.Remaining != 0 {
		t.Errorf("got canCreate=%v remaining=%d, want false/0", elig.CanCreate, elig.Remaining)
	}
}

func TestCheckUnlimitedPlan(t *testing.T) {
	repo := repoWith(900, domain.UnlimitedProposals, domain.SubscriptionActive)
	svc := billing.NewService(repo, nil)

	elig, _ := svc.CheckCanCreate(context.Background(), "t1")
	if !elig.CanCreate {
		t.Error("unlimited plan must always allow creation")
	}
	if elig.Remaining != domain.UnlimitedProposals {
		t.Errorf("remaining = %d, want unbounded marker", elig.Remaining)
	}
}

func TestCheckCanceledSubscription(t *testing.T) {
	svc := billing.NewService(repoWith(0, 3, domain.SubscriptionCanceled), nil)

	elig, _ := svc.CheckCanCreate(context.Background(), "t1")
	if elig.CanCreate {
		t.Error("canceled subscription must not create proposals")
	}
}

func TestCheckTrialFields(t *testing.T) {
	repo := repoWith(0, 3, domain.SubscriptionTrialing)
	ends := time.Now().Add(72 * time.Hour)
	repo.subs["t1"].TrialEndsAt = &ends
	svc := billing.NewService(repo, nil)

	elig, _ := svc.CheckCanCreate(context.Background(), "t1")
	if !elig.IsTrial {
		t.Error("expected isTrial=true")
	}
	if elig.TrialEndsAt == nil || !elig.TrialEndsAt.Equal(ends) {
		t.Errorf("trialEndAt = %v, want %v", elig.TrialEndsAt, ends)
	}
}

func TestCheckFailsClosed(t *testing.T) {
	svc := billing.NewService(&fakeRepo{fail: true}, nil)

	_, err := svc.CheckCanCreate(context.Background(), "t1")
	if !errors.Is(err, billing.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable so callers fail closed, got %v", err)
	}
}

func TestCheckUnknownTenant(t *testing.T) {
	svc := billing.NewService(repoWith(0, 3, domain.SubscriptionActive), nil)

	_, err := svc.CheckCanCreate(context.Background(), "nobody")
	if !errors.Is(err, billing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanCacheHonorsClock(t *testing.T) {
	repo := repoWith(0, 3, domain.SubscriptionActive)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cache := billing.NewPlanCache(5*time.Minute, clock)
	svc := billing.NewService(repo, cache)

	svc.CheckCanCreate(context.Background(), "t1")
	svc.CheckCanCreate(context.Background(), "t1")
	if repo.planCalls != 1 {
		t.Fatalf("plan fetched %d times within TTL, want 1", repo.planCalls)
	}

	clock.advance(6 * time.Minute)
	svc.CheckCanCreate(context.Background(), "t1")
	if repo.planCalls != 2 {
		t.Fatalf("plan fetched %d times after expiry, want 2", repo.planCalls)
	}
}

func TestRecordProposalCreated(t *testing.T) {
	repo := repoWith(0, 3, domain.SubscriptionActive)
	svc := billing.NewService(repo, nil)

	if err := svc.RecordProposalCreated(context.Background(), "t1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if repo.subs["t1"].ProposalsUsed != 1 {
		t.Fatalf("usage = %d, want 1", repo.subs["t1"].ProposalsUsed)
	}
}
