package billing

import (
	"sync"
	"time"

	"github.com/cleanbid/backend/internal/domain"
)

// Clock abstracts time for cache expiry so tests can advance it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

type cacheEntry struct {
	plan      domain.Plan
	expiresAt time.Time
}

// PlanCache is a TTL cache for the plan catalog. It is owned by the billing
// service that creates it, never a package-level singleton, so staleness is
// bounded by the configured TTL and fully controllable in tests.
type PlanCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	clock   Clock
}

// NewPlanCache creates a plan cache with the given TTL and clock.
func NewPlanCache(ttl time.Duration, clock Clock) *PlanCache {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PlanCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached plan if present and unexpired.
func (c *PlanCache) Get(planID string) (domain.Plan, bool) {
	c.mu.RLock()
	e, ok := c.entries[planID]
	c.mu.RUnlock()
	if !ok || c.clock.Now().After(e.expiresAt) {
		return domain.Plan{}, false
	}
	return e.plan, true
}

// Put stores a plan with a fresh expiry.
func (c *PlanCache) Put(plan domain.Plan) {
	c.mu.Lock()
	c.entries[plan.ID] = cacheEntry{plan: plan, expiresAt: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}
