package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, perMinute int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client, perMinute), mr
}

func TestRateLimiterEnforcesWindow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !rl.Allow(ctx, "tok-1", "view") {
			t.Fatalf("beacon %d should be allowed", i+1)
		}
	}
	if rl.Allow(ctx, "tok-1", "view") {
		t.Error("fourth beacon in the window should be denied")
	}
}

func TestRateLimiterScopesByTokenAndKind(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ctx := context.Background()

	if !rl.Allow(ctx, "tok-1", "view") {
		t.Fatal("first view should be allowed")
	}
	if rl.Allow(ctx, "tok-1", "view") {
		t.Error("second view on same token should be denied")
	}
	if !rl.Allow(ctx, "tok-1", "scroll") {
		t.Error("different event kind has its own window")
	}
	if !rl.Allow(ctx, "tok-2", "view") {
		t.Error("different token has its own window")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl, mr := newTestLimiter(t, 1)
	ctx := context.Background()

	rl.Allow(ctx, "tok-1", "view")
	if rl.Allow(ctx, "tok-1", "view") {
		t.Fatal("window should be exhausted")
	}

	mr.FastForward(61 * time.Second)
	if !rl.Allow(ctx, "tok-1", "view") {
		t.Error("window should reset after expiry")
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rl, mr := newTestLimiter(t, 1)
	mr.Close()

	if !rl.Allow(context.Background(), "tok-1", "view") {
		t.Error("limiter must allow beacons when redis is down")
	}
}

func TestRateLimiterNilIsNoOp(t *testing.T) {
	var rl *RateLimiter
	if !rl.Allow(context.Background(), "tok-1", "view") {
		t.Error("nil limiter must allow everything")
	}
}
