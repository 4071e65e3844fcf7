package engagement

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cleanbid/backend/internal/pkg/logger"
)

// Lua script for an atomic fixed-window counter. INCR and EXPIRE run in one
// round trip so concurrent beacons never leave a key without a TTL.
const beaconLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
    redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
    return 0
end
return 1
`

// RateLimiter throttles public beacon traffic per token and event class.
// It fails open: if Redis is unreachable the beacon is allowed, because
// losing telemetry to a limiter outage is worse than letting a burst in.
type RateLimiter struct {
	redis     *redis.Client
	script    *redis.Script
	perMinute int
}

// NewRateLimiter creates a limiter allowing perMinute beacons per
// token+event window.
func NewRateLimiter(redisClient *redis.Client, perMinute int) *RateLimiter {
	return &RateLimiter{
		redis:     redisClient,
		script:    redis.NewScript(beaconLimitScript),
		perMinute: perMinute,
	}
}

// Allow reports whether another beacon of the given kind may be recorded
// for the token in the current minute window.
func (rl *RateLimiter) Allow(ctx context.Context, token, kind string) bool {
	if rl == nil || rl.redis == nil || rl.perMinute <= 0 {
		return true
	}

	key := fmt.Sprintf("beacon:%s:%s", kind, token)
	res, err := rl.script.Run(ctx, rl.redis, []string{key}, rl.perMinute, 60).Int()
	if err != nil {
		logger.Warn("beacon limiter unavailable", "error", err.Error())
		return true
	}
	return res == 1
}
