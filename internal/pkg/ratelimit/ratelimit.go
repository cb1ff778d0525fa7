// Package ratelimit caps how often a single caller may reach the language
// model. Counters live in Redis and are checked and bumped by one Lua script
// so concurrent requests cannot both slip under the limit.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/cancellation-letters/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// windowLuaScript checks and increments a fixed-window counter atomically.
// Returns {allowed, current}.
const windowLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")
if current + 1 > limit then
    return {0, current}
end

local newVal = redis.call("INCR", key)
if newVal == 1 then
    redis.call("EXPIRE", key, ttl)
end

return {1, newVal}
`

// Limiter is a per-key fixed-window limiter.
type Limiter struct {
	redis  *redis.Client
	script *redis.Script
	limit  int
	window time.Duration
	now    func() time.Time
}

// New creates a limiter allowing limit calls per window for each key.
func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		redis:  client,
		script: redis.NewScript(windowLuaScript),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether key may make another call in the current window.
// Redis failures are logged and the call is allowed.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.redis == nil || l.limit <= 0 {
		return true, nil
	}

	bucket := l.now().Unix() / int64(l.window/time.Second)
	redisKey := fmt.Sprintf("ratelimit:llm:%s:%d", key, bucket)
	ttl := int(2 * l.window / time.Second)

	result, err := l.script.Run(ctx, l.redis, []string{redisKey}, l.limit, ttl).Slice()
	if err != nil {
		logger.Warn("rate limit check failed, allowing request", "key", key, "error", err.Error())
		return true, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, _ := result[0].(int64)
	return allowed == 1, nil
}
