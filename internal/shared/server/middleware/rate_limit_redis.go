package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-builder/internal/shared/telemetry"
)

// tokenBucketScript refills continuously at rate tokens/second and returns
// {allowed, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_ms')
local tokens = tonumber(state[1])
local last_ms = tonumber(state[2])
if tokens == nil or last_ms == nil then
  tokens = capacity
  last_ms = now_ms
end

local elapsed = math.max(0, now_ms - last_ms) / 1000.0
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.ceil(((1 - tokens) / rate) * 1000)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'last_ms', now_ms)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, retry_ms }
`)

// RedisRateLimiter shares token buckets across API instances. Redis errors
// fall through to Fallback so an unavailable cache never blocks generation.
type RedisRateLimiter struct {
	Client   *redis.Client
	Prefix   string
	Fallback Limiter
	now      func() time.Time
}

// NewRedisRateLimiter builds a limiter backed by client with an in-memory fallback.
func NewRedisRateLimiter(client *redis.Client, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		Client:   client,
		Prefix:   prefix,
		Fallback: NewRateLimiter(nil),
		now:      time.Now,
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	if l == nil || l.Client == nil {
		return l.fallback(ctx, key, rule)
	}
	ttl := int64(float64(rule.Burst)/rule.Rate) + 1
	vals, err := tokenBucketScript.Run(ctx, l.Client, []string{l.Prefix + ":" + key},
		l.now().UnixMilli(), rule.Burst, rule.Rate, ttl).Int64Slice()
	if err != nil || len(vals) != 2 {
		telemetry.Warn("ratelimit.redis_unavailable", map[string]any{
			"key":   key,
			"error": errString(err),
		})
		return l.fallback(ctx, key, rule)
	}
	if vals[0] == 1 {
		return true, 0
	}
	return false, time.Duration(vals[1]) * time.Millisecond
}

func (l *RedisRateLimiter) fallback(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.Fallback == nil {
		return true, 0
	}
	return l.Fallback.Allow(ctx, key, rule)
}

func errString(err error) string {
	if err == nil {
		return "unexpected script result"
	}
	return err.Error()
}
