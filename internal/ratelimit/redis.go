package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript atomically: removes expired entries, counts, adds current.
// KEYS[1] = sorted set key
// ARGV[1] = window start (unix micro)
// ARGV[2] = now (unix micro) — used as both score and member uniqueness
// ARGV[3] = limit
// ARGV[4] = TTL seconds for the key
// Returns 1 when admitted, 0 when denied.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, ttl)
    return 1
end

redis.call('EXPIRE', key, ttl)
return 0
`)

// RedisStore performs sliding-window rate limiting backed by Redis sorted
// sets, for deployments running more than one gateway instance. The limiter
// is advisory, so Redis errors fail open.
type RedisStore struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewRedisStore creates a Redis-backed limiter. If rdb is nil, all checks pass.
func NewRedisStore(rdb *redis.Client, limit int, window time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, limit: limit, window: window}
}

// Allow implements Store with the same reject-at-limit boundary as MemoryStore.
func (s *RedisStore) Allow(ctx context.Context, identity string) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}

	now := time.Now()
	windowStart := now.Add(-s.window).UnixMicro()
	ttlSecs := int64(s.window.Seconds()) + 1

	key := fmt.Sprintf("lanibot:rl:%s", identity)

	admitted, err := slidingWindowScript.Run(ctx, s.rdb, []string{key},
		windowStart, now.UnixMicro(), s.limit, ttlSecs,
	).Int64()
	if err != nil {
		return true, nil
	}

	return admitted == 1, nil
}
