package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the sorted set to the window, then records the hit
// only if the set is still under the limit. Runs atomically in Redis.
var slidingWindow = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
if redis.call("ZCARD", key) >= limit then
	return 0
end
redis.call("ZADD", key, now, member)
redis.call("PEXPIRE", key, window)
return 1
`)

// RedisLimiter shares the sliding window across processes through a Redis
// sorted set per key.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, cfg Config, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:user"
	}
	return &RedisLimiter{
		client: client,
		cfg:    cfg,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow fails open: on a Redis error the request is allowed and the error
// is returned for logging.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	res, err := slidingWindow.Run(ctx, l.client,
		[]string{redisKey},
		l.now().UnixMilli(),
		l.cfg.Window.Milliseconds(),
		l.cfg.MaxRequests,
		uuid.NewString(),
	).Int()
	if err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	return res == 1, nil
}
