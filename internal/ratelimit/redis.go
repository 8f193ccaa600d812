package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// slidingWindow trims entries older than the window, then records the hit
// if there is room. Returns {allowed, count, oldest score}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return {1, count + 1, 0}
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, count, tonumber(oldest[2])}
`)

// RedisWindow is a Window shared between processes through Redis.
type RedisWindow struct {
	client *redis.Client
	limit  int
	period time.Duration
	now    func() time.Time
}

func NewRedisWindow(client *redis.Client, limit int, period time.Duration) *RedisWindow {
	return &RedisWindow{client: client, limit: limit, period: period, now: time.Now}
}

func (w *RedisWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := w.now().UnixMilli()
	res, err := slidingWindow.Run(ctx, w.client, []string{keyPrefix + key},
		now, w.period.Milliseconds(), w.limit, uuid.NewString()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if res[0] == 1 {
		return Decision{Allowed: true, Remaining: w.limit - int(res[1])}, nil
	}
	retry := time.Duration(res[2]+w.period.Milliseconds()-now) * time.Millisecond
	if retry < time.Millisecond {
		retry = time.Millisecond
	}
	return Decision{RetryAfter: retry}, nil
}
