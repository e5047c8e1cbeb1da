package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims entries older than the window, then admits the call
// only while the set holds fewer than max members. Time comes from the
// server so every API instance agrees on the window.
var slidingWindow = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local window = tonumber(ARGV[1])
local max = tonumber(ARGV[2])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) >= max then
	return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[3])
redis.call('PEXPIRE', KEYS[1], window)
return 1
`)

// RedisCounter keeps one sorted set per (user, ip) pair.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter creates the redis backend.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client, prefix: "ratelimit:chat"}
}

func (c *RedisCounter) key(userID, ip string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, userID, ip)
}

func (c *RedisCounter) Consume(ctx context.Context, userID, ip string, window time.Duration, max int) (bool, error) {
	res, err := slidingWindow.Run(ctx, c.client,
		[]string{c.key(userID, ip)},
		window.Milliseconds(), max, uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("%w: redis: %w", ErrUnavailable, err)
	}
	return res == 1, nil
}
