package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkAndDecrementScript runs the whole reset/check/decrement sequence
// server-side, so concurrent requests for the same session are serialized by
// Redis itself. Corrupt or missing hash fields fail tonumber() and are
// treated as a fresh session.
var checkAndDecrementScript = redis.NewScript(`
local remaining = tonumber(redis.call("HGET", KEYS[1], "remaining"))
local updated = tonumber(redis.call("HGET", KEYS[1], "updated"))
local now = tonumber(ARGV[1])
local allowance = tonumber(ARGV[2])
local reset = tonumber(ARGV[3])
if remaining == nil or updated == nil then
  remaining = allowance
  updated = now
end
if now - updated >= reset then
  remaining = allowance
  updated = now
end
local granted = 0
if remaining > 0 then
  remaining = remaining - 1
  granted = 1
end
redis.call("HSET", KEYS[1], "remaining", remaining, "updated", updated)
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return {granted, remaining}
`)

// RedisStore is a quota Store backed by Redis. Client timeouts bound how
// long a request can wait on the store.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a quota store on the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "quota:"}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Exists reports whether the session carries a quota entry.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check quota session %q: %w", key, err)
	}
	return n > 0, nil
}

// Init creates the session with the full allowance.
func (s *RedisStore) Init(ctx context.Context, key string, allowance int, now time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(key), "remaining", allowance, "updated", now.Unix())
	pipe.Expire(ctx, s.key(key), SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to init quota session %q: %w", key, err)
	}
	return nil
}

// CheckAndDecrement atomically applies the daily reset and consumes one unit
// of allowance if any remains.
func (s *RedisStore) CheckAndDecrement(ctx context.Context, key string, now time.Time, allowance int) (bool, int, error) {
	res, err := checkAndDecrementScript.Run(ctx, s.client,
		[]string{s.key(key)},
		now.Unix(),
		allowance,
		int64(ResetInterval.Seconds()),
		SessionTTL.Milliseconds(),
	).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check quota for session %q: %w", key, err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return false, 0, fmt.Errorf("unexpected quota script result for session %q: %v", key, res)
	}
	granted, _ := vals[0].(int64)
	remaining, _ := vals[1].(int64)
	return granted == 1, int(remaining), nil
}
