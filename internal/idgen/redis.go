package idgen

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// nextScript raises the counter to floor if it lags behind, then increments.
// Running it as one script keeps the read-compare-increment atomic.
var nextScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if cur < floor then
  redis.call('SET', KEYS[1], floor)
end
local v = redis.call('INCR', KEYS[1])
if tonumber(ARGV[2]) > 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return v
`)

// RedisSequencer keeps counters in redis so several API instances share them.
type RedisSequencer struct {
	client redis.Scripter
	prefix string
	ttl    time.Duration
}

// NewRedisSequencer returns a Sequencer storing keys under prefix. Each key is
// refreshed to expire after ttl; ttl <= 0 keeps keys forever. The ttl must
// outlive the longest scope (a month for booking codes).
func NewRedisSequencer(client redis.Scripter, prefix string, ttl time.Duration) *RedisSequencer {
	return &RedisSequencer{client: client, prefix: prefix, ttl: ttl}
}

// Next atomically returns the next value of scope above floor.
func (s *RedisSequencer) Next(ctx context.Context, scope string, floor int64) (int64, error) {
	n, err := nextScript.Run(ctx, s.client, []string{s.prefix + scope}, floor, int64(s.ttl/time.Second)).Int64()
	if err != nil {
		return 0, fmt.Errorf("idgen.RedisSequencer.Next: %w", err)
	}
	return n, nil
}
