package antigaming

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// reserveScript checks every bucket and increments them all only when none
// is exhausted. KEYS = counter hashes; ARGV[1] = now (ms), then one
// (window ms, max) pair per key. Returns {allowed, count1, last1, ...}.
var reserveScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local allowed = 1
local state = {}

for i, key in ipairs(KEYS) do
  local window = tonumber(ARGV[i * 2])
  local max = tonumber(ARGV[i * 2 + 1])
  local count = tonumber(redis.call('HGET', key, 'count') or '0')
  local last = tonumber(redis.call('HGET', key, 'last') or '0')
  local fresh = not (last > 0 and now - last < window)
  if not fresh and count >= max then
    allowed = 0
  end
  state[i] = {count, last, window, fresh}
end

local reply = {allowed}
for i, key in ipairs(KEYS) do
  local count, last, window, fresh = state[i][1], state[i][2], state[i][3], state[i][4]
  if allowed == 1 then
    if fresh then count = 1 else count = count + 1 end
    last = now
    redis.call('HSET', key, 'count', count, 'last', now)
    redis.call('PEXPIRE', key, window)
  end
  table.insert(reply, count)
  table.insert(reply, last)
end
return reply
`)

// RedisStore shares rate-limit counters across server instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix + "ratelimit:"}
}

func (s *RedisStore) key(clientKey string) string {
	return s.prefix + clientKey
}

func (s *RedisStore) Peek(ctx context.Context, key string) (Usage, error) {
	vals, err := s.client.HMGet(ctx, s.key(key), "count", "last").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Usage{}, fmt.Errorf("rate-limit peek: %w", err)
	}

	var usage Usage
	if len(vals) == 2 {
		if c, ok := vals[0].(string); ok {
			usage.Count, _ = strconv.Atoi(c)
		}
		if l, ok := vals[1].(string); ok {
			if ms, err := strconv.ParseInt(l, 10, 64); err == nil && ms > 0 {
				usage.Last = time.UnixMilli(ms)
			}
		}
	}
	return usage, nil
}

func (s *RedisStore) Reserve(ctx context.Context, now time.Time, buckets ...Bucket) ([]Usage, bool, error) {
	keys := make([]string, 0, len(buckets))
	args := make([]interface{}, 0, 1+2*len(buckets))
	args = append(args, now.UnixMilli())
	for _, b := range buckets {
		keys = append(keys, s.key(b.Key))
		args = append(args, b.Limit.Window.Milliseconds(), b.Limit.Max)
	}

	res, err := reserveScript.Run(ctx, s.client, keys, args...).Int64Slice()
	if err != nil {
		return nil, false, fmt.Errorf("rate-limit reserve: %w", err)
	}
	if len(res) != 1+2*len(buckets) {
		return nil, false, fmt.Errorf("rate-limit reserve: unexpected reply %v", res)
	}

	usages := make([]Usage, len(buckets))
	for i := range buckets {
		usages[i] = Usage{Count: int(res[1+2*i])}
		if last := res[2+2*i]; last > 0 {
			usages[i].Last = time.UnixMilli(last)
		}
	}
	return usages, res[0] == 1, nil
}
