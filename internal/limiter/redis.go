// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementLuaScript counts a hit and starts the window on the first one. A counter left
// without expiry gets one too, so no key can outlive its window.
const incrementLuaScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 or redis.call("PTTL", KEYS[1]) == -1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`

// RedisStore shares the counters between instances. The first hit of a window sets the
// expiry, so a window lasts exactly ttl from that hit.
type RedisStore struct {
	client          *redis.Client
	incrementScript *redis.Script
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, incrementScript: redis.NewScript(incrementLuaScript)}
}

func NewRedisStoreFromURL(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return NewRedisStore(redis.NewClient(opts)), nil
}

func (r *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := r.incrementScript.Run(ctx, r.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("incrementing rate limit counter: %w", err)
	}
	return count, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
