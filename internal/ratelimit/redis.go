package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// The TTL is set only by the request that opens the window, so the key expires
// exactly one window after the first hit and the next hit starts a fresh count.
var hitScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return c
`)

// RedisStore keeps counters in Redis so limits hold across instances.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL parses a redis:// or rediss:// URL. A non-empty token
// overrides the password in the URL.
func NewRedisStoreFromURL(rawURL, token string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if token != "" {
		opts.Password = token
	}
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	return NewRedisStore(redis.NewClient(opts)), nil
}

func (s *RedisStore) Hit(ctx context.Context, key string, limit int, win time.Duration) (Result, error) {
	count, err := hitScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, win.Milliseconds()).Int64()
	if err != nil {
		return Result{}, fmt.Errorf("redis hit: %w", err)
	}
	return fromCount(count, limit), nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Ready pings the server; used by the health endpoint.
func (s *RedisStore) Ready(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
