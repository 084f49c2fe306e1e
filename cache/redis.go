package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis under a common key prefix. Response
// bodies live under prefix+"data:" and generation counters under
// prefix+"gen:", so Clear never resets a counter.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to url and checks the connection with a PING.
func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, prefix), nil
}

func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) dataKey(key string) string {
	return s.prefix + "data:" + key
}

func (s *RedisStore) genKey(group string) string {
	return s.prefix + "gen:" + group
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.dataKey(key), value, ttl).Err()
}

// DeletePrefix removes matching keys with SCAN + DEL rather than KEYS.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	pattern := s.dataKey(prefix) + "*"

	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.DeletePrefix(ctx, "")
}

func (s *RedisStore) Generation(ctx context.Context, group string) (uint64, error) {
	gen, err := s.client.Get(ctx, s.genKey(group)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// BumpGeneration uses INCR so every instance sharing the Redis sees the new
// generation at once.
func (s *RedisStore) BumpGeneration(ctx context.Context, group string) error {
	return s.client.Incr(ctx, s.genKey(group)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
