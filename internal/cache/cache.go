package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store is a byte-oriented cache backend. Backend failures are returned to
// the caller; a miss is reported with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

// RedisStore keeps entries in Redis under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a new Redis client.
func NewRedisClient(addr, username, password string, db int) *redis.Client {
	opts := &redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	}
	return redis.NewClient(opts)
}

// NewRedisStore wraps client; every key is stored as prefix + key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Get returns the raw value for key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return res, true, nil
}

// Set stores value without expiry; entries live until invalidated.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear deletes every key under the store prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 500).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
