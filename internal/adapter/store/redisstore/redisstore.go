// Package redisstore backs the usage store with Redis so advisory
// counters survive restarts and are shared across replicas. TTLs are
// delegated to Redis expiry.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
)

// keyPrefix namespaces analyzer keys in a shared Redis.
const keyPrefix = "oppanalyzer:"

// Store implements domain.UsageStore on Redis.
type Store struct {
	rdb *redis.Client
}

// New connects using a redis URL (redis://...).
func New(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("op=redisstore.New: %w", err)
	}
	return &Store{rdb: redis.NewClient(opts)}, nil
}

// NewFromClient wraps an existing client; used by tests with miniredis.
func NewFromClient(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// Get implements domain.UsageStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("op=redisstore.Get: %w", err)
	}
	return v, nil
}

// Set implements domain.UsageStore.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Set: %w", err)
	}
	return nil
}

// Delete implements domain.UsageStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Delete: %w", err)
	}
	return nil
}

// Keys implements domain.UsageStore. The analyzer keyspace is at most a
// few dozen day records, so KEYS is acceptable here.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("op=redisstore.Keys: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k[len(keyPrefix):])
	}
	return out, nil
}

// Clear implements domain.UsageStore.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.rdb.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("op=redisstore.Clear: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Clear: %w", err)
	}
	return nil
}

// Ping implements domain.UsageStore.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.rdb.Close() }
