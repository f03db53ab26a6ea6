// Package memory provides the in-process usage store: a mutex-guarded
// map with lazy TTL expiry. Data lives for the process lifetime.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Store implements domain.UsageStore in memory.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string]entry), now: time.Now}
}

// Get implements domain.UsageStore.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set implements domain.UsageStore.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

// Delete implements domain.UsageStore.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Keys implements domain.UsageStore.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k, e := range s.data {
		if !s.expired(e) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Clear implements domain.UsageStore.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.data = make(map[string]entry)
	s.mu.Unlock()
	return nil
}

// Ping implements domain.UsageStore; the in-memory store is always up.
func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}
