package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store is a TTL map with per-entry expiry and an injected clock so tests
// can advance time without sleeping. A read past expiresAt reports a miss
// and evicts the entry.
type Store[T any] struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]storeItem[T]
	group singleflight.Group
}

type storeItem[T any] struct {
	data      T
	expiresAt time.Time
}

// NewStore creates a Store using the wall clock.
func NewStore[T any]() *Store[T] {
	return NewStoreWithClock[T](time.Now)
}

// NewStoreWithClock creates a Store with an explicit clock.
func NewStoreWithClock[T any](now func() time.Time) *Store[T] {
	return &Store[T]{
		now:   now,
		items: make(map[string]storeItem[T]),
	}
}

// Get retrieves an unexpired value.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	item, exists := s.items[key]
	if !exists {
		return zero, false
	}
	if s.now().After(item.expiresAt) {
		delete(s.items, key)
		return zero, false
	}
	return item.data, true
}

// Set stores a value with the given ttl. Zero and empty values cache like
// any other value.
func (s *Store[T]) Set(key string, data T, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = storeItem[T]{data: data, expiresAt: s.now().Add(ttl)}
}

// Delete removes a key from the cache
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// Clear drops every entry. Administrative path only; normal invalidation is
// TTL expiry.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]storeItem[T])
}

// GetOrLoad returns the cached value for key, or invokes loader, stores the
// result with ttl and returns it. Concurrent misses on the same key share a
// single loader invocation.
func (s *Store[T]) GetOrLoad(key string, ttl time.Duration, loader func() (T, error)) (T, error) {
	if data, ok := s.Get(key); ok {
		return data, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have already
		// populated the entry.
		if data, ok := s.Get(key); ok {
			return data, nil
		}
		data, err := loader()
		if err != nil {
			var zero T
			return zero, err
		}
		s.Set(key, data, ttl)
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// CleanExpired removes all expired entries and returns count of removed items
func (s *Store[T]) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}

// Size returns the current number of items in the cache
func (s *Store[T]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
