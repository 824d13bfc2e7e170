// Package cache memoizes resolution results per (scope, identifier).
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 5000
)

// Store is a keyed result cache. Implementations are safe for concurrent use.
type Store[V any] interface {
	Get(ctx context.Context, scope, identifier string) (V, bool)
	Put(ctx context.Context, scope, identifier string, value V)
	// Delete drops the entry for scope and identifier, if any.
	Delete(ctx context.Context, scope, identifier string)
}

// Key builds the cache key for a scope and identifier.
func Key(scope, identifier string) string {
	return scope + "::" + identifier
}

type MemoryOptions struct {
	TTL      time.Duration
	Capacity int
}

// Memory is a bounded in-process cache. Entries expire after the TTL and,
// when the cache is full, the oldest inserted entry is evicted regardless of
// how recently it was read: reads go through Peek, which leaves recency
// untouched.
type Memory[V any] struct {
	// mu keeps the stale-entry removal in Get from racing a fresh Put.
	mu  sync.Mutex
	lru *expirable.LRU[string, V]
}

func NewMemory[V any](opts MemoryOptions) *Memory[V] {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	return &Memory[V]{lru: expirable.NewLRU[string, V](opts.Capacity, nil, opts.TTL)}
}

func (m *Memory[V]) Get(_ context.Context, scope, identifier string) (V, bool) {
	key := Key(scope, identifier)

	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.lru.Peek(key)
	if !ok {
		// Expired entries linger until the background sweep; drop them now.
		m.lru.Remove(key)
		var zero V
		return zero, false
	}
	return value, true
}

// Put stores value. Re-putting a key replaces the entry, refreshes its TTL
// and counts as a new insertion for eviction order.
func (m *Memory[V]) Put(_ context.Context, scope, identifier string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lru.Add(Key(scope, identifier), value)
}

func (m *Memory[V]) Delete(_ context.Context, scope, identifier string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lru.Remove(Key(scope, identifier))
}

// Len reports the number of stored entries, including expired ones not yet
// swept.
func (m *Memory[V]) Len() int {
	return m.lru.Len()
}
