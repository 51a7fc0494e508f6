package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxEntries is the default capacity of the in-memory cache.
const DefaultMaxEntries = 4096

// Memory is an LRU cache bounded by entry count.
type Memory[V any] struct {
	cache  *lru.Cache[string, V]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory creates an in-memory LRU cache. Non-positive sizes use DefaultMaxEntries.
func NewMemory[V any](maxEntries int) (*Memory[V], error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	inner, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	return &Memory[V]{cache: inner}, nil
}

// Get implements Store.
func (m *Memory[V]) Get(key string) (V, bool) {
	value, ok := m.cache.Get(key)
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}

	return value, ok
}

// Put implements Store.
func (m *Memory[V]) Put(key string, value V) error {
	m.cache.Add(key, value)

	return nil
}

// Stats implements Store.
func (m *Memory[V]) Stats() Stats {
	return Stats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Entries: m.cache.Len(),
	}
}
