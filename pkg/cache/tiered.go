package cache

import "errors"

// Tiered reads from a fast store first and falls back to a slow one,
// promoting slow hits into the fast store.
type Tiered[V any] struct {
	fast Store[V]
	slow Store[V]
}

// NewTiered combines two stores.
func NewTiered[V any](fast, slow Store[V]) *Tiered[V] {
	return &Tiered[V]{fast: fast, slow: slow}
}

// Get implements Store.
func (t *Tiered[V]) Get(key string) (V, bool) {
	if value, ok := t.fast.Get(key); ok {
		return value, true
	}

	value, ok := t.slow.Get(key)
	if ok {
		_ = t.fast.Put(key, value)
	}

	return value, ok
}

// Put implements Store.
func (t *Tiered[V]) Put(key string, value V) error {
	return errors.Join(t.fast.Put(key, value), t.slow.Put(key, value))
}

// Stats implements Store. A lookup is a hit when either tier served it.
func (t *Tiered[V]) Stats() Stats {
	fast, slow := t.fast.Stats(), t.slow.Stats()

	return Stats{
		Hits:    fast.Hits + slow.Hits,
		Misses:  slow.Misses,
		Entries: fast.Entries,
	}
}
