// Package cache memoizes per-file extraction results, in memory and on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrCorruptEntry is returned when a persisted entry cannot be decoded.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Store is a key/value cache. Implementations are safe for concurrent use.
type Store[V any] interface {
	// Get returns the value stored under key.
	Get(key string) (V, bool)
	// Put stores value under key.
	Put(key string, value V) error
	// Stats returns hit and miss counters.
	Stats() Stats
}

// Stats holds cache performance counters.
type Stats struct {
	Hits    int64 `json:"hits"    yaml:"hits"`
	Misses  int64 `json:"misses"  yaml:"misses"`
	Entries int   `json:"entries" yaml:"entries"`
}

// HitRate returns the cache hit rate as a fraction (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Key derives a content-addressed key from the producer's version, the
// grammar name and the source bytes. Bumping version invalidates entries
// written by older producers.
func Key(version, lang string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write(content)

	return hex.EncodeToString(h.Sum(nil))
}
