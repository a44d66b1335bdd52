// Package cache provides bounded in-memory byte caches keyed by string.
//
// A cache accelerates reads in front of a slower store; it is never the
// source of truth. Capacity is a byte budget over value sizes, and every
// implementation enforces it on insert by evicting per its policy.
//
// Values are isolated: Put copies its input and Get returns a fresh copy,
// so no caller can mutate bytes another caller observes.
package cache

// Cache is a bounded byte cache. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get retrieves the value cached under key, or nil, false when absent.
	// The returned slice is the caller's to keep.
	Get(key string) ([]byte, bool)

	// Put inserts or replaces the value under key and then enforces the
	// byte budget by evicting. A value larger than the whole budget is not
	// admitted, though any previous value under the same key is still
	// dropped so an overwrite never leaves stale bytes behind.
	Put(key string, val []byte)

	// Remove drops the entry for key, reporting whether one existed.
	Remove(key string) bool

	// Contains reports whether key is cached without counting as an access,
	// so existence probes do not disturb the eviction order.
	Contains(key string) bool

	// Clear drops every entry. Lifetime counters survive.
	Clear()

	// SizeBytes returns the summed size of cached values.
	SizeBytes() int64

	// MaxBytes returns the byte budget.
	MaxBytes() int64

	// Stats returns a snapshot of the cache counters.
	Stats() Stats
}

// Stats is a point-in-time snapshot of cache activity and utilization.
// Hits, Misses and Evictions are lifetime counters; the rest describe the
// current state.
type Stats struct {
	Hits      int64 // Get calls that found a value
	Misses    int64 // Get calls that did not
	Evictions int64 // entries removed to satisfy the byte budget
	Entries   int   // entries currently cached
	SizeBytes int64 // bytes currently cached
	MaxBytes  int64 // configured byte budget
}
