package cache

import "time"

// Cache defines a string-keyed value cache with per-entry TTL and hit/miss accounting.
// Implementations never fail: a cache is advisory and must not break a request.
type Cache[V any] interface {
	// Get returns the value and whether it was present and not expired.
	// A present-and-unexpired read counts as a hit, anything else as a miss.
	Get(key string) (V, bool)

	// Peek is Get without touching the stats.
	Peek(key string) (V, bool)

	// Set stores the value. If ttl <= 0, the configured default TTL is used.
	Set(key string, value V, ttl time.Duration)

	// Delete removes a key if present.
	Delete(key string)

	// Has reports whether a key is present and not expired. It does not touch the stats.
	Has(key string) bool

	// Len returns the number of non-expired items currently stored.
	Len() int

	// Stats returns a snapshot of the key count and hit/miss counters.
	Stats() Stats

	// FlushAll removes all entries.
	FlushAll()

	// PurgeExpired scans and removes expired entries.
	PurgeExpired()
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Keys    int     `json:"keys"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// hitRate returns hits/(hits+misses), or 0 when nothing has been read yet.
func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
