// Package cache provides a TTL cache for upstream forecast responses.
package cache

import "time"

// Cache stores values under string keys with a per-entry TTL.
type Cache interface {
	// Get returns (value, true) on a hit and (nil, false) otherwise.
	Get(key string) (any, bool)

	// Set stores a value with a TTL. It may be rejected by admission policy.
	Set(key string, value any, ttl time.Duration) bool

	Delete(key string)
	Clear()
	Close()
}
