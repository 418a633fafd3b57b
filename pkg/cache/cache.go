// Package cache provides pluggable byte caches for index responses.
//
// Backends:
//   - FileCache: directory-backed cache for CLI usage (default)
//   - RedisCache: shared cache for CI runners that resolve the same sets
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLs for the cached data classes.
const (
	// TTLProject is how long index project metadata stays fresh.
	TTLProject = 24 * time.Hour

	// TTLRelease is how long per-release metadata stays fresh. Release
	// metadata is immutable on PyPI, so this is generous.
	TTLRelease = 7 * 24 * time.Hour
)

// Cache is the storage interface used by the index clients.
type Cache interface {
	// Get retrieves a value. Returns (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
