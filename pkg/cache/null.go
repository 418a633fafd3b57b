package cache

import (
	"context"
	"time"
)

// NullCache discards everything: every Get is a miss, every Set a no-op.
// Selected by --no-cache and by tests that must hit the fetcher.
type NullCache struct{}

// NewNullCache returns the disabled-cache backend.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }

func (*NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (*NullCache) Delete(ctx context.Context, key string) error { return nil }

func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
