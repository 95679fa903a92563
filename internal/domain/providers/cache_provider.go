package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is wrapped by Get when a key is absent or expired.
// Any other Get error means the cache itself failed.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; a non-positive expiration keeps it until deleted
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes every given key in one round trip
	Delete(ctx context.Context, keys ...string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}
