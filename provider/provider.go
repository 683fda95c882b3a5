// Package provider defines the byte store behind store.Store.
//
// Implementations MUST be byte-for-byte transparent: Get returns exactly the
// bytes previously passed to Set for a key. A store that transforms values
// internally (expiry headers, compression) must fully reverse the transform
// before returning them.
//
// Keys under "doc:<ns>:" belong to store.Store. Foreign writes under that
// prefix fail envelope validation and are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs, safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry. Stores
	// may ignore cost. Returns ok=false when the write was rejected under
	// pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Purger is implemented by providers that can drop every key under a prefix
// in one call. store.Store.Purge uses it to clear a namespace.
type Purger interface {
	Purge(ctx context.Context, prefix string) error
}
