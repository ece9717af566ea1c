// Package cache stores computed analytics keyed by organization and data version.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is a JSON value cache with monotonically increasing version counters.
// Bumping a counter makes every key built from the old version unreachable.
type Store interface {
	// Get decodes the value stored under key into dest. Returns ErrMiss when absent.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Version returns the current value of a counter, zero when unset.
	Version(ctx context.Context, counter string) (int64, error)
	// Bump increments a counter and returns the new value.
	Bump(ctx context.Context, counter string) (int64, error)
	Close() error
}
