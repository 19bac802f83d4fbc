// Package storage holds the key-value backends that persist the habit registry.
package storage

import (
	"context"
	"errors"
)

// DefaultKey is the key the habit registry is stored under
const DefaultKey = "trajectory_matrix"

// ErrNotFound is returned by Get when no value is stored under the key
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable key-value store holding serialized snapshots
type Store interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key
	Set(ctx context.Context, key string, value []byte) error
	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error
	// Close releases backend resources
	Close() error
}
