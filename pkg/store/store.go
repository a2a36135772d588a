// Package store defines the dashboard store contract the annotation runner
// works against. Implementations live in subpackages.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the named dashboard does not exist in the store.
	ErrNotFound = errors.New("dashboard not found")
	// ErrUnauthorized means the store rejected the caller's credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict means the store rejected a persist because the dashboard
	// was modified concurrently.
	ErrConflict = errors.New("dashboard modified concurrently")
)

// Store fetches and persists named dashboard bodies. Bodies are opaque JSON;
// the store does not interpret them. Any error that is not one of the
// sentinel kinds above is a transport failure.
type Store interface {
	// ListNames returns all dashboard names known to the store, in the
	// store's natural listing order.
	ListNames(ctx context.Context) ([]string, error)
	// Fetch returns the body of the named dashboard.
	Fetch(ctx context.Context, name string) ([]byte, error)
	// Persist replaces the body of the named dashboard.
	Persist(ctx context.Context, name string, body []byte) error
}
