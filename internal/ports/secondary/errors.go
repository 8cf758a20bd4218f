// Package secondary defines the secondary ports (driven adapters) for the application.
package secondary

import "errors"

// Sentinel errors adapters translate storage failures into. The
// application layer branches on these: conflicts are retried, duplicates
// are treated as no-ops, the rest surface to the caller.
var (
	// ErrNotFound - the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock - a movement would drive a stock line negative.
	// The whole batch is rolled back.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict - a concurrent writer changed a stock line between read
	// and write. Safe to retry.
	ErrConflict = errors.New("concurrent modification")

	// ErrDuplicate - a uniqueness constraint blocked the write, e.g. a
	// second open downstream order for the same shortfall.
	ErrDuplicate = errors.New("duplicate")
)
