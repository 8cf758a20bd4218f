// Package netting contains the pure BOM netting engine: given demands and a
// pre-fetched snapshot of catalog and stock, it explodes the BOM tree and
// computes, level by level, how much is satisfiable from existing stock
// versus how much must be produced or sourced upstream.
// This is part of the Functional Core - no I/O, only pure functions.
package netting

import "errors"

var (
	// ErrInvalidQuantity indicates a demand with a non-positive quantity.
	ErrInvalidQuantity = errors.New("demanded quantity must be positive")

	// ErrUnknownItem indicates a demand or BOM edge referencing an item
	// missing from the snapshot.
	ErrUnknownItem = errors.New("unknown item")

	// ErrHardShortage indicates a shortfall on an item with no BOM children
	// and no procurement route. Nothing in the chain can supply it, so the
	// demand cannot be met by any sequence of orders.
	ErrHardShortage = errors.New("hard shortage: item cannot be produced or procured")
)
