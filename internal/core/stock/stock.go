// Package stock contains the pure business logic for stock movements:
// translating netted plans and order lines into the signed ledger deltas a
// command must apply. This is part of the Functional Core - no I/O, only
// pure functions.
package stock

import "github.com/example/brickline/internal/core/catalog"

// Reason codes for ledger entries. The ledger is append-only; every delta
// carries the reason it happened.
type Reason string

const (
	ReasonInitialStock          Reason = "initial_stock"
	ReasonOrderFulfillment      Reason = "order_fulfillment"
	ReasonOrderCancellation     Reason = "order_cancellation"
	ReasonProductionOutput      Reason = "production_output"
	ReasonProductionConsumption Reason = "production_consumption"
	ReasonSupplyReceipt         Reason = "supply_receipt"
	ReasonManualReceipt         Reason = "manual_receipt"
	ReasonManualAdjustment      Reason = "manual_adjustment"
)

// IsValid reports whether the reason is one of the known reason codes.
func (r Reason) IsValid() bool {
	switch r {
	case ReasonInitialStock, ReasonOrderFulfillment, ReasonOrderCancellation,
		ReasonProductionOutput, ReasonProductionConsumption, ReasonSupplyReceipt,
		ReasonManualReceipt, ReasonManualAdjustment:
		return true
	}
	return false
}

// Movement is one signed stock delta at a station, the unit of ledger
// application. All movements planned for a single command commit together
// or not at all; their order matters, because balances must stay
// non-negative after every individual step.
type Movement struct {
	StationID string
	ItemID    string
	ItemKind  catalog.ItemKind
	Delta     int64
	Reason    Reason
}

// AppliedEntry is the pre-fetched view of a ledger entry already applied
// for an order, used to plan cancellation compensation.
type AppliedEntry struct {
	StationID string
	ItemID    string
	ItemKind  catalog.ItemKind
	Delta     int64
}
