// Package stock contains the pure business logic for stock movements.
// This is part of the Functional Core - no I/O, only pure functions.
package stock

import (
	"github.com/example/brickline/internal/core/catalog"
	"github.com/example/brickline/internal/core/netting"
)

// FulfillMovements plans the deltas for fulfilling a transfer order from a
// netted plan. Per demand, in balance-safe order:
//
//  1. coverage drawn away from the target moves in (debit there, credit
//     at the target);
//  2. covered child requirements are consumed where they sit (assembly
//     inputs);
//  3. the newly assembled quantity is credited at the target;
//  4. if deliver is set, the full requested quantity leaves the chain
//     (customer handoff) - warehouse transfers keep the goods in stock.
//
// The plan must be fulfillable (no unmet net anywhere); callers gate on
// the scenario before planning movements.
func FulfillMovements(plan *netting.Plan, targetStationID string, deliver bool) []Movement {
	var movements []Movement

	for _, r := range plan.Results {
		root := r.Root

		for _, c := range root.Coverage {
			if c.StationID == targetStationID {
				continue
			}
			movements = append(movements,
				Movement{StationID: c.StationID, ItemID: root.ItemID, ItemKind: root.Kind, Delta: -c.Quantity, Reason: ReasonOrderFulfillment},
				Movement{StationID: targetStationID, ItemID: root.ItemID, ItemKind: root.Kind, Delta: c.Quantity, Reason: ReasonOrderFulfillment},
			)
		}

		for _, child := range root.Children {
			for _, c := range child.Coverage {
				movements = append(movements, Movement{
					StationID: c.StationID,
					ItemID:    child.ItemID,
					ItemKind:  child.Kind,
					Delta:     -c.Quantity,
					Reason:    ReasonOrderFulfillment,
				})
			}
		}

		if root.Net > 0 {
			movements = append(movements, Movement{
				StationID: targetStationID,
				ItemID:    root.ItemID,
				ItemKind:  root.Kind,
				Delta:     root.Net,
				Reason:    ReasonOrderFulfillment,
			})
		}

		if deliver {
			movements = append(movements, Movement{
				StationID: targetStationID,
				ItemID:    root.ItemID,
				ItemKind:  root.Kind,
				Delta:     -root.Required,
				Reason:    ReasonOrderFulfillment,
			})
		}
	}

	return movements
}

// ConsumeMovements plans the input consumption for starting production
// work. The plan's roots are the order's input requirements; start is only
// legal once they are fully covered, so each root's coverage is debited
// where it sits.
func ConsumeMovements(plan *netting.Plan) []Movement {
	var movements []Movement

	for _, r := range plan.Results {
		for _, c := range r.Root.Coverage {
			movements = append(movements, Movement{
				StationID: c.StationID,
				ItemID:    r.Root.ItemID,
				ItemKind:  r.Root.Kind,
				Delta:     -c.Quantity,
				Reason:    ReasonProductionConsumption,
			})
		}
	}

	return movements
}

// OutputMovements plans the output credits for completing production work:
// each produced line lands at its kind's holding station.
func OutputMovements(lines []netting.Line, holding map[catalog.ItemKind]string) []Movement {
	var movements []Movement

	for _, line := range lines {
		movements = append(movements, Movement{
			StationID: holding[line.Kind],
			ItemID:    line.ItemID,
			ItemKind:  line.Kind,
			Delta:     line.Quantity,
			Reason:    ReasonProductionOutput,
		})
	}

	return movements
}

// ReceiptMovements plans credits for goods arriving at a station from
// outside the ledger's view: supply receipts, manual receipts, initial
// stock takes.
func ReceiptMovements(stationID string, lines []netting.Line, reason Reason) []Movement {
	var movements []Movement

	for _, line := range lines {
		movements = append(movements, Movement{
			StationID: stationID,
			ItemID:    line.ItemID,
			ItemKind:  line.Kind,
			Delta:     line.Quantity,
			Reason:    reason,
		})
	}

	return movements
}

// CompensationMovements plans the reversal of ledger entries already
// applied for an order being cancelled. Entries are inverted and replayed
// newest-first so every intermediate balance stays non-negative - undoing
// a transfer must give the stock back before it takes the credit away.
func CompensationMovements(applied []AppliedEntry) []Movement {
	movements := make([]Movement, 0, len(applied))

	for i := len(applied) - 1; i >= 0; i-- {
		e := applied[i]
		movements = append(movements, Movement{
			StationID: e.StationID,
			ItemID:    e.ItemID,
			ItemKind:  e.ItemKind,
			Delta:     -e.Delta,
			Reason:    ReasonOrderCancellation,
		})
	}

	return movements
}
