// Package stock contains the pure business logic for stock movements.
// Guards are pure functions that evaluate preconditions without side
// effects.
package stock

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ReceiveContext provides context for stock receipt guards.
type ReceiveContext struct {
	StationName   string
	StationExists bool
	ItemID        string
	ItemExists    bool
	Quantity      int64
}

// AdjustContext provides context for manual adjustment guards.
type AdjustContext struct {
	StationName   string
	StationExists bool
	ItemID        string
	ItemExists    bool
	Delta         int64
	Available     int64
}

// CanReceiveStock evaluates whether goods can be received into a station.
// Rules:
// - Station and item must exist
// - Quantity must be positive
func CanReceiveStock(ctx ReceiveContext) GuardResult {
	if !ctx.StationExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("workstation %s not found", ctx.StationName),
		}
	}

	if !ctx.ItemExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("item %s not found", ctx.ItemID),
		}
	}

	if ctx.Quantity <= 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("receive quantity must be positive, got %d", ctx.Quantity),
		}
	}

	return GuardResult{Allowed: true}
}

// CanAdjustStock evaluates whether a manual stock adjustment can be made.
// Rules:
// - Station and item must exist
// - Delta must be non-zero
// - A downward adjustment cannot exceed what is on hand
func CanAdjustStock(ctx AdjustContext) GuardResult {
	if !ctx.StationExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("workstation %s not found", ctx.StationName),
		}
	}

	if !ctx.ItemExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("item %s not found", ctx.ItemID),
		}
	}

	if ctx.Delta == 0 {
		return GuardResult{
			Allowed: false,
			Reason:  "adjustment delta must be non-zero",
		}
	}

	if ctx.Delta < 0 && ctx.Available+ctx.Delta < 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot adjust %s at %s by %d: only %d on hand", ctx.ItemID, ctx.StationName, ctx.Delta, ctx.Available),
		}
	}

	return GuardResult{Allowed: true}
}
