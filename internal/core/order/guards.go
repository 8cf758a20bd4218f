// Package order contains the pure business logic for order lifecycles.
// Guards are pure functions that evaluate command preconditions without
// side effects. Scenario gating (which commands the current stock
// situation allows) lives in the scenario package; these guards cover
// status and kind legality.
package order

import (
	"fmt"

	"github.com/example/brickline/internal/core/catalog"
)

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

// LineInput is one requested order line, with its catalog lookup
// pre-fetched for guard evaluation.
type LineInput struct {
	ItemID     string
	ItemExists bool
	ItemKind   catalog.ItemKind
	Quantity   int64
}

// CreateOrderContext provides context for order creation guards.
type CreateOrderContext struct {
	Kind          OrderKind
	StationName   string
	StationExists bool
	Lines         []LineInput
}

// ConfirmContext provides context for the confirm guard.
type ConfirmContext struct {
	OrderNumber string
	Status      OrderStatus
}

// FulfillContext provides context for the fulfill guard.
type FulfillContext struct {
	OrderNumber string
	Kind        OrderKind
	Status      OrderStatus
}

// StartContext provides context for the start guard.
type StartContext struct {
	OrderNumber   string
	Kind          OrderKind
	Status        OrderStatus
	InputsCovered bool
}

// CompleteContext provides context for the complete guard.
type CompleteContext struct {
	OrderNumber string
	Kind        OrderKind
	Status      OrderStatus
}

// HaltContext provides context for the halt guard.
type HaltContext struct {
	OrderNumber string
	Status      OrderStatus
	Reason      string
}

// ResumeContext provides context for the resume guard.
type ResumeContext struct {
	OrderNumber string
	Status      OrderStatus
}

// CancelContext provides context for the cancel guard.
type CancelContext struct {
	OrderNumber string
	Status      OrderStatus
}

// DownstreamContext provides context for the downstream-order guard.
type DownstreamContext struct {
	OrderNumber string
	Kind        OrderKind
	Status      OrderStatus
}

// CanCreateOrder evaluates whether an order can be created.
// Rules:
// - Kind must be known
// - Station must exist
// - At least one line, every item known, quantities positive
// - Line item kinds must fit the order kind (customers buy products,
//   supply orders bring in parts, and so on)
func CanCreateOrder(ctx CreateOrderContext) GuardResult {
	if !ctx.Kind.IsValid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown order kind %q", ctx.Kind),
		}
	}

	if !ctx.StationExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("workstation %s not found", ctx.StationName),
		}
	}

	if len(ctx.Lines) == 0 {
		return GuardResult{
			Allowed: false,
			Reason:  "an order needs at least one item line",
		}
	}

	for _, line := range ctx.Lines {
		if !line.ItemExists {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("item %s not found", line.ItemID),
			}
		}
		if line.Quantity <= 0 {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("quantity for %s must be positive, got %d", line.ItemID, line.Quantity),
			}
		}
		if !ctx.Kind.AllowsLineKind(line.ItemKind) {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("%s orders cannot carry %s items (%s)", ctx.Kind, line.ItemKind, line.ItemID),
			}
		}
	}

	return GuardResult{Allowed: true}
}

// CanConfirm evaluates whether an order can be confirmed.
// Rules:
// - Status must be "pending" or "awaiting_downstream" (re-confirming after
//   downstream orders resolved the shortfall)
func CanConfirm(ctx ConfirmContext) GuardResult {
	if ctx.Status != StatusPending && ctx.Status != StatusAwaitingDownstream {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only confirm pending or awaiting orders (current status: %s)", ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}

// CanFulfill evaluates whether an order can be fulfilled from stock.
// Rules:
// - Kind must be a transfer or supply kind (production kinds use start/complete)
// - Status must be "confirmed"
func CanFulfill(ctx FulfillContext) GuardResult {
	if ctx.Kind.Flow() == FlowProduction {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s orders are produced, not fulfilled from stock - use start and complete", ctx.Kind),
		}
	}

	if ctx.Status != StatusConfirmed {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only fulfill confirmed orders (current status: %s)", ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}

// CanStart evaluates whether production work on an order can start.
// Rules:
// - Kind must be a production kind
// - Status must be "confirmed"
// - Every input material must be on hand
func CanStart(ctx StartContext) GuardResult {
	if ctx.Kind.Flow() != FlowProduction {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s orders are fulfilled from stock, not started", ctx.Kind),
		}
	}

	if ctx.Status != StatusConfirmed {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only start confirmed orders (current status: %s)", ctx.Status),
		}
	}

	if !ctx.InputsCovered {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("input materials for %s are not on hand. Order them first with: brickline order downstream %s", ctx.OrderNumber, ctx.OrderNumber),
		}
	}

	return GuardResult{Allowed: true}
}

// CanComplete evaluates whether production work on an order can complete.
// Rules:
// - Kind must be a production kind
// - Status must be "in_progress"
func CanComplete(ctx CompleteContext) GuardResult {
	if ctx.Kind.Flow() != FlowProduction {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s orders are fulfilled from stock, not completed from work", ctx.Kind),
		}
	}

	if ctx.Status != StatusInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only complete in_progress orders (current status: %s)", ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}

// CanHalt evaluates whether work on an order can be halted.
// Rules:
// - Status must be "in_progress"
// - A reason is required
func CanHalt(ctx HaltContext) GuardResult {
	if ctx.Status != StatusInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only halt in_progress orders (current status: %s)", ctx.Status),
		}
	}

	if ctx.Reason == "" {
		return GuardResult{
			Allowed: false,
			Reason:  "a halt reason is required",
		}
	}

	return GuardResult{Allowed: true}
}

// CanResume evaluates whether halted work on an order can resume.
// Rules:
// - Status must be "halted"
func CanResume(ctx ResumeContext) GuardResult {
	if ctx.Status != StatusHalted {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only resume halted orders (current status: %s)", ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}

// CanCancel evaluates whether an order can be cancelled.
// Rules:
// - Status must not be terminal
func CanCancel(ctx CancelContext) GuardResult {
	if ctx.Status.IsTerminal() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("order %s is already %s", ctx.OrderNumber, ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}

// CanCreateDownstream evaluates whether downstream orders can be raised
// for an order's shortfalls.
// Rules:
// - Supply orders sit at the edge of the chain and have no downstream
// - Status must be "confirmed" or "awaiting_downstream" (re-invoking is
//   idempotent; the store's duplicate guard makes repeats no-ops)
func CanCreateDownstream(ctx DownstreamContext) GuardResult {
	if ctx.Kind.Flow() == FlowSupply {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("supply orders source from outside the chain - nothing downstream of %s", ctx.OrderNumber),
		}
	}

	if ctx.Status != StatusConfirmed && ctx.Status != StatusAwaitingDownstream {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only order downstream for confirmed orders (current status: %s)", ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}
