// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import "context"

// OrderService defines the primary port for order lifecycle operations.
// One uniform command surface covers all six order kinds; the guards and
// the scenario router decide what each kind allows in its current state.
// Order references accept either the internal ID or the human number.
type OrderService interface {
	// CreateOrder creates a new pending order with its lines.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)

	// GetOrder retrieves an order with its lines.
	GetOrder(ctx context.Context, ref string) (*Order, error)

	// ListOrders lists orders with optional filters.
	ListOrders(ctx context.Context, filters OrderListFilters) ([]*Order, error)

	// Plan previews the order's current netting plan, scenario and next
	// legal commands without changing anything.
	Plan(ctx context.Context, ref string) (*PlanView, error)

	// Confirm confirms a pending order and routes its scenario.
	Confirm(ctx context.Context, ref string) (*CommandResult, error)

	// Fulfill fulfills a confirmed transfer or supply order from stock.
	Fulfill(ctx context.Context, ref string) (*CommandResult, error)

	// Start begins production work, consuming input stock.
	Start(ctx context.Context, ref string) (*CommandResult, error)

	// Complete finishes production work, crediting output stock.
	Complete(ctx context.Context, ref string) (*CommandResult, error)

	// Halt pauses in-progress work with an operator-supplied reason.
	Halt(ctx context.Context, ref, reason string) (*CommandResult, error)

	// Resume continues halted work.
	Resume(ctx context.Context, ref string) (*CommandResult, error)

	// Cancel cancels an open order, reversing any stock it already moved.
	Cancel(ctx context.Context, ref, reason string) (*CommandResult, error)

	// CreateDownstream raises downstream orders for the order's current
	// shortfalls. Idempotent: repeats and concurrent retries never spawn
	// duplicates.
	CreateDownstream(ctx context.Context, ref string) (*CommandResult, error)
}

// CreateOrderRequest contains parameters for creating an order.
type CreateOrderRequest struct {
	Kind        string
	StationName string // defaults to the kind's home station
	Priority    string // defaults to medium
	RequestedBy string
	Note        string
	Lines       []LineRequest
}

// LineRequest is one requested item quantity.
type LineRequest struct {
	ItemID   string
	Quantity int64
}

// Order represents an order entity at the port boundary.
type Order struct {
	ID            string
	Number        string
	Kind          string
	Status        string
	Scenario      string
	StationName   string
	Priority      string
	RequestedBy   string
	SourceNumber  string // human number of the order that spawned this one
	HaltReason    string
	CancelReason  string
	Note          string
	CreatedAt     string
	ConfirmedAt   string
	StartedAt     string
	CompletedAt   string
	Lines         []OrderLine
}

// OrderLine is one item line of an order at the port boundary.
type OrderLine struct {
	ItemID    string
	ItemName  string
	Quantity  int64
	Fulfilled int64
}

// OrderListFilters contains filter options for listing orders.
type OrderListFilters struct {
	Kind        string
	Status      string
	StationName string
	OpenOnly    bool
	Limit       int
}

// CommandResult contains the outcome of a lifecycle command.
type CommandResult struct {
	Order *Order

	// Scenario in effect after the command, where one was routed.
	Scenario string

	// AllowedCommands the operator may issue next.
	AllowedCommands []string

	// Created downstream orders, when the command spawned any.
	Created []*Order

	// Notified source orders (by number) that were re-confirmed because
	// this order completed.
	Notified []string
}

// PlanView is a read-only preview of an order's netting outcome.
type PlanView struct {
	Scenario        string
	AllowedCommands []string
	Nodes           []PlanNode
}

// PlanNode is one requirement in the previewed netting tree.
type PlanNode struct {
	ItemID   string
	ItemName string
	Kind     string
	Required int64
	Covered  int64
	Net      int64
	Tag      string
	Coverage []PlanCover
	Children []PlanNode
}

// PlanCover records stock drawn from one station in a preview.
type PlanCover struct {
	StationName string
	Quantity    int64
}
