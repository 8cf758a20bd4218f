// Package order contains the pure business logic for order lifecycles.
// This is part of the Functional Core - no I/O, only pure functions.
package order

import "time"

// OrderStatus represents the possible states of an order.
type OrderStatus string

const (
	StatusPending            OrderStatus = "pending"
	StatusConfirmed          OrderStatus = "confirmed"
	StatusAwaitingDownstream OrderStatus = "awaiting_downstream"
	StatusInProgress         OrderStatus = "in_progress"
	StatusHalted             OrderStatus = "halted"
	StatusCompleted          OrderStatus = "completed"
	StatusCancelled          OrderStatus = "cancelled"
	StatusRejected           OrderStatus = "rejected"
)

// IsValid reports whether the status is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusAwaitingDownstream, StatusInProgress,
		StatusHalted, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the status is an end state. Terminal orders
// are retained for audit, never deleted.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Command is one order-lifecycle command accepted by the orchestrator.
type Command string

const (
	CommandConfirm          Command = "confirm"
	CommandFulfill          Command = "fulfill"
	CommandStart            Command = "start"
	CommandComplete         Command = "complete"
	CommandHalt             Command = "halt"
	CommandResume           Command = "resume"
	CommandCancel           Command = "cancel"
	CommandCreateDownstream Command = "create_downstream"
)

// transitions maps each command to its legal (from -> to) status pairs.
// Cancel is handled separately in Transition because it is legal from any
// non-terminal status.
var transitions = map[Command]map[OrderStatus]OrderStatus{
	CommandConfirm: {
		StatusPending: StatusConfirmed,
		// Downstream completion re-confirms a waiting source order so it
		// can be re-routed against current stock.
		StatusAwaitingDownstream: StatusConfirmed,
	},
	CommandFulfill: {
		StatusConfirmed: StatusCompleted,
	},
	CommandStart: {
		StatusConfirmed: StatusInProgress,
	},
	CommandComplete: {
		StatusInProgress: StatusCompleted,
	},
	CommandHalt: {
		StatusInProgress: StatusHalted,
	},
	CommandResume: {
		StatusHalted: StatusInProgress,
	},
	CommandCreateDownstream: {
		StatusConfirmed: StatusAwaitingDownstream,
		// Re-raising a shortfall while already waiting stays waiting; the
		// duplicate guard on the store makes the repeat a no-op.
		StatusAwaitingDownstream: StatusAwaitingDownstream,
	},
}

// Transition returns the status an order reaches when the command is
// applied in the current status, and whether that transition is legal.
func Transition(cmd Command, current OrderStatus) (OrderStatus, bool) {
	if cmd == CommandCancel {
		if current.IsTerminal() {
			return "", false
		}
		return StatusCancelled, true
	}
	next, ok := transitions[cmd][current]
	return next, ok
}

// StatusTransitionResult contains the result of a status transition.
// This is a value object that captures both the new status and the
// lifecycle timestamps the transition stamps.
type StatusTransitionResult struct {
	NewStatus   OrderStatus
	ConfirmedAt *time.Time // Set when transitioning to confirmed
	StartedAt   *time.Time // Set when transitioning to in_progress
	CompletedAt *time.Time // Set when transitioning to completed
}

// ApplyStatusTransition applies a status transition and returns the result.
// This is a pure function; the caller passes the current time to enable
// testing. Resuming a halted order re-enters in_progress - the caller keeps
// the original StartedAt in that case.
func ApplyStatusTransition(newStatus OrderStatus, now time.Time) StatusTransitionResult {
	result := StatusTransitionResult{
		NewStatus: newStatus,
	}

	switch newStatus {
	case StatusConfirmed:
		result.ConfirmedAt = &now
	case StatusInProgress:
		result.StartedAt = &now
	case StatusCompleted:
		result.CompletedAt = &now
	}

	return result
}

// InitialStatus returns the initial status for a new order.
func InitialStatus() OrderStatus {
	return StatusPending
}
