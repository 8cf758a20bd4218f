// Package scenario routes confirmed orders to their fulfillment scenario
// and decides which lifecycle commands that scenario allows. This is part
// of the Functional Core - no I/O, only pure functions.
//
// A scenario is never cached across commands. Stock may change between
// confirmation and the operator's next action, so callers re-run netting
// and re-derive the scenario every time an action is attempted.
package scenario

import (
	"github.com/example/brickline/internal/core/catalog"
	"github.com/example/brickline/internal/core/netting"
	"github.com/example/brickline/internal/core/order"
)

// Scenario is the routing decision for a confirmed order: the next legal
// move presented to the operator.
type Scenario string

const (
	// DirectFulfillment - the order's own station covers every line.
	DirectFulfillment Scenario = "direct_fulfillment"

	// UpstreamTransfer - covered in full, but only by drawing stock held
	// upstream. A warehouse order makes the move formal; fulfilling
	// directly executes it in one step.
	UpstreamTransfer Scenario = "upstream_transfer"

	// ProductionRequired - part of the requirement must be newly produced
	// or procured by a downstream order.
	ProductionRequired Scenario = "production_required"
)

// IsValid reports whether the scenario is one of the known scenarios.
func (s Scenario) IsValid() bool {
	switch s {
	case DirectFulfillment, UpstreamTransfer, ProductionRequired:
		return true
	}
	return false
}

// FromTag maps a netting tag to the operator-facing scenario.
func FromTag(t netting.Tag) Scenario {
	switch t {
	case netting.TagDirect:
		return DirectFulfillment
	case netting.TagUpstream:
		return UpstreamTransfer
	}
	return ProductionRequired
}

// Route derives the scenario for a transfer or supply order from its
// demand plan.
func Route(plan *netting.Plan) Scenario {
	return FromTag(plan.Tag)
}

// RouteInputs derives the scenario for a production-flow order from its
// input plan. Work either has its input materials on hand (start is
// legal) or needs them produced/procured first; there is no transfer
// middle ground because start consumes coverage from wherever it sits.
func RouteInputs(plan *netting.Plan) Scenario {
	if plan.InputsCovered() {
		return DirectFulfillment
	}
	return ProductionRequired
}

// AllowedCommands returns the lifecycle commands the scenario permits for
// an order of the given flow. Cancel is always legal for open orders and
// is not listed.
func AllowedCommands(f order.Flow, s Scenario) []order.Command {
	switch f {
	case order.FlowTransfer:
		switch s {
		case DirectFulfillment:
			return []order.Command{order.CommandFulfill}
		case UpstreamTransfer:
			return []order.Command{order.CommandFulfill, order.CommandCreateDownstream}
		case ProductionRequired:
			return []order.Command{order.CommandCreateDownstream}
		}
	case order.FlowProduction:
		switch s {
		case DirectFulfillment, UpstreamTransfer:
			return []order.Command{order.CommandStart}
		case ProductionRequired:
			return []order.Command{order.CommandCreateDownstream}
		}
	case order.FlowSupply:
		// The procurement edge: goods arrive from outside regardless of
		// local stock.
		return []order.Command{order.CommandFulfill}
	}
	return nil
}

// Allows reports whether the scenario permits the command for the flow.
func Allows(f order.Flow, s Scenario, cmd order.Command) bool {
	for _, c := range AllowedCommands(f, s) {
		if c == cmd {
			return true
		}
	}
	return false
}

// DownstreamKind returns the order kind that resolves one downstream line
// under the scenario: upstream transfers raise warehouse orders, shortfalls
// raise the producer of the missing kind - final assembly for products,
// production for modules, supply for parts.
func DownstreamKind(s Scenario, itemKind catalog.ItemKind) (order.OrderKind, bool) {
	switch s {
	case UpstreamTransfer:
		return order.KindWarehouse, true
	case ProductionRequired:
		switch itemKind {
		case catalog.KindProduct:
			return order.KindFinalAssembly, true
		case catalog.KindModule:
			return order.KindProduction, true
		case catalog.KindPart:
			return order.KindSupply, true
		}
	}
	return "", false
}

// DownstreamStation returns the station a spawned downstream order is
// placed against. Warehouse transfers land goods at the source order's own
// station; every other kind works at its home station.
func DownstreamStation(kind order.OrderKind, sourceStationName string) string {
	if kind == order.KindWarehouse {
		return sourceStationName
	}
	return kind.DefaultStation()
}

// DownstreamLines returns the lines downstream orders should be raised
// for. Under an upstream transfer these are the covered lines whose stock
// sits away from the target; under production they are the shortfalls -
// one level below the roots for transfer orders, the roots themselves for
// production-flow input plans.
func DownstreamLines(f order.Flow, s Scenario, plan *netting.Plan, targetStationID string) []netting.Line {
	switch s {
	case UpstreamTransfer:
		return plan.TransferLines(targetStationID)
	case ProductionRequired:
		if f == order.FlowProduction {
			return plan.RootShortfalls()
		}
		return plan.ShortfallLines()
	}
	return nil
}

// NextCommands returns the commands an operator may issue against an order
// in the given status. For confirmed orders the scenario decides; for the
// other open statuses the state machine alone does. Cancel is always legal
// for open orders and is not listed.
func NextCommands(f order.Flow, status order.OrderStatus, s Scenario) []order.Command {
	switch status {
	case order.StatusPending:
		return []order.Command{order.CommandConfirm}
	case order.StatusConfirmed:
		return AllowedCommands(f, s)
	case order.StatusAwaitingDownstream:
		return []order.Command{order.CommandConfirm, order.CommandCreateDownstream}
	case order.StatusInProgress:
		return []order.Command{order.CommandComplete, order.CommandHalt}
	case order.StatusHalted:
		return []order.Command{order.CommandResume}
	}
	return nil
}
