// Package order contains the pure business logic for order lifecycles:
// kinds, statuses, legal transitions and their guards. This is part of the
// Functional Core - no I/O, only pure functions.
package order

import "github.com/example/brickline/internal/core/catalog"

// OrderKind represents the kind of an order, named for the station family
// that serves it.
type OrderKind string

const (
	KindCustomer        OrderKind = "customer"
	KindFinalAssembly   OrderKind = "final_assembly"
	KindWarehouse       OrderKind = "warehouse"
	KindAssemblyControl OrderKind = "assembly_control"
	KindProduction      OrderKind = "production"
	KindSupply          OrderKind = "supply"
)

// Flow groups order kinds by how they execute.
type Flow string

const (
	// FlowTransfer - fulfilled by moving existing stock to the order's
	// station. Customer and warehouse orders.
	FlowTransfer Flow = "transfer"

	// FlowProduction - physical work bracketed by start/complete,
	// consuming input stock and crediting newly produced output.
	// Production, assembly control and final assembly orders.
	FlowProduction Flow = "production"

	// FlowSupply - the external procurement edge of the chain.
	// Fulfillment is a receipt of goods from outside; nothing is debited.
	FlowSupply Flow = "supply"
)

// IsValid reports whether the kind is one of the known order kinds.
func (k OrderKind) IsValid() bool {
	switch k {
	case KindCustomer, KindFinalAssembly, KindWarehouse, KindAssemblyControl, KindProduction, KindSupply:
		return true
	}
	return false
}

// Flow returns how orders of this kind execute.
func (k OrderKind) Flow() Flow {
	switch k {
	case KindCustomer, KindWarehouse:
		return FlowTransfer
	case KindFinalAssembly, KindAssemblyControl, KindProduction:
		return FlowProduction
	case KindSupply:
		return FlowSupply
	}
	return ""
}

// NumberPrefix returns the human order number prefix for the kind.
func (k OrderKind) NumberPrefix() string {
	switch k {
	case KindCustomer:
		return "CO"
	case KindFinalAssembly:
		return "FO"
	case KindWarehouse:
		return "WO"
	case KindAssemblyControl:
		return "AO"
	case KindProduction:
		return "PO"
	case KindSupply:
		return "SO"
	}
	return ""
}

// DefaultStation returns the station an order of this kind is placed
// against when the caller does not pick one. Transfer kinds use the
// station the goods should land at; production kinds use the station the
// work happens at; supply orders land incoming parts at parts supply.
func (k OrderKind) DefaultStation() string {
	switch k {
	case KindCustomer:
		return catalog.StationFinishedGoods
	case KindFinalAssembly:
		return catalog.StationFinalAssembly
	case KindWarehouse:
		// Modules are staged to final assembly unless directed elsewhere.
		return catalog.StationFinalAssembly
	case KindAssemblyControl:
		return catalog.StationAssemblyControl
	case KindProduction:
		return catalog.StationProductionCell
	case KindSupply:
		return catalog.StationPartsSupply
	}
	return ""
}

// LineKinds returns the item kinds an order of this kind may carry.
// Customer and final assembly orders deal in products, the production side
// deals in modules, supply orders bring in parts, and warehouse transfers
// move anything below the product level.
func (k OrderKind) LineKinds() []catalog.ItemKind {
	switch k {
	case KindCustomer, KindFinalAssembly:
		return []catalog.ItemKind{catalog.KindProduct}
	case KindAssemblyControl, KindProduction:
		return []catalog.ItemKind{catalog.KindModule}
	case KindWarehouse:
		return []catalog.ItemKind{catalog.KindModule, catalog.KindPart}
	case KindSupply:
		return []catalog.ItemKind{catalog.KindPart}
	}
	return nil
}

// AllowsLineKind reports whether the order kind may carry lines of the
// given item kind.
func (k OrderKind) AllowsLineKind(itemKind catalog.ItemKind) bool {
	for _, allowed := range k.LineKinds() {
		if allowed == itemKind {
			return true
		}
	}
	return false
}

// AllKinds returns the order kinds in chain order, customer-facing first.
func AllKinds() []OrderKind {
	return []OrderKind{
		KindCustomer,
		KindFinalAssembly,
		KindWarehouse,
		KindAssemblyControl,
		KindProduction,
		KindSupply,
	}
}

// Priority of an order, used for operator queue sorting only; the engine
// itself allocates stock in submission order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether the priority is one of the known levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DefaultPriority returns the priority assigned when none is given.
func DefaultPriority() Priority {
	return PriorityMedium
}
