// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import "context"

// CatalogService defines the primary port for catalog operations:
// the workstation chain, items and the BOM graph.
type CatalogService interface {
	// InitChain creates the six-station assembly chain if it does not
	// exist yet. Idempotent.
	InitChain(ctx context.Context) ([]*Workstation, error)

	// ListStations lists the workstations in chain order.
	ListStations(ctx context.Context) ([]*Workstation, error)

	// CreateItem creates a catalog item. The ID is generated per kind.
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)

	// GetItem retrieves an item by ID.
	GetItem(ctx context.Context, itemID string) (*Item, error)

	// ListItems lists items with optional filters.
	ListItems(ctx context.Context, filters ItemListFilters) ([]*Item, error)

	// AddBOMEdge adds a composition edge to the BOM graph. The edge must
	// step one level down the chain and must not introduce a cycle.
	AddBOMEdge(ctx context.Context, req AddBOMEdgeRequest) (*BOMEdge, error)

	// RemoveBOMEdge removes a composition edge.
	RemoveBOMEdge(ctx context.Context, parentItemID, childItemID string) error

	// GetBOM retrieves the exploded BOM tree below an item.
	GetBOM(ctx context.Context, itemID string) (*BOMNode, error)

	// CheckBOM validates the whole BOM graph: kinds step one level down
	// and no item can reach itself.
	CheckBOM(ctx context.Context) error

	// RolledUpCost computes the full material cost of one unit of an item
	// as a decimal string.
	RolledUpCost(ctx context.Context, itemID string) (string, error)
}

// CreateItemRequest contains parameters for creating an item.
type CreateItemRequest struct {
	Name       string
	Kind       string
	Category   string
	Procurable bool
	UnitCost   string // decimal string; defaults to "0"
}

// Item represents a catalog item at the port boundary.
type Item struct {
	ID         string
	Name       string
	Kind       string
	Category   string
	Procurable bool
	UnitCost   string
	CreatedAt  string
}

// ItemListFilters contains filter options for listing items.
type ItemListFilters struct {
	Kind     string
	Category string
}

// Workstation represents a workstation at the port boundary.
type Workstation struct {
	ID       string
	Name     string
	Position int
}

// AddBOMEdgeRequest contains parameters for adding a BOM edge.
type AddBOMEdgeRequest struct {
	ParentItemID string
	ChildItemID  string
	QtyPer       int64
}

// BOMEdge represents a BOM edge at the port boundary.
type BOMEdge struct {
	ID           string
	ParentItemID string
	ChildItemID  string
	QtyPer       int64
}

// BOMNode is one level of an exploded BOM tree.
type BOMNode struct {
	ItemID   string
	ItemName string
	Kind     string
	QtyPer   int64 // quantity per one unit of the parent; 1 at the root
	Children []BOMNode
}
