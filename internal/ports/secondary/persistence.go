// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "context"

// CatalogRepository defines the secondary port for catalog persistence:
// workstations, items and the BOM graph.
type CatalogRepository interface {
	// CreateWorkstation persists a new workstation.
	CreateWorkstation(ctx context.Context, ws *WorkstationRecord) error

	// GetWorkstationByID retrieves a workstation by its ID.
	GetWorkstationByID(ctx context.Context, id string) (*WorkstationRecord, error)

	// GetWorkstationByName retrieves a workstation by its unique name.
	GetWorkstationByName(ctx context.Context, name string) (*WorkstationRecord, error)

	// ListWorkstations retrieves all workstations in chain order.
	ListWorkstations(ctx context.Context) ([]*WorkstationRecord, error)

	// CreateItem persists a new catalog item.
	CreateItem(ctx context.Context, item *ItemRecord) error

	// GetItemByID retrieves an item by its ID.
	GetItemByID(ctx context.Context, id string) (*ItemRecord, error)

	// ListItems retrieves items matching the given filters.
	ListItems(ctx context.Context, filters ItemFilters) ([]*ItemRecord, error)

	// GetNextItemID returns the next available item ID for a kind.
	GetNextItemID(ctx context.Context, kind string) (string, error)

	// CreateBOMEdge persists a new BOM edge.
	CreateBOMEdge(ctx context.Context, edge *BOMEdgeRecord) error

	// DeleteBOMEdge removes a BOM edge.
	DeleteBOMEdge(ctx context.Context, parentItemID, childItemID string) error

	// EdgeExists checks whether a BOM edge already exists.
	EdgeExists(ctx context.Context, parentItemID, childItemID string) (bool, error)

	// ListBOMEdges retrieves the whole BOM graph.
	ListBOMEdges(ctx context.Context) ([]*BOMEdgeRecord, error)

	// GetBOMChildren retrieves the edges below one parent item.
	GetBOMChildren(ctx context.Context, parentItemID string) ([]*BOMEdgeRecord, error)
}

// StockRepository defines the secondary port for stock state and the
// append-only ledger.
type StockRepository interface {
	// GetStockLine retrieves one stock line; ErrNotFound if the station
	// has never held the item.
	GetStockLine(ctx context.Context, workstationID, itemID string) (*StockLineRecord, error)

	// ListStockLines retrieves stock lines matching the given filters.
	ListStockLines(ctx context.Context, filters StockFilters) ([]*StockLineRecord, error)

	// ApplyMovements applies a batch of signed stock deltas in one
	// transaction: every movement updates its stock line and appends a
	// ledger entry carrying the resulting balance. The batch commits
	// together or not at all. Returns ErrInsufficientStock if any step
	// would drive a line negative, ErrConflict if a concurrent writer got
	// there first.
	ApplyMovements(ctx context.Context, movements []MovementRecord) error

	// ListLedgerEntries retrieves ledger entries matching the given
	// filters, oldest first.
	ListLedgerEntries(ctx context.Context, filters LedgerFilters) ([]*LedgerEntryRecord, error)
}

// OrderRepository defines the secondary port for order persistence.
type OrderRepository interface {
	// Create persists a new order with its lines in one transaction.
	// Returns ErrDuplicate when the open-downstream uniqueness guard
	// blocks the insert.
	Create(ctx context.Context, order *OrderRecord, lines []*OrderLineRecord) error

	// GetByID retrieves an order by its ID.
	GetByID(ctx context.Context, id string) (*OrderRecord, error)

	// GetByNumber retrieves an order by its human number.
	GetByNumber(ctx context.Context, number string) (*OrderRecord, error)

	// List retrieves orders matching the given filters.
	List(ctx context.Context, filters OrderFilters) ([]*OrderRecord, error)

	// ListBySource retrieves the downstream orders spawned by a source
	// order, oldest first.
	ListBySource(ctx context.Context, sourceOrderID string) ([]*OrderRecord, error)

	// GetLines retrieves an order's lines.
	GetLines(ctx context.Context, orderID string) ([]*OrderLineRecord, error)

	// UpdateStatus applies a status change and its side fields.
	UpdateStatus(ctx context.Context, id string, update OrderStatusUpdate) error

	// UpdateLineFulfilled sets the fulfilled quantity on one line.
	UpdateLineFulfilled(ctx context.Context, orderID, itemID string, fulfilled int64) error

	// GetNextNumber returns the next available human number for a kind.
	GetNextNumber(ctx context.Context, kind string) (string, error)
}

// WorkstationRecord represents a workstation as stored in persistence.
type WorkstationRecord struct {
	ID        string
	Name      string
	Position  int
	CreatedAt string
}

// ItemRecord represents a catalog item as stored in persistence.
type ItemRecord struct {
	ID         string
	Name       string
	Kind       string
	Category   string
	Procurable bool
	UnitCost   string // decimal string, e.g. "0.25"
	CreatedAt  string
	UpdatedAt  string
}

// BOMEdgeRecord represents a BOM edge as stored in persistence.
type BOMEdgeRecord struct {
	ID           string
	ParentItemID string
	ParentKind   string
	ChildItemID  string
	ChildKind    string
	QtyPer       int64
	CreatedAt    string
}

// OrderRecord represents an order as stored in persistence.
type OrderRecord struct {
	ID              string
	Number          string
	Kind            string
	Status          string
	Scenario        string // last routed scenario, advisory only
	WorkstationID   string
	Priority        string
	RequestedBy     string
	SourceOrderID   string // the order that spawned this one, if any
	ShortfallKind   string // item kind of the shortfall this order resolves
	ShortfallItemID string
	HaltReason      string
	CancelReason    string
	Note            string
	CreatedAt       string
	UpdatedAt       string
	ConfirmedAt     string
	StartedAt       string
	CompletedAt     string
}

// OrderLineRecord represents an order line as stored in persistence.
type OrderLineRecord struct {
	ID                string
	OrderID           string
	ItemID            string
	Quantity          int64
	FulfilledQuantity int64
	CreatedAt         string
}

// OrderStatusUpdate contains the fields a status transition writes.
// Pointer fields are only written when non-nil, so a transition touches
// exactly the columns it owns.
type OrderStatusUpdate struct {
	Status       string
	Scenario     *string
	ConfirmedAt  *string
	StartedAt    *string
	CompletedAt  *string
	HaltReason   *string
	CancelReason *string
}

// StockLineRecord represents a stock line as stored in persistence.
type StockLineRecord struct {
	ID            string
	WorkstationID string
	ItemID        string
	ItemKind      string
	Quantity      int64
	Version       int64
	UpdatedAt     string
}

// MovementRecord is one signed stock delta to apply, with its ledger
// metadata.
type MovementRecord struct {
	WorkstationID string
	ItemID        string
	ItemKind      string
	Delta         int64
	Reason        string
	OrderID       string
	Actor         string
	Note          string
}

// LedgerEntryRecord represents a ledger entry as stored in persistence.
type LedgerEntryRecord struct {
	ID            int64
	WorkstationID string
	ItemID        string
	ItemKind      string
	Delta         int64
	BalanceAfter  int64
	Reason        string
	OrderID       string
	Actor         string
	Note          string
	CreatedAt     string
}

// ItemFilters contains filter options for querying items.
type ItemFilters struct {
	Kind     string
	Category string
}

// OrderFilters contains filter options for querying orders.
type OrderFilters struct {
	Kind          string
	Status        string
	WorkstationID string
	OpenOnly      bool // exclude terminal statuses
	Limit         int
}

// StockFilters contains filter options for querying stock lines.
type StockFilters struct {
	WorkstationID string
	ItemID        string
	ItemKind      string
}

// LedgerFilters contains filter options for querying ledger entries.
type LedgerFilters struct {
	WorkstationID string
	ItemID        string
	OrderID       string
	Reason        string
	Limit         int
}
