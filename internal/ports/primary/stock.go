// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import "context"

// StockService defines the primary port for stock and ledger operations.
type StockService interface {
	// Receive books goods into a station outside of any order.
	Receive(ctx context.Context, req ReceiveRequest) (*StockLine, error)

	// Adjust corrects a stock line by a signed delta (stock takes,
	// breakage). Downward adjustments are bounded by what is on hand.
	Adjust(ctx context.Context, req AdjustRequest) (*StockLine, error)

	// GetStock retrieves one stock line by station and item.
	GetStock(ctx context.Context, stationName, itemID string) (*StockLine, error)

	// ListStock lists stock lines with optional filters.
	ListStock(ctx context.Context, filters StockListFilters) ([]*StockLine, error)

	// Ledger lists ledger entries, oldest first.
	Ledger(ctx context.Context, filters LedgerListFilters) ([]*LedgerEntry, error)

	// VerifyLedger replays the whole ledger and checks that every running
	// balance is consistent, never negative, and ends at the stored stock.
	VerifyLedger(ctx context.Context) (*LedgerVerification, error)
}

// ReceiveRequest contains parameters for receiving goods.
type ReceiveRequest struct {
	StationName string
	ItemID      string
	Quantity    int64
	Note        string
}

// AdjustRequest contains parameters for a manual stock adjustment.
type AdjustRequest struct {
	StationName string
	ItemID      string
	Delta       int64
	Note        string
}

// StockLine represents a stock line at the port boundary.
type StockLine struct {
	StationName string
	ItemID      string
	ItemName    string
	ItemKind    string
	Quantity    int64
	UpdatedAt   string
}

// StockListFilters contains filter options for listing stock.
type StockListFilters struct {
	StationName string
	ItemID      string
	ItemKind    string
}

// LedgerEntry represents a ledger entry at the port boundary.
type LedgerEntry struct {
	ID           int64
	StationName  string
	ItemID       string
	ItemKind     string
	Delta        int64
	BalanceAfter int64
	Reason       string
	OrderNumber  string
	Actor        string
	Note         string
	CreatedAt    string
}

// LedgerListFilters contains filter options for listing ledger entries.
type LedgerListFilters struct {
	StationName string
	ItemID      string
	OrderRef    string // order id or human number
	Reason      string
	Limit       int
}

// LedgerVerification is the outcome of a full ledger replay.
type LedgerVerification struct {
	Entries  int
	Keys     int // distinct (station, item) pairs
	Problems []string
}

// OK reports whether the replay found no problems.
func (v *LedgerVerification) OK() bool {
	return len(v.Problems) == 0
}
