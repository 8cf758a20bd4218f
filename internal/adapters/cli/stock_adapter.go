package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/brickline/internal/ports/primary"
)

// StockAdapter is a thin adapter that translates CLI operations to
// StockService calls.
type StockAdapter struct {
	service primary.StockService
	out     io.Writer
}

// NewStockAdapter creates a new StockAdapter with the given service.
func NewStockAdapter(service primary.StockService, out io.Writer) *StockAdapter {
	return &StockAdapter{
		service: service,
		out:     out,
	}
}

// Receive books goods into a station.
func (a *StockAdapter) Receive(ctx context.Context, req primary.ReceiveRequest) error {
	line, err := a.service.Receive(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Received %dx %s at %s (now %d on hand)\n", req.Quantity, line.ItemID, line.StationName, line.Quantity)
	return nil
}

// Adjust corrects a stock line by a signed delta.
func (a *StockAdapter) Adjust(ctx context.Context, req primary.AdjustRequest) error {
	line, err := a.service.Adjust(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Adjusted %s at %s by %+d (now %d on hand)\n", line.ItemID, line.StationName, req.Delta, line.Quantity)
	return nil
}

// List prints stock lines with optional filters.
func (a *StockAdapter) List(ctx context.Context, filters primary.StockListFilters) error {
	lines, err := a.service.ListStock(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list stock: %w", err)
	}

	if len(lines) == 0 {
		fmt.Fprintln(a.out, "No stock on hand")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-18s %-10s %-8s %8s  %s\n", "STATION", "ITEM", "KIND", "QTY", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, l := range lines {
		fmt.Fprintf(a.out, "%-18s %-10s %-8s %8d  %s\n", l.StationName, l.ItemID, l.ItemKind, l.Quantity, l.ItemName)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Ledger prints movement history, oldest first.
func (a *StockAdapter) Ledger(ctx context.Context, filters primary.LedgerListFilters) error {
	entries, err := a.service.Ledger(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list ledger: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No ledger entries")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-18s %-10s %8s %8s %-22s %s\n", "ID", "STATION", "ITEM", "DELTA", "BALANCE", "REASON", "ORDER")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────")
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-6d %-18s %-10s %+8d %8d %-22s %s\n", e.ID, e.StationName, e.ItemID, e.Delta, e.BalanceAfter, e.Reason, e.OrderNumber)
	}
	fmt.Fprintln(a.out)
	return nil
}

// VerifyLedger replays the full ledger and reports drift.
func (a *StockAdapter) VerifyLedger(ctx context.Context) error {
	verification, err := a.service.VerifyLedger(ctx)
	if err != nil {
		return err
	}

	if verification.OK() {
		fmt.Fprintf(a.out, "✓ Ledger verified: %d entries over %d stock lines, no drift\n", verification.Entries, verification.Keys)
		return nil
	}

	fmt.Fprintf(a.out, "Ledger verification found %d problems:\n", len(verification.Problems))
	for _, p := range verification.Problems {
		fmt.Fprintf(a.out, "  ✗ %s\n", p)
	}
	return fmt.Errorf("ledger does not replay clean")
}
