package app

import (
	"context"
	"errors"
	"fmt"

	corecatalog "github.com/example/brickline/internal/core/catalog"
	"github.com/example/brickline/internal/core/netting"
	corestock "github.com/example/brickline/internal/core/stock"
	"github.com/example/brickline/internal/ctxutil"
	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/ports/secondary"
)

// StockServiceImpl implements the StockService interface.
type StockServiceImpl struct {
	catalogRepo secondary.CatalogRepository
	stockRepo   secondary.StockRepository
	orderRepo   secondary.OrderRepository
	activity    secondary.ActivityLog
}

// NewStockService creates a new StockService with injected dependencies.
func NewStockService(
	catalogRepo secondary.CatalogRepository,
	stockRepo secondary.StockRepository,
	orderRepo secondary.OrderRepository,
	activity secondary.ActivityLog,
) *StockServiceImpl {
	return &StockServiceImpl{
		catalogRepo: catalogRepo,
		stockRepo:   stockRepo,
		orderRepo:   orderRepo,
		activity:    activity,
	}
}

// Receive books goods into a station outside of any order.
func (s *StockServiceImpl) Receive(ctx context.Context, req primary.ReceiveRequest) (*primary.StockLine, error) {
	// 1. Resolve station and item for the guard
	station, stationErr := s.catalogRepo.GetWorkstationByName(ctx, req.StationName)
	if stationErr != nil && !errors.Is(stationErr, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up station: %w", stationErr)
	}
	item, itemErr := s.catalogRepo.GetItemByID(ctx, req.ItemID)
	if itemErr != nil && !errors.Is(itemErr, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up item: %w", itemErr)
	}

	// 2. Check guard
	guardCtx := corestock.ReceiveContext{
		StationName:   req.StationName,
		StationExists: stationErr == nil,
		ItemID:        req.ItemID,
		ItemExists:    itemErr == nil,
		Quantity:      req.Quantity,
	}
	if result := corestock.CanReceiveStock(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	// 3. Plan and apply the movement
	movements := corestock.ReceiptMovements(station.ID, []netting.Line{
		{ItemID: item.ID, Kind: corecatalog.ItemKind(item.Kind), Quantity: req.Quantity},
	}, corestock.ReasonManualReceipt)

	if err := s.stockRepo.ApplyMovements(ctx, movementRecords(ctx, movements, "", req.Note)); err != nil {
		return nil, fmt.Errorf("failed to receive stock: %w", err)
	}

	_ = s.activity.Record(ctx, secondary.ActivityEntry{
		EntityType: "stock",
		EntityID:   station.ID,
		Action:     "receive",
		Detail:     fmt.Sprintf("%dx %s", req.Quantity, item.ID),
	})

	return s.stockLine(ctx, station, item)
}

// Adjust corrects a stock line by a signed delta.
func (s *StockServiceImpl) Adjust(ctx context.Context, req primary.AdjustRequest) (*primary.StockLine, error) {
	// 1. Resolve station, item and current balance for the guard
	station, stationErr := s.catalogRepo.GetWorkstationByName(ctx, req.StationName)
	if stationErr != nil && !errors.Is(stationErr, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up station: %w", stationErr)
	}
	item, itemErr := s.catalogRepo.GetItemByID(ctx, req.ItemID)
	if itemErr != nil && !errors.Is(itemErr, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up item: %w", itemErr)
	}

	var available int64
	if stationErr == nil && itemErr == nil {
		line, err := s.stockRepo.GetStockLine(ctx, station.ID, item.ID)
		if err == nil {
			available = line.Quantity
		} else if !errors.Is(err, secondary.ErrNotFound) {
			return nil, fmt.Errorf("failed to read stock line: %w", err)
		}
	}

	// 2. Check guard
	guardCtx := corestock.AdjustContext{
		StationName:   req.StationName,
		StationExists: stationErr == nil,
		ItemID:        req.ItemID,
		ItemExists:    itemErr == nil,
		Delta:         req.Delta,
		Available:     available,
	}
	if result := corestock.CanAdjustStock(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	// 3. Apply the movement
	movements := []corestock.Movement{{
		StationID: station.ID,
		ItemID:    item.ID,
		ItemKind:  corecatalog.ItemKind(item.Kind),
		Delta:     req.Delta,
		Reason:    corestock.ReasonManualAdjustment,
	}}
	if err := s.stockRepo.ApplyMovements(ctx, movementRecords(ctx, movements, "", req.Note)); err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	_ = s.activity.Record(ctx, secondary.ActivityEntry{
		EntityType: "stock",
		EntityID:   station.ID,
		Action:     "adjust",
		Detail:     fmt.Sprintf("%+dx %s", req.Delta, item.ID),
	})

	return s.stockLine(ctx, station, item)
}

// GetStock retrieves one stock line by station and item. A station that
// has never held the item reports a zero balance.
func (s *StockServiceImpl) GetStock(ctx context.Context, stationName, itemID string) (*primary.StockLine, error) {
	station, err := s.catalogRepo.GetWorkstationByName(ctx, stationName)
	if err != nil {
		return nil, err
	}
	item, err := s.catalogRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return s.stockLine(ctx, station, item)
}

func (s *StockServiceImpl) stockLine(ctx context.Context, station *secondary.WorkstationRecord, item *secondary.ItemRecord) (*primary.StockLine, error) {
	line := &primary.StockLine{
		StationName: station.Name,
		ItemID:      item.ID,
		ItemName:    item.Name,
		ItemKind:    item.Kind,
	}

	record, err := s.stockRepo.GetStockLine(ctx, station.ID, item.ID)
	if err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			return line, nil
		}
		return nil, fmt.Errorf("failed to read stock line: %w", err)
	}

	line.Quantity = record.Quantity
	line.UpdatedAt = record.UpdatedAt
	return line, nil
}

// ListStock lists stock lines with optional filters.
func (s *StockServiceImpl) ListStock(ctx context.Context, filters primary.StockListFilters) ([]*primary.StockLine, error) {
	repoFilters := secondary.StockFilters{
		ItemID:   filters.ItemID,
		ItemKind: filters.ItemKind,
	}
	if filters.StationName != "" {
		station, err := s.catalogRepo.GetWorkstationByName(ctx, filters.StationName)
		if err != nil {
			return nil, err
		}
		repoFilters.WorkstationID = station.ID
	}

	records, err := s.stockRepo.ListStockLines(ctx, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}

	stations, err := s.stationNames(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.itemNames(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]*primary.StockLine, len(records))
	for i, r := range records {
		lines[i] = &primary.StockLine{
			StationName: stations[r.WorkstationID],
			ItemID:      r.ItemID,
			ItemName:    items[r.ItemID],
			ItemKind:    r.ItemKind,
			Quantity:    r.Quantity,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return lines, nil
}

// Ledger lists ledger entries, oldest first.
func (s *StockServiceImpl) Ledger(ctx context.Context, filters primary.LedgerListFilters) ([]*primary.LedgerEntry, error) {
	repoFilters := secondary.LedgerFilters{
		ItemID: filters.ItemID,
		Reason: filters.Reason,
		Limit:  filters.Limit,
	}
	if filters.StationName != "" {
		station, err := s.catalogRepo.GetWorkstationByName(ctx, filters.StationName)
		if err != nil {
			return nil, err
		}
		repoFilters.WorkstationID = station.ID
	}
	if filters.OrderRef != "" {
		order, err := s.resolveOrderRef(ctx, filters.OrderRef)
		if err != nil {
			return nil, err
		}
		repoFilters.OrderID = order.ID
	}

	records, err := s.stockRepo.ListLedgerEntries(ctx, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}

	stations, err := s.stationNames(ctx)
	if err != nil {
		return nil, err
	}

	// Resolve order numbers once per distinct order
	orderNumbers := map[string]string{}
	entries := make([]*primary.LedgerEntry, len(records))
	for i, r := range records {
		number := ""
		if r.OrderID != "" {
			if n, ok := orderNumbers[r.OrderID]; ok {
				number = n
			} else if order, err := s.orderRepo.GetByID(ctx, r.OrderID); err == nil {
				number = order.Number
				orderNumbers[r.OrderID] = number
			}
		}

		entries[i] = &primary.LedgerEntry{
			ID:           r.ID,
			StationName:  stations[r.WorkstationID],
			ItemID:       r.ItemID,
			ItemKind:     r.ItemKind,
			Delta:        r.Delta,
			BalanceAfter: r.BalanceAfter,
			Reason:       r.Reason,
			OrderNumber:  number,
			Actor:        r.Actor,
			Note:         r.Note,
			CreatedAt:    r.CreatedAt,
		}
	}
	return entries, nil
}

// VerifyLedger replays the whole ledger and checks that every running
// balance is consistent, never negative, and ends at the stored stock.
func (s *StockServiceImpl) VerifyLedger(ctx context.Context) (*primary.LedgerVerification, error) {
	entries, err := s.stockRepo.ListLedgerEntries(ctx, secondary.LedgerFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}
	lines, err := s.stockRepo.ListStockLines(ctx, secondary.StockFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}

	verification := &primary.LedgerVerification{Entries: len(entries)}

	type key struct{ station, item string }
	running := map[key]int64{}

	for _, e := range entries {
		k := key{e.WorkstationID, e.ItemID}
		balance := running[k] + e.Delta
		if balance < 0 {
			verification.Problems = append(verification.Problems,
				fmt.Sprintf("entry %d drives %s at %s to %d", e.ID, e.ItemID, e.WorkstationID, balance))
		}
		if balance != e.BalanceAfter {
			verification.Problems = append(verification.Problems,
				fmt.Sprintf("entry %d records balance %d for %s at %s, replay gives %d",
					e.ID, e.BalanceAfter, e.ItemID, e.WorkstationID, balance))
		}
		running[k] = balance
	}
	verification.Keys = len(running)

	// Every replayed balance must match the stored stock line, and every
	// stocked line must have a history.
	stored := map[key]int64{}
	for _, l := range lines {
		stored[key{l.WorkstationID, l.ItemID}] = l.Quantity
	}
	for k, balance := range running {
		if stored[k] != balance {
			verification.Problems = append(verification.Problems,
				fmt.Sprintf("ledger ends at %d for %s at %s, stock line holds %d", balance, k.item, k.station, stored[k]))
		}
	}
	for k, quantity := range stored {
		if _, ok := running[k]; !ok && quantity != 0 {
			verification.Problems = append(verification.Problems,
				fmt.Sprintf("stock line holds %d of %s at %s with no ledger history", quantity, k.item, k.station))
		}
	}

	return verification, nil
}

// movementRecords attaches ledger metadata to planned movements.
func movementRecords(ctx context.Context, movements []corestock.Movement, orderID, note string) []secondary.MovementRecord {
	actor := ctxutil.ActorFromContext(ctx)

	records := make([]secondary.MovementRecord, len(movements))
	for i, m := range movements {
		records[i] = secondary.MovementRecord{
			WorkstationID: m.StationID,
			ItemID:        m.ItemID,
			ItemKind:      string(m.ItemKind),
			Delta:         m.Delta,
			Reason:        string(m.Reason),
			OrderID:       orderID,
			Actor:         actor,
			Note:          note,
		}
	}
	return records
}

// resolveOrderRef resolves an order reference that may be an internal ID
// or a human number.
func (s *StockServiceImpl) resolveOrderRef(ctx context.Context, ref string) (*secondary.OrderRecord, error) {
	order, err := s.orderRepo.GetByID(ctx, ref)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve order %s: %w", ref, err)
	}
	return s.orderRepo.GetByNumber(ctx, ref)
}

func (s *StockServiceImpl) stationNames(ctx context.Context) (map[string]string, error) {
	records, err := s.catalogRepo.ListWorkstations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	names := make(map[string]string, len(records))
	for _, r := range records {
		names[r.ID] = r.Name
	}
	return names, nil
}

func (s *StockServiceImpl) itemNames(ctx context.Context) (map[string]string, error) {
	records, err := s.catalogRepo.ListItems(ctx, secondary.ItemFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	names := make(map[string]string, len(records))
	for _, r := range records {
		names[r.ID] = r.Name
	}
	return names, nil
}
