package app

import (
	"context"
	"fmt"
	"sort"
	"testing"

	corecatalog "github.com/example/brickline/internal/core/catalog"
	coreorder "github.com/example/brickline/internal/core/order"
	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/ports/secondary"
)

// ============================================================================
// Mock Catalog Repository
// ============================================================================

// Ensure mockCatalogRepository implements the interface
var _ secondary.CatalogRepository = (*mockCatalogRepository)(nil)

// mockCatalogRepository implements secondary.CatalogRepository for testing.
type mockCatalogRepository struct {
	workstations map[string]*secondary.WorkstationRecord
	items        map[string]*secondary.ItemRecord
	edges        []*secondary.BOMEdgeRecord

	createItemErr error
	listItemsErr  error
}

func newMockCatalogRepository() *mockCatalogRepository {
	return &mockCatalogRepository{
		workstations: make(map[string]*secondary.WorkstationRecord),
		items:        make(map[string]*secondary.ItemRecord),
	}
}

func (m *mockCatalogRepository) CreateWorkstation(ctx context.Context, ws *secondary.WorkstationRecord) error {
	m.workstations[ws.ID] = ws
	return nil
}

func (m *mockCatalogRepository) GetWorkstationByID(ctx context.Context, id string) (*secondary.WorkstationRecord, error) {
	if ws, ok := m.workstations[id]; ok {
		return ws, nil
	}
	return nil, fmt.Errorf("workstation %s: %w", id, secondary.ErrNotFound)
}

func (m *mockCatalogRepository) GetWorkstationByName(ctx context.Context, name string) (*secondary.WorkstationRecord, error) {
	for _, ws := range m.workstations {
		if ws.Name == name {
			return ws, nil
		}
	}
	return nil, fmt.Errorf("workstation %s: %w", name, secondary.ErrNotFound)
}

func (m *mockCatalogRepository) ListWorkstations(ctx context.Context) ([]*secondary.WorkstationRecord, error) {
	var result []*secondary.WorkstationRecord
	for _, ws := range m.workstations {
		result = append(result, ws)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (m *mockCatalogRepository) CreateItem(ctx context.Context, item *secondary.ItemRecord) error {
	if m.createItemErr != nil {
		return m.createItemErr
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockCatalogRepository) GetItemByID(ctx context.Context, id string) (*secondary.ItemRecord, error) {
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, fmt.Errorf("item %s: %w", id, secondary.ErrNotFound)
}

func (m *mockCatalogRepository) ListItems(ctx context.Context, filters secondary.ItemFilters) ([]*secondary.ItemRecord, error) {
	if m.listItemsErr != nil {
		return nil, m.listItemsErr
	}
	var result []*secondary.ItemRecord
	for _, item := range m.items {
		if filters.Kind != "" && item.Kind != filters.Kind {
			continue
		}
		if filters.Category != "" && item.Category != filters.Category {
			continue
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCatalogRepository) GetNextItemID(ctx context.Context, kind string) (string, error) {
	itemKind := corecatalog.ItemKind(kind)
	max := 0
	for _, item := range m.items {
		if item.Kind != kind {
			continue
		}
		if n := corecatalog.ParseItemID(itemKind, item.ID); n > max {
			max = n
		}
	}
	return corecatalog.FormatItemID(itemKind, max), nil
}

func (m *mockCatalogRepository) CreateBOMEdge(ctx context.Context, edge *secondary.BOMEdgeRecord) error {
	m.edges = append(m.edges, edge)
	return nil
}

func (m *mockCatalogRepository) DeleteBOMEdge(ctx context.Context, parentItemID, childItemID string) error {
	for i, edge := range m.edges {
		if edge.ParentItemID == parentItemID && edge.ChildItemID == childItemID {
			m.edges = append(m.edges[:i], m.edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("bom edge %s -> %s: %w", parentItemID, childItemID, secondary.ErrNotFound)
}

func (m *mockCatalogRepository) EdgeExists(ctx context.Context, parentItemID, childItemID string) (bool, error) {
	for _, edge := range m.edges {
		if edge.ParentItemID == parentItemID && edge.ChildItemID == childItemID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCatalogRepository) ListBOMEdges(ctx context.Context) ([]*secondary.BOMEdgeRecord, error) {
	return m.edges, nil
}

func (m *mockCatalogRepository) GetBOMChildren(ctx context.Context, parentItemID string) ([]*secondary.BOMEdgeRecord, error) {
	var result []*secondary.BOMEdgeRecord
	for _, edge := range m.edges {
		if edge.ParentItemID == parentItemID {
			result = append(result, edge)
		}
	}
	return result, nil
}

// ============================================================================
// Mock Stock Repository
// ============================================================================

// Ensure mockStockRepository implements the interface
var _ secondary.StockRepository = (*mockStockRepository)(nil)

// mockStockRepository implements secondary.StockRepository for testing. It
// reproduces the store's contract: batches apply atomically with balances
// kept non-negative, and every applied movement appends a ledger entry.
type mockStockRepository struct {
	lines       map[string]*secondary.StockLineRecord
	ledger      []*secondary.LedgerEntryRecord
	nextEntryID int64

	applyCalls int
	// applyErr fails the next ApplyMovements call; when applyErrOnce is
	// set it clears afterwards, so retry paths can be exercised.
	applyErr     error
	applyErrOnce bool
	// applyHook runs before each apply and may mutate the repository or
	// fail the call, simulating a concurrent writer winning the race.
	applyHook func() error
}

func newMockStockRepository() *mockStockRepository {
	return &mockStockRepository{
		lines: make(map[string]*secondary.StockLineRecord),
	}
}

func stockKey(workstationID, itemID string) string {
	return workstationID + "|" + itemID
}

func (m *mockStockRepository) GetStockLine(ctx context.Context, workstationID, itemID string) (*secondary.StockLineRecord, error) {
	if line, ok := m.lines[stockKey(workstationID, itemID)]; ok {
		return line, nil
	}
	return nil, fmt.Errorf("stock line %s at %s: %w", itemID, workstationID, secondary.ErrNotFound)
}

func (m *mockStockRepository) ListStockLines(ctx context.Context, filters secondary.StockFilters) ([]*secondary.StockLineRecord, error) {
	var result []*secondary.StockLineRecord
	for _, line := range m.lines {
		if filters.WorkstationID != "" && line.WorkstationID != filters.WorkstationID {
			continue
		}
		if filters.ItemID != "" && line.ItemID != filters.ItemID {
			continue
		}
		if filters.ItemKind != "" && line.ItemKind != filters.ItemKind {
			continue
		}
		result = append(result, line)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].WorkstationID != result[j].WorkstationID {
			return result[i].WorkstationID < result[j].WorkstationID
		}
		return result[i].ItemID < result[j].ItemID
	})
	return result, nil
}

func (m *mockStockRepository) ApplyMovements(ctx context.Context, movements []secondary.MovementRecord) error {
	m.applyCalls++
	if m.applyErr != nil {
		err := m.applyErr
		if m.applyErrOnce {
			m.applyErr = nil
		}
		return err
	}
	if m.applyHook != nil {
		if err := m.applyHook(); err != nil {
			return err
		}
	}

	// Validate the whole batch against scratch balances first so a
	// failing step leaves nothing applied.
	balances := make(map[string]int64, len(m.lines))
	for k, line := range m.lines {
		balances[k] = line.Quantity
	}
	staged := make([]int64, len(movements))
	for i, mv := range movements {
		k := stockKey(mv.WorkstationID, mv.ItemID)
		next := balances[k] + mv.Delta
		if next < 0 {
			return fmt.Errorf("only %d of %s on hand at %s: %w", balances[k], mv.ItemID, mv.WorkstationID, secondary.ErrInsufficientStock)
		}
		balances[k] = next
		staged[i] = next
	}

	for i, mv := range movements {
		k := stockKey(mv.WorkstationID, mv.ItemID)
		line, ok := m.lines[k]
		if !ok {
			line = &secondary.StockLineRecord{
				ID:            k,
				WorkstationID: mv.WorkstationID,
				ItemID:        mv.ItemID,
				ItemKind:      mv.ItemKind,
			}
			m.lines[k] = line
		}
		line.Quantity = staged[i]
		line.Version++

		m.nextEntryID++
		m.ledger = append(m.ledger, &secondary.LedgerEntryRecord{
			ID:            m.nextEntryID,
			WorkstationID: mv.WorkstationID,
			ItemID:        mv.ItemID,
			ItemKind:      mv.ItemKind,
			Delta:         mv.Delta,
			BalanceAfter:  staged[i],
			Reason:        mv.Reason,
			OrderID:       mv.OrderID,
			Actor:         mv.Actor,
			Note:          mv.Note,
		})
	}
	return nil
}

func (m *mockStockRepository) ListLedgerEntries(ctx context.Context, filters secondary.LedgerFilters) ([]*secondary.LedgerEntryRecord, error) {
	var result []*secondary.LedgerEntryRecord
	for _, entry := range m.ledger {
		if filters.WorkstationID != "" && entry.WorkstationID != filters.WorkstationID {
			continue
		}
		if filters.ItemID != "" && entry.ItemID != filters.ItemID {
			continue
		}
		if filters.OrderID != "" && entry.OrderID != filters.OrderID {
			continue
		}
		if filters.Reason != "" && entry.Reason != filters.Reason {
			continue
		}
		result = append(result, entry)
		if filters.Limit > 0 && len(result) >= filters.Limit {
			break
		}
	}
	return result, nil
}

// quantity returns the current balance at a station, zero when the line
// was never created.
func (m *mockStockRepository) quantity(workstationID, itemID string) int64 {
	if line, ok := m.lines[stockKey(workstationID, itemID)]; ok {
		return line.Quantity
	}
	return 0
}

// ============================================================================
// Mock Order Repository
// ============================================================================

// Ensure mockOrderRepository implements the interface
var _ secondary.OrderRepository = (*mockOrderRepository)(nil)

// mockOrderRepository implements secondary.OrderRepository for testing,
// including the open-downstream duplicate guard the store enforces.
type mockOrderRepository struct {
	orders  map[string]*secondary.OrderRecord
	ids     []string // insertion order, oldest first
	lines   map[string][]*secondary.OrderLineRecord
	numbers map[string]int

	createErr       error
	updateStatusErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders:  make(map[string]*secondary.OrderRecord),
		lines:   make(map[string][]*secondary.OrderLineRecord),
		numbers: make(map[string]int),
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *secondary.OrderRecord, lines []*secondary.OrderLineRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if order.SourceOrderID != "" {
		for _, existing := range m.orders {
			if existing.SourceOrderID == order.SourceOrderID &&
				existing.Kind == order.Kind &&
				existing.ShortfallItemID == order.ShortfallItemID &&
				!coreorder.OrderStatus(existing.Status).IsTerminal() {
				return fmt.Errorf("an open %s order for %s already exists: %w", order.Kind, order.ShortfallItemID, secondary.ErrDuplicate)
			}
		}
	}
	m.orders[order.ID] = order
	m.ids = append(m.ids, order.ID)
	m.lines[order.ID] = lines
	return nil
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*secondary.OrderRecord, error) {
	if order, ok := m.orders[id]; ok {
		return order, nil
	}
	return nil, fmt.Errorf("order %s: %w", id, secondary.ErrNotFound)
}

func (m *mockOrderRepository) GetByNumber(ctx context.Context, number string) (*secondary.OrderRecord, error) {
	for _, order := range m.orders {
		if order.Number == number {
			return order, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", number, secondary.ErrNotFound)
}

func (m *mockOrderRepository) List(ctx context.Context, filters secondary.OrderFilters) ([]*secondary.OrderRecord, error) {
	var result []*secondary.OrderRecord
	// Newest first, like the store.
	for i := len(m.ids) - 1; i >= 0; i-- {
		order := m.orders[m.ids[i]]
		if filters.Kind != "" && order.Kind != filters.Kind {
			continue
		}
		if filters.Status != "" && order.Status != filters.Status {
			continue
		}
		if filters.WorkstationID != "" && order.WorkstationID != filters.WorkstationID {
			continue
		}
		if filters.OpenOnly && coreorder.OrderStatus(order.Status).IsTerminal() {
			continue
		}
		result = append(result, order)
		if filters.Limit > 0 && len(result) >= filters.Limit {
			break
		}
	}
	return result, nil
}

func (m *mockOrderRepository) ListBySource(ctx context.Context, sourceOrderID string) ([]*secondary.OrderRecord, error) {
	var result []*secondary.OrderRecord
	for _, id := range m.ids {
		if m.orders[id].SourceOrderID == sourceOrderID {
			result = append(result, m.orders[id])
		}
	}
	return result, nil
}

func (m *mockOrderRepository) GetLines(ctx context.Context, orderID string) ([]*secondary.OrderLineRecord, error) {
	return m.lines[orderID], nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, update secondary.OrderStatusUpdate) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	order, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, secondary.ErrNotFound)
	}
	order.Status = update.Status
	if update.Scenario != nil {
		order.Scenario = *update.Scenario
	}
	if update.ConfirmedAt != nil {
		order.ConfirmedAt = *update.ConfirmedAt
	}
	if update.StartedAt != nil {
		order.StartedAt = *update.StartedAt
	}
	if update.CompletedAt != nil {
		order.CompletedAt = *update.CompletedAt
	}
	if update.HaltReason != nil {
		order.HaltReason = *update.HaltReason
	}
	if update.CancelReason != nil {
		order.CancelReason = *update.CancelReason
	}
	return nil
}

func (m *mockOrderRepository) UpdateLineFulfilled(ctx context.Context, orderID, itemID string, fulfilled int64) error {
	for _, line := range m.lines[orderID] {
		if line.ItemID == itemID {
			line.FulfilledQuantity = fulfilled
			return nil
		}
	}
	return fmt.Errorf("order line %s/%s: %w", orderID, itemID, secondary.ErrNotFound)
}

func (m *mockOrderRepository) GetNextNumber(ctx context.Context, kind string) (string, error) {
	orderKind := coreorder.OrderKind(kind)
	if !orderKind.IsValid() {
		return "", fmt.Errorf("unknown order kind: %s", kind)
	}
	m.numbers[kind]++
	return fmt.Sprintf("%s-%03d", orderKind.NumberPrefix(), m.numbers[kind]), nil
}

// ============================================================================
// Mock Activity Log
// ============================================================================

// Ensure mockActivityLog implements the interface
var _ secondary.ActivityLog = (*mockActivityLog)(nil)

// mockActivityLog implements secondary.ActivityLog for testing.
type mockActivityLog struct {
	entries   []secondary.ActivityEntry
	recordErr error
}

func newMockActivityLog() *mockActivityLog {
	return &mockActivityLog{}
}

func (m *mockActivityLog) Record(ctx context.Context, entry secondary.ActivityEntry) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockActivityLog) List(ctx context.Context, filters secondary.ActivityFilters) ([]*secondary.ActivityRecord, error) {
	var result []*secondary.ActivityRecord
	for i := len(m.entries) - 1; i >= 0; i-- {
		entry := m.entries[i]
		if filters.EntityType != "" && entry.EntityType != filters.EntityType {
			continue
		}
		if filters.EntityID != "" && entry.EntityID != filters.EntityID {
			continue
		}
		result = append(result, &secondary.ActivityRecord{
			ID:         int64(i + 1),
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Action:     entry.Action,
			Actor:      entry.Actor,
			Detail:     entry.Detail,
		})
		if filters.Limit > 0 && len(result) >= filters.Limit {
			break
		}
	}
	return result, nil
}

// ============================================================================
// Test Fixture
// ============================================================================

// testApp wires all three services over one set of mock repositories,
// mirroring production wiring.
type testApp struct {
	catalogRepo *mockCatalogRepository
	stockRepo   *mockStockRepository
	orderRepo   *mockOrderRepository
	activity    *mockActivityLog

	catalog *CatalogServiceImpl
	stock   *StockServiceImpl
	orders  *OrderServiceImpl
}

func newTestApp() *testApp {
	catalogRepo := newMockCatalogRepository()
	stockRepo := newMockStockRepository()
	orderRepo := newMockOrderRepository()
	activity := newMockActivityLog()

	return &testApp{
		catalogRepo: catalogRepo,
		stockRepo:   stockRepo,
		orderRepo:   orderRepo,
		activity:    activity,
		catalog:     NewCatalogService(catalogRepo, activity),
		stock:       NewStockService(catalogRepo, stockRepo, orderRepo, activity),
		orders:      NewOrderService(catalogRepo, stockRepo, orderRepo, activity),
	}
}

// seedChain initializes the six-station assembly chain.
func (a *testApp) seedChain(t *testing.T) {
	t.Helper()
	if _, err := a.catalog.InitChain(context.Background()); err != nil {
		t.Fatalf("InitChain() error = %v", err)
	}
}

// seedItem plants a catalog item directly in the repository.
func (a *testApp) seedItem(t *testing.T, id, name, kind string, procurable bool) {
	t.Helper()
	a.catalogRepo.items[id] = &secondary.ItemRecord{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Procurable: procurable,
		UnitCost:   "0",
	}
}

// seedEdge plants a BOM edge directly in the repository.
func (a *testApp) seedEdge(t *testing.T, parentID, childID string, qtyPer int64) {
	t.Helper()
	parent, ok := a.catalogRepo.items[parentID]
	if !ok {
		t.Fatalf("seedEdge: unknown parent %s", parentID)
	}
	child, ok := a.catalogRepo.items[childID]
	if !ok {
		t.Fatalf("seedEdge: unknown child %s", childID)
	}
	a.catalogRepo.edges = append(a.catalogRepo.edges, &secondary.BOMEdgeRecord{
		ID:           fmt.Sprintf("edge-%d", len(a.catalogRepo.edges)+1),
		ParentItemID: parentID,
		ParentKind:   parent.Kind,
		ChildItemID:  childID,
		ChildKind:    child.Kind,
		QtyPer:       qtyPer,
	})
}

// seedStock plants a stock line directly in the repository.
// seedStock books opening stock through a receipt so the line carries a
// ledger history and replays clean.
func (a *testApp) seedStock(t *testing.T, workstationID, itemID string, qty int64) {
	t.Helper()
	ws, ok := a.catalogRepo.workstations[workstationID]
	if !ok {
		t.Fatalf("seedStock: unknown workstation %s", workstationID)
	}
	_, err := a.stock.Receive(context.Background(), primary.ReceiveRequest{
		StationName: ws.Name,
		ItemID:      itemID,
		Quantity:    qty,
		Note:        "opening stock",
	})
	if err != nil {
		t.Fatalf("seedStock: %v", err)
	}
}

// stationID resolves a chain station name to its seeded ID.
func (a *testApp) stationID(t *testing.T, name string) string {
	t.Helper()
	for _, ws := range a.catalogRepo.workstations {
		if ws.Name == name {
			return ws.ID
		}
	}
	t.Fatalf("stationID: unknown station %s", name)
	return ""
}

// seedWorld builds the chain and the demo castle catalog most order tests
// run against: a castle product made of two modules, each module made of
// procurable parts.
func (a *testApp) seedWorld(t *testing.T) {
	t.Helper()
	a.seedChain(t)
	a.seedItem(t, "PRD-001", "Castle", "product", false)
	a.seedItem(t, "MOD-001", "Gate Module", "module", false)
	a.seedItem(t, "MOD-002", "Tower Module", "module", false)
	a.seedItem(t, "PRT-001", "2x4 Brick", "part", true)
	a.seedItem(t, "PRT-002", "Hinge Plate", "part", true)
	a.seedEdge(t, "PRD-001", "MOD-001", 2)
	a.seedEdge(t, "PRD-001", "MOD-002", 1)
	a.seedEdge(t, "MOD-001", "PRT-001", 4)
	a.seedEdge(t, "MOD-002", "PRT-002", 2)
}
