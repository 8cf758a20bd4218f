package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	corecatalog "github.com/example/brickline/internal/core/catalog"
	"github.com/example/brickline/internal/core/netting"
	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/ports/secondary"
)

// ============================================================================
// Command Helpers
// ============================================================================

func mustCreateOrder(t *testing.T, a *testApp, kind, itemID string, qty int64) *primary.Order {
	t.Helper()
	order, err := a.orders.CreateOrder(context.Background(), primary.CreateOrderRequest{
		Kind:  kind,
		Lines: []primary.LineRequest{{ItemID: itemID, Quantity: qty}},
	})
	if err != nil {
		t.Fatalf("CreateOrder(%s, %s): %v", kind, itemID, err)
	}
	return order
}

func mustConfirm(t *testing.T, a *testApp, ref string) *primary.CommandResult {
	t.Helper()
	result, err := a.orders.Confirm(context.Background(), ref)
	if err != nil {
		t.Fatalf("Confirm(%s): %v", ref, err)
	}
	return result
}

func mustFulfill(t *testing.T, a *testApp, ref string) *primary.CommandResult {
	t.Helper()
	result, err := a.orders.Fulfill(context.Background(), ref)
	if err != nil {
		t.Fatalf("Fulfill(%s): %v", ref, err)
	}
	return result
}

func mustStart(t *testing.T, a *testApp, ref string) *primary.CommandResult {
	t.Helper()
	result, err := a.orders.Start(context.Background(), ref)
	if err != nil {
		t.Fatalf("Start(%s): %v", ref, err)
	}
	return result
}

func mustComplete(t *testing.T, a *testApp, ref string) *primary.CommandResult {
	t.Helper()
	result, err := a.orders.Complete(context.Background(), ref)
	if err != nil {
		t.Fatalf("Complete(%s): %v", ref, err)
	}
	return result
}

func mustDownstream(t *testing.T, a *testApp, ref string) *primary.CommandResult {
	t.Helper()
	result, err := a.orders.CreateDownstream(context.Background(), ref)
	if err != nil {
		t.Fatalf("CreateDownstream(%s): %v", ref, err)
	}
	return result
}

func orderStatus(t *testing.T, a *testApp, ref string) string {
	t.Helper()
	order, err := a.orders.GetOrder(context.Background(), ref)
	if err != nil {
		t.Fatalf("GetOrder(%s): %v", ref, err)
	}
	return order.Status
}

// ============================================================================
// CreateOrder Tests
// ============================================================================

func TestCreateOrder_DefaultsStationAndPriority(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)

	if order.Number != "CO-001" {
		t.Errorf("expected number CO-001, got %s", order.Number)
	}
	if order.Status != "pending" {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if order.StationName != corecatalog.StationFinishedGoods {
		t.Errorf("expected station %s, got %s", corecatalog.StationFinishedGoods, order.StationName)
	}
	if order.Priority != "medium" {
		t.Errorf("expected priority medium, got %s", order.Priority)
	}
	if len(order.Lines) != 1 || order.Lines[0].ItemID != "PRD-001" || order.Lines[0].Quantity != 1 {
		t.Errorf("unexpected lines: %+v", order.Lines)
	}
	if order.Lines[0].ItemName != "Castle" {
		t.Errorf("expected line item name Castle, got %s", order.Lines[0].ItemName)
	}
}

func TestCreateOrder_RejectsUnknownItem(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	_, err := a.orders.CreateOrder(context.Background(), primary.CreateOrderRequest{
		Kind:  "customer",
		Lines: []primary.LineRequest{{ItemID: "PRD-999", Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error for unknown item, got nil")
	}
	if !strings.Contains(err.Error(), "PRD-999") {
		t.Errorf("expected error to name the item, got %v", err)
	}
}

func TestCreateOrder_RejectsKindMismatch(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	// Customers buy products, not loose modules.
	_, err := a.orders.CreateOrder(context.Background(), primary.CreateOrderRequest{
		Kind:  "customer",
		Lines: []primary.LineRequest{{ItemID: "MOD-001", Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error for kind mismatch, got nil")
	}
}

func TestCreateOrder_RejectsUnknownStation(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	_, err := a.orders.CreateOrder(context.Background(), primary.CreateOrderRequest{
		Kind:        "customer",
		StationName: "loading_dock",
		Lines:       []primary.LineRequest{{ItemID: "PRD-001", Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error for unknown station, got nil")
	}
}

func TestCreateOrder_SequentialNumbersPerKind(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	first := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	second := mustCreateOrder(t, a, "customer", "PRD-001", 2)
	supply := mustCreateOrder(t, a, "supply", "PRT-001", 10)

	if first.Number != "CO-001" || second.Number != "CO-002" {
		t.Errorf("expected CO-001 and CO-002, got %s and %s", first.Number, second.Number)
	}
	if supply.Number != "SO-001" {
		t.Errorf("expected SO-001, got %s", supply.Number)
	}
}

// ============================================================================
// Confirm Tests
// ============================================================================

func TestConfirm_RoutesDirectWhenStocked(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	a.seedStock(t, a.stationID(t, corecatalog.StationFinishedGoods), "PRD-001", 2)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	result := mustConfirm(t, a, order.Number)

	if result.Order.Status != "confirmed" {
		t.Errorf("expected status confirmed, got %s", result.Order.Status)
	}
	if result.Scenario != "direct_fulfillment" {
		t.Errorf("expected direct_fulfillment, got %s", result.Scenario)
	}
	if result.Order.ConfirmedAt == "" {
		t.Error("expected confirmed_at to be stamped")
	}
	if len(result.AllowedCommands) != 1 || result.AllowedCommands[0] != "fulfill" {
		t.Errorf("expected allowed commands [fulfill], got %v", result.AllowedCommands)
	}
}

func TestConfirm_RoutesProductionWhenNothingStocked(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	result := mustConfirm(t, a, order.Number)

	if result.Scenario != "production_required" {
		t.Errorf("expected production_required, got %s", result.Scenario)
	}
	if len(result.AllowedCommands) != 1 || result.AllowedCommands[0] != "create_downstream" {
		t.Errorf("expected allowed commands [create_downstream], got %v", result.AllowedCommands)
	}
}

func TestConfirm_RoutesUpstreamWhenModulesCoverTheBuild(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	warehouse := a.stationID(t, corecatalog.StationModuleWarehouse)
	a.seedStock(t, warehouse, "MOD-001", 2)
	a.seedStock(t, warehouse, "MOD-002", 1)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	result := mustConfirm(t, a, order.Number)

	if result.Scenario != "upstream_transfer" {
		t.Errorf("expected upstream_transfer, got %s", result.Scenario)
	}
	if len(result.AllowedCommands) != 2 {
		t.Errorf("expected two allowed commands, got %v", result.AllowedCommands)
	}
}

func TestConfirm_SupplyAlwaysRoutesDirect(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "supply", "PRT-001", 100)
	result := mustConfirm(t, a, order.Number)

	if result.Scenario != "direct_fulfillment" {
		t.Errorf("expected direct_fulfillment for supply, got %s", result.Scenario)
	}
	if len(result.AllowedCommands) != 1 || result.AllowedCommands[0] != "fulfill" {
		t.Errorf("expected allowed commands [fulfill], got %v", result.AllowedCommands)
	}
}

func TestConfirm_RejectsOnHardShortage(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	// A product with no BOM and no procurement route: nothing in the
	// chain can ever supply it.
	a.seedItem(t, "PRD-002", "Unobtainium Set", "product", false)

	order := mustCreateOrder(t, a, "customer", "PRD-002", 1)
	_, err := a.orders.Confirm(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected hard shortage error, got nil")
	}
	if !errors.Is(err, netting.ErrHardShortage) {
		t.Errorf("expected ErrHardShortage, got %v", err)
	}
	if got := orderStatus(t, a, order.Number); got != "rejected" {
		t.Errorf("expected status rejected, got %s", got)
	}
}

func TestConfirm_BlockedWhenAlreadyConfirmed(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)

	_, err := a.orders.Confirm(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error confirming twice, got nil")
	}
	if !strings.Contains(err.Error(), "current status: confirmed") {
		t.Errorf("expected guard reason, got %v", err)
	}
}

// ============================================================================
// Fulfill Tests
// ============================================================================

func TestFulfill_CustomerDeliveryDebitsStock(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	finished := a.stationID(t, corecatalog.StationFinishedGoods)
	a.seedStock(t, finished, "PRD-001", 2)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)
	result := mustFulfill(t, a, order.Number)

	if result.Order.Status != "completed" {
		t.Errorf("expected status completed, got %s", result.Order.Status)
	}
	if result.Order.CompletedAt == "" {
		t.Error("expected completed_at to be stamped")
	}
	if got := a.stockRepo.quantity(finished, "PRD-001"); got != 1 {
		t.Errorf("expected 1 castle left at finished goods, got %d", got)
	}
	if result.Order.Lines[0].Fulfilled != 1 {
		t.Errorf("expected fulfilled 1, got %d", result.Order.Lines[0].Fulfilled)
	}

	entries, _ := a.stockRepo.ListLedgerEntries(context.Background(), secondary.LedgerFilters{OrderID: result.Order.ID})
	if len(entries) != 1 || entries[0].Delta != -1 || entries[0].Reason != "order_fulfillment" {
		t.Errorf("unexpected ledger trail: %+v", entries)
	}
}

func TestFulfill_WarehouseMovesStockBetweenStations(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	warehouse := a.stationID(t, corecatalog.StationModuleWarehouse)
	assembly := a.stationID(t, corecatalog.StationFinalAssembly)
	a.seedStock(t, warehouse, "MOD-001", 5)

	order := mustCreateOrder(t, a, "warehouse", "MOD-001", 2)
	confirmResult := mustConfirm(t, a, order.Number)
	if confirmResult.Scenario != "upstream_transfer" {
		t.Fatalf("expected upstream_transfer, got %s", confirmResult.Scenario)
	}
	mustFulfill(t, a, order.Number)

	if got := a.stockRepo.quantity(warehouse, "MOD-001"); got != 3 {
		t.Errorf("expected 3 modules left at the warehouse, got %d", got)
	}
	if got := a.stockRepo.quantity(assembly, "MOD-001"); got != 2 {
		t.Errorf("expected 2 modules staged at final assembly, got %d", got)
	}
}

func TestFulfill_CustomerAssemblesFromModules(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	warehouse := a.stationID(t, corecatalog.StationModuleWarehouse)
	finished := a.stationID(t, corecatalog.StationFinishedGoods)
	a.seedStock(t, warehouse, "MOD-001", 2)
	a.seedStock(t, warehouse, "MOD-002", 1)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)
	result := mustFulfill(t, a, order.Number)

	if result.Order.Status != "completed" {
		t.Errorf("expected status completed, got %s", result.Order.Status)
	}
	if got := a.stockRepo.quantity(warehouse, "MOD-001"); got != 0 {
		t.Errorf("expected gate modules consumed, got %d", got)
	}
	if got := a.stockRepo.quantity(warehouse, "MOD-002"); got != 0 {
		t.Errorf("expected tower modules consumed, got %d", got)
	}
	// The assembled castle was credited at finished goods and delivered
	// out in the same batch.
	if got := a.stockRepo.quantity(finished, "PRD-001"); got != 0 {
		t.Errorf("expected no castle left at finished goods, got %d", got)
	}

	verification, err := a.stock.VerifyLedger(context.Background())
	if err != nil {
		t.Fatalf("VerifyLedger: %v", err)
	}
	if !verification.OK() {
		t.Errorf("expected a clean ledger, got problems: %v", verification.Problems)
	}
}

func TestFulfill_BlockedWhenShort(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)

	_, err := a.orders.Fulfill(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error fulfilling a short order, got nil")
	}
	if !strings.Contains(err.Error(), "production_required") {
		t.Errorf("expected the scenario in the error, got %v", err)
	}
	if got := orderStatus(t, a, order.Number); got != "confirmed" {
		t.Errorf("expected order untouched in confirmed, got %s", got)
	}
}

func TestFulfill_RetriesAfterWriteConflict(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	finished := a.stationID(t, corecatalog.StationFinishedGoods)
	a.seedStock(t, finished, "PRD-001", 1)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)

	a.stockRepo.applyErr = secondary.ErrConflict
	a.stockRepo.applyErrOnce = true
	a.stockRepo.applyCalls = 0

	result := mustFulfill(t, a, order.Number)

	if result.Order.Status != "completed" {
		t.Errorf("expected status completed after retry, got %s", result.Order.Status)
	}
	if a.stockRepo.applyCalls != 2 {
		t.Errorf("expected 2 apply attempts, got %d", a.stockRepo.applyCalls)
	}
}

func TestFulfill_GivesUpAfterRetryBudget(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	finished := a.stationID(t, corecatalog.StationFinishedGoods)
	a.seedStock(t, finished, "PRD-001", 1)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)

	a.stockRepo.applyErr = secondary.ErrConflict
	a.stockRepo.applyCalls = 0

	_, err := a.orders.Fulfill(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error after exhausting retries, got nil")
	}
	if !errors.Is(err, secondary.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if a.stockRepo.applyCalls != conflictRetries {
		t.Errorf("expected %d apply attempts, got %d", conflictRetries, a.stockRepo.applyCalls)
	}
	if got := orderStatus(t, a, order.Number); got != "confirmed" {
		t.Errorf("expected order still confirmed, got %s", got)
	}
}

func TestFulfill_ReroutesWhenStockConsumedConcurrently(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	finished := a.stationID(t, corecatalog.StationFinishedGoods)
	a.seedStock(t, finished, "PRD-001", 1)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)

	// Another command wins the race between planning and applying: the
	// stock vanishes and the apply reports insufficient stock. The retry
	// re-plans, finds the scenario has shifted, and refuses cleanly.
	a.stockRepo.applyHook = func() error {
		a.stockRepo.applyHook = nil
		delete(a.stockRepo.lines, stockKey(finished, "PRD-001"))
		return fmt.Errorf("only 0 of PRD-001 on hand: %w", secondary.ErrInsufficientStock)
	}

	_, err := a.orders.Fulfill(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error after concurrent consumption, got nil")
	}
	if !strings.Contains(err.Error(), "production_required") {
		t.Errorf("expected re-route to production_required, got %v", err)
	}
	if got := orderStatus(t, a, order.Number); got != "confirmed" {
		t.Errorf("expected order still confirmed, got %s", got)
	}
}

func TestFulfill_SupplyBooksReceipt(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	parts := a.stationID(t, corecatalog.StationPartsSupply)

	order := mustCreateOrder(t, a, "supply", "PRT-001", 100)
	mustConfirm(t, a, order.Number)
	result := mustFulfill(t, a, order.Number)

	if result.Order.Status != "completed" {
		t.Errorf("expected status completed, got %s", result.Order.Status)
	}
	if got := a.stockRepo.quantity(parts, "PRT-001"); got != 100 {
		t.Errorf("expected 100 bricks at parts supply, got %d", got)
	}
	entries, _ := a.stockRepo.ListLedgerEntries(context.Background(), secondary.LedgerFilters{OrderID: result.Order.ID})
	if len(entries) != 1 || entries[0].Reason != "supply_receipt" || entries[0].Delta != 100 {
		t.Errorf("unexpected ledger trail: %+v", entries)
	}
}

func TestFulfill_BlockedForProductionKinds(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "production", "MOD-001", 1)
	_, err := a.orders.Fulfill(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error fulfilling a production order, got nil")
	}
	if !strings.Contains(err.Error(), "start") {
		t.Errorf("expected pointer to start/complete, got %v", err)
	}
}

// ============================================================================
// Start / Complete Tests
// ============================================================================

func TestStart_ConsumesInputMaterials(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	parts := a.stationID(t, corecatalog.StationPartsSupply)
	a.seedStock(t, parts, "PRT-001", 10)

	order := mustCreateOrder(t, a, "production", "MOD-001", 2)
	confirmResult := mustConfirm(t, a, order.Number)
	if confirmResult.Scenario != "direct_fulfillment" {
		t.Fatalf("expected inputs covered, got %s", confirmResult.Scenario)
	}

	result := mustStart(t, a, order.Number)

	if result.Order.Status != "in_progress" {
		t.Errorf("expected status in_progress, got %s", result.Order.Status)
	}
	if result.Order.StartedAt == "" {
		t.Error("expected started_at to be stamped")
	}
	// 2 gate modules x 4 bricks each.
	if got := a.stockRepo.quantity(parts, "PRT-001"); got != 2 {
		t.Errorf("expected 2 bricks left, got %d", got)
	}
	entries, _ := a.stockRepo.ListLedgerEntries(context.Background(), secondary.LedgerFilters{Reason: "production_consumption"})
	if len(entries) != 1 || entries[0].Delta != -8 {
		t.Errorf("unexpected consumption trail: %+v", entries)
	}
}

func TestStart_BlockedWithoutInputs(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "production", "MOD-001", 2)
	mustConfirm(t, a, order.Number)

	_, err := a.orders.Start(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error starting without inputs, got nil")
	}
	if !strings.Contains(err.Error(), "not on hand") {
		t.Errorf("expected input shortage reason, got %v", err)
	}
	if got := orderStatus(t, a, order.Number); got != "confirmed" {
		t.Errorf("expected order still confirmed, got %s", got)
	}
}

func TestComplete_CreditsOutputAtHoldingStation(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	parts := a.stationID(t, corecatalog.StationPartsSupply)
	warehouse := a.stationID(t, corecatalog.StationModuleWarehouse)
	a.seedStock(t, parts, "PRT-001", 8)

	order := mustCreateOrder(t, a, "production", "MOD-001", 2)
	mustConfirm(t, a, order.Number)
	mustStart(t, a, order.Number)
	result := mustComplete(t, a, order.Number)

	if result.Order.Status != "completed" {
		t.Errorf("expected status completed, got %s", result.Order.Status)
	}
	if got := a.stockRepo.quantity(warehouse, "MOD-001"); got != 2 {
		t.Errorf("expected 2 modules at the warehouse, got %d", got)
	}
	if result.Order.Lines[0].Fulfilled != 2 {
		t.Errorf("expected fulfilled 2, got %d", result.Order.Lines[0].Fulfilled)
	}
	entries, _ := a.stockRepo.ListLedgerEntries(context.Background(), secondary.LedgerFilters{Reason: "production_output"})
	if len(entries) != 1 || entries[0].Delta != 2 {
		t.Errorf("unexpected output trail: %+v", entries)
	}
}

func TestComplete_BlockedBeforeStart(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	parts := a.stationID(t, corecatalog.StationPartsSupply)
	a.seedStock(t, parts, "PRT-001", 8)

	order := mustCreateOrder(t, a, "production", "MOD-001", 2)
	mustConfirm(t, a, order.Number)

	_, err := a.orders.Complete(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error completing before start, got nil")
	}
	if !strings.Contains(err.Error(), "current status: confirmed") {
		t.Errorf("expected status guard reason, got %v", err)
	}
}

// ============================================================================
// Halt / Resume Tests
// ============================================================================

func TestHaltResume_PreservesStartedAt(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	parts := a.stationID(t, corecatalog.StationPartsSupply)
	a.seedStock(t, parts, "PRT-001", 8)

	order := mustCreateOrder(t, a, "production", "MOD-001", 2)
	mustConfirm(t, a, order.Number)
	started := mustStart(t, a, order.Number)

	haltResult, err := a.orders.Halt(context.Background(), order.Number, "feeder jam")
	if err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if haltResult.Order.Status != "halted" {
		t.Errorf("expected status halted, got %s", haltResult.Order.Status)
	}
	if haltResult.Order.HaltReason != "feeder jam" {
		t.Errorf("expected halt reason recorded, got %q", haltResult.Order.HaltReason)
	}

	resumeResult, err := a.orders.Resume(context.Background(), order.Number)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumeResult.Order.Status != "in_progress" {
		t.Errorf("expected status in_progress, got %s", resumeResult.Order.Status)
	}
	if resumeResult.Order.HaltReason != "" {
		t.Errorf("expected halt reason cleared, got %q", resumeResult.Order.HaltReason)
	}
	if resumeResult.Order.StartedAt != started.Order.StartedAt {
		t.Errorf("expected original started_at %s kept, got %s", started.Order.StartedAt, resumeResult.Order.StartedAt)
	}
}

func TestHalt_RequiresReason(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	parts := a.stationID(t, corecatalog.StationPartsSupply)
	a.seedStock(t, parts, "PRT-001", 8)

	order := mustCreateOrder(t, a, "production", "MOD-001", 2)
	mustConfirm(t, a, order.Number)
	mustStart(t, a, order.Number)

	_, err := a.orders.Halt(context.Background(), order.Number, "")
	if err == nil {
		t.Fatal("expected error halting without a reason, got nil")
	}
}

// ============================================================================
// Cancel Tests
// ============================================================================

func TestCancel_CompensatesConsumedInputs(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	parts := a.stationID(t, corecatalog.StationPartsSupply)
	a.seedStock(t, parts, "PRT-001", 10)

	order := mustCreateOrder(t, a, "production", "MOD-001", 2)
	mustConfirm(t, a, order.Number)
	mustStart(t, a, order.Number)
	if got := a.stockRepo.quantity(parts, "PRT-001"); got != 2 {
		t.Fatalf("expected 2 bricks after start, got %d", got)
	}

	result, err := a.orders.Cancel(context.Background(), order.Number, "tooling change")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if result.Order.Status != "cancelled" {
		t.Errorf("expected status cancelled, got %s", result.Order.Status)
	}
	if result.Order.CancelReason != "tooling change" {
		t.Errorf("expected cancel reason recorded, got %q", result.Order.CancelReason)
	}
	if got := a.stockRepo.quantity(parts, "PRT-001"); got != 10 {
		t.Errorf("expected consumed bricks credited back, got %d", got)
	}
	entries, _ := a.stockRepo.ListLedgerEntries(context.Background(), secondary.LedgerFilters{Reason: "order_cancellation"})
	if len(entries) != 1 || entries[0].Delta != 8 {
		t.Errorf("unexpected compensation trail: %+v", entries)
	}

	verification, err := a.stock.VerifyLedger(context.Background())
	if err != nil {
		t.Fatalf("VerifyLedger: %v", err)
	}
	if !verification.OK() {
		t.Errorf("expected a clean ledger, got problems: %v", verification.Problems)
	}
}

func TestCancel_PendingOrderMovesNothing(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	result, err := a.orders.Cancel(context.Background(), order.Number, "changed their mind")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if result.Order.Status != "cancelled" {
		t.Errorf("expected status cancelled, got %s", result.Order.Status)
	}
	if len(a.stockRepo.ledger) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(a.stockRepo.ledger))
	}
}

func TestCancel_BlockedWhenTerminal(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	finished := a.stationID(t, corecatalog.StationFinishedGoods)
	a.seedStock(t, finished, "PRD-001", 1)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)
	mustFulfill(t, a, order.Number)

	_, err := a.orders.Cancel(context.Background(), order.Number, "too late")
	if err == nil {
		t.Fatal("expected error cancelling a completed order, got nil")
	}
	if !strings.Contains(err.Error(), "already completed") {
		t.Errorf("expected terminal guard reason, got %v", err)
	}
}

// ============================================================================
// CreateDownstream Tests
// ============================================================================

func TestCreateDownstream_RaisesProductionOrdersForModuleShortfalls(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)
	result := mustDownstream(t, a, order.Number)

	if result.Order.Status != "awaiting_downstream" {
		t.Errorf("expected status awaiting_downstream, got %s", result.Order.Status)
	}
	if len(result.Created) != 2 {
		t.Fatalf("expected 2 downstream orders, got %d", len(result.Created))
	}

	first := result.Created[0]
	if first.Kind != "production" || first.Number != "PO-001" {
		t.Errorf("expected production PO-001, got %s %s", first.Kind, first.Number)
	}
	if first.StationName != corecatalog.StationProductionCell {
		t.Errorf("expected production cell, got %s", first.StationName)
	}
	if first.SourceNumber != order.Number {
		t.Errorf("expected source %s, got %s", order.Number, first.SourceNumber)
	}
	if len(first.Lines) != 1 || first.Lines[0].ItemID != "MOD-001" || first.Lines[0].Quantity != 2 {
		t.Errorf("unexpected first downstream lines: %+v", first.Lines)
	}

	second := result.Created[1]
	if len(second.Lines) != 1 || second.Lines[0].ItemID != "MOD-002" || second.Lines[0].Quantity != 1 {
		t.Errorf("unexpected second downstream lines: %+v", second.Lines)
	}
}

func TestCreateDownstream_Idempotent(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)
	first := mustDownstream(t, a, order.Number)
	second := mustDownstream(t, a, order.Number)

	if len(first.Created) != 2 {
		t.Fatalf("expected 2 downstream orders on first call, got %d", len(first.Created))
	}
	if len(second.Created) != 0 {
		t.Errorf("expected repeat to create nothing, got %d", len(second.Created))
	}
	if second.Order.Status != "awaiting_downstream" {
		t.Errorf("expected status awaiting_downstream, got %s", second.Order.Status)
	}
	if got := len(a.orderRepo.orders); got != 3 {
		t.Errorf("expected 3 orders total, got %d", got)
	}
}

func TestCreateDownstream_ReraisesAfterCancellation(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)
	first := mustDownstream(t, a, order.Number)

	// The gate module order dies; re-invoking raises a fresh one while
	// the still-open tower order is left alone.
	if _, err := a.orders.Cancel(context.Background(), first.Created[0].Number, "machine down"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	second := mustDownstream(t, a, order.Number)

	if len(second.Created) != 1 {
		t.Fatalf("expected 1 re-raised order, got %d", len(second.Created))
	}
	if second.Created[0].Lines[0].ItemID != "MOD-001" {
		t.Errorf("expected re-raise for MOD-001, got %s", second.Created[0].Lines[0].ItemID)
	}
}

func TestCreateDownstream_BlockedWhenCovered(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	a.seedStock(t, a.stationID(t, corecatalog.StationFinishedGoods), "PRD-001", 1)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustConfirm(t, a, order.Number)

	_, err := a.orders.CreateDownstream(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error ordering downstream for a covered order, got nil")
	}
	if !strings.Contains(err.Error(), "fulfill") {
		t.Errorf("expected pointer to fulfill, got %v", err)
	}
}

func TestCreateDownstream_ProductShortfallRaisesFinalAssembly(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	// A procurable product with no BOM: the shortfall is the product
	// itself, resolved by final assembly.
	a.seedItem(t, "PRD-002", "Starter Set", "product", true)

	order := mustCreateOrder(t, a, "customer", "PRD-002", 3)
	mustConfirm(t, a, order.Number)
	result := mustDownstream(t, a, order.Number)

	if len(result.Created) != 1 {
		t.Fatalf("expected 1 downstream order, got %d", len(result.Created))
	}
	created := result.Created[0]
	if created.Kind != "final_assembly" || created.Number != "FO-001" {
		t.Errorf("expected final_assembly FO-001, got %s %s", created.Kind, created.Number)
	}
	if created.StationName != corecatalog.StationFinalAssembly {
		t.Errorf("expected final assembly station, got %s", created.StationName)
	}
	if created.Lines[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", created.Lines[0].Quantity)
	}
}

func TestCreateDownstream_UpstreamRaisesWarehouseOrdersAtSourceStation(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	warehouse := a.stationID(t, corecatalog.StationModuleWarehouse)
	a.seedStock(t, warehouse, "MOD-001", 2)
	a.seedStock(t, warehouse, "MOD-002", 1)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	confirmResult := mustConfirm(t, a, order.Number)
	if confirmResult.Scenario != "upstream_transfer" {
		t.Fatalf("expected upstream_transfer, got %s", confirmResult.Scenario)
	}

	result := mustDownstream(t, a, order.Number)
	if len(result.Created) != 2 {
		t.Fatalf("expected 2 warehouse orders, got %d", len(result.Created))
	}
	for _, created := range result.Created {
		if created.Kind != "warehouse" {
			t.Errorf("expected warehouse kind, got %s", created.Kind)
		}
		// Warehouse orders deliver to the source order's own station.
		if created.StationName != corecatalog.StationFinishedGoods {
			t.Errorf("expected delivery to finished goods, got %s", created.StationName)
		}
	}
}

func TestCreateDownstream_BlockedForSupplyOrders(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "supply", "PRT-001", 10)
	mustConfirm(t, a, order.Number)

	_, err := a.orders.CreateDownstream(context.Background(), order.Number)
	if err == nil {
		t.Fatal("expected error for supply downstream, got nil")
	}
	if !strings.Contains(err.Error(), "outside the chain") {
		t.Errorf("expected supply guard reason, got %v", err)
	}
}

// ============================================================================
// Plan Preview Tests
// ============================================================================

func TestPlan_PreviewsWithoutSideEffects(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	warehouse := a.stationID(t, corecatalog.StationModuleWarehouse)
	a.seedStock(t, warehouse, "MOD-001", 2)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	ledgerBefore := len(a.stockRepo.ledger)

	view, err := a.orders.Plan(context.Background(), order.Number)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if view.Scenario != "production_required" {
		t.Errorf("expected production_required, got %s", view.Scenario)
	}
	// Pending orders can only be confirmed, whatever the netting says.
	if len(view.AllowedCommands) != 1 || view.AllowedCommands[0] != "confirm" {
		t.Errorf("expected allowed commands [confirm], got %v", view.AllowedCommands)
	}
	if len(view.Nodes) != 1 {
		t.Fatalf("expected 1 root node, got %d", len(view.Nodes))
	}

	root := view.Nodes[0]
	if root.ItemID != "PRD-001" || root.Net != 1 {
		t.Errorf("unexpected root: %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	gate := root.Children[0]
	if gate.ItemID != "MOD-001" || gate.Covered != 2 || gate.Net != 0 {
		t.Errorf("unexpected gate module node: %+v", gate)
	}
	if len(gate.Coverage) != 1 || gate.Coverage[0].StationName != corecatalog.StationModuleWarehouse {
		t.Errorf("expected coverage from the module warehouse, got %+v", gate.Coverage)
	}

	if got := orderStatus(t, a, order.Number); got != "pending" {
		t.Errorf("expected order untouched in pending, got %s", got)
	}
	if len(a.stockRepo.ledger) != ledgerBefore {
		t.Errorf("expected no ledger entries from a preview, got %d new", len(a.stockRepo.ledger)-ledgerBefore)
	}
}

// ============================================================================
// Read Tests
// ============================================================================

func TestGetOrder_ResolvesIDAndNumber(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	order := mustCreateOrder(t, a, "customer", "PRD-001", 1)

	byNumber, err := a.orders.GetOrder(context.Background(), order.Number)
	if err != nil {
		t.Fatalf("GetOrder by number: %v", err)
	}
	byID, err := a.orders.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder by id: %v", err)
	}
	if byNumber.ID != byID.ID {
		t.Errorf("expected the same order, got %s and %s", byNumber.ID, byID.ID)
	}

	if _, err := a.orders.GetOrder(context.Background(), "CO-999"); !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrders_Filters(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)

	co := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	mustCreateOrder(t, a, "supply", "PRT-001", 10)
	if _, err := a.orders.Cancel(context.Background(), co.Number, "dropped"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	all, err := a.orders.ListOrders(context.Background(), primary.OrderListFilters{})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 orders, got %d", len(all))
	}

	open, err := a.orders.ListOrders(context.Background(), primary.OrderListFilters{OpenOnly: true})
	if err != nil {
		t.Fatalf("ListOrders open: %v", err)
	}
	if len(open) != 1 || open[0].Kind != "supply" {
		t.Errorf("expected only the open supply order, got %+v", open)
	}

	customers, err := a.orders.ListOrders(context.Background(), primary.OrderListFilters{Kind: "customer"})
	if err != nil {
		t.Fatalf("ListOrders kind: %v", err)
	}
	if len(customers) != 1 || customers[0].Number != co.Number {
		t.Errorf("expected the customer order, got %+v", customers)
	}
}

// ============================================================================
// Full Chain Cascade
// ============================================================================

// TestOrderCascade_FullChain drives one castle from a bare factory to a
// delivered customer order: the shortfall cascades down to supply orders,
// completions bubble back up re-confirming each waiting source, and the
// ledger balances out with nothing left over.
func TestOrderCascade_FullChain(t *testing.T) {
	a := newTestApp()
	a.seedWorld(t)
	ctx := context.Background()
	parts := a.stationID(t, corecatalog.StationPartsSupply)
	warehouse := a.stationID(t, corecatalog.StationModuleWarehouse)
	finished := a.stationID(t, corecatalog.StationFinishedGoods)

	// 1. The customer order finds an empty factory.
	co := mustCreateOrder(t, a, "customer", "PRD-001", 1)
	if got := mustConfirm(t, a, co.Number); got.Scenario != "production_required" {
		t.Fatalf("expected production_required, got %s", got.Scenario)
	}
	coDown := mustDownstream(t, a, co.Number)
	if len(coDown.Created) != 2 {
		t.Fatalf("expected 2 production orders, got %d", len(coDown.Created))
	}
	poGate, poTower := coDown.Created[0], coDown.Created[1]

	// 2. Neither production order has input parts; each raises a supply
	// order at the parts edge.
	mustConfirm(t, a, poGate.Number)
	gateDown := mustDownstream(t, a, poGate.Number)
	if len(gateDown.Created) != 1 || gateDown.Created[0].Kind != "supply" {
		t.Fatalf("expected a supply order for the gate parts, got %+v", gateDown.Created)
	}
	soGate := gateDown.Created[0]
	if soGate.Lines[0].ItemID != "PRT-001" || soGate.Lines[0].Quantity != 8 {
		t.Fatalf("expected 8x PRT-001, got %+v", soGate.Lines)
	}
	if soGate.StationName != corecatalog.StationPartsSupply {
		t.Fatalf("expected parts supply station, got %s", soGate.StationName)
	}

	mustConfirm(t, a, poTower.Number)
	towerDown := mustDownstream(t, a, poTower.Number)
	soTower := towerDown.Created[0]
	if soTower.Lines[0].ItemID != "PRT-002" || soTower.Lines[0].Quantity != 2 {
		t.Fatalf("expected 2x PRT-002, got %+v", soTower.Lines)
	}

	// 3. Goods arrive. Each receipt wakes its waiting production order.
	mustConfirm(t, a, soGate.Number)
	gateReceipt := mustFulfill(t, a, soGate.Number)
	if len(gateReceipt.Notified) != 1 || gateReceipt.Notified[0] != poGate.Number {
		t.Fatalf("expected %s notified, got %v", poGate.Number, gateReceipt.Notified)
	}
	if got := orderStatus(t, a, poGate.Number); got != "confirmed" {
		t.Fatalf("expected %s re-confirmed, got %s", poGate.Number, got)
	}

	mustConfirm(t, a, soTower.Number)
	mustFulfill(t, a, soTower.Number)

	// 4. The gate modules get built. The customer order stays parked: the
	// tower module is still missing.
	mustStart(t, a, poGate.Number)
	gateDone := mustComplete(t, a, poGate.Number)
	if len(gateDone.Notified) != 0 {
		t.Fatalf("expected no notification while the tower is missing, got %v", gateDone.Notified)
	}
	if got := orderStatus(t, a, co.Number); got != "awaiting_downstream" {
		t.Fatalf("expected customer order still waiting, got %s", got)
	}
	if got := a.stockRepo.quantity(warehouse, "MOD-001"); got != 2 {
		t.Fatalf("expected 2 gate modules at the warehouse, got %d", got)
	}

	// 5. The tower module lands; now the build is covered and the
	// customer order re-confirms as an upstream transfer.
	mustStart(t, a, poTower.Number)
	towerDone := mustComplete(t, a, poTower.Number)
	if len(towerDone.Notified) != 1 || towerDone.Notified[0] != co.Number {
		t.Fatalf("expected %s notified, got %v", co.Number, towerDone.Notified)
	}
	coOrder, err := a.orders.GetOrder(ctx, co.Number)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if coOrder.Status != "confirmed" || coOrder.Scenario != "upstream_transfer" {
		t.Fatalf("expected confirmed upstream_transfer, got %s %s", coOrder.Status, coOrder.Scenario)
	}

	// 6. Delivery: modules are consumed, the castle is assembled at
	// finished goods and handed over in the same movement batch.
	final := mustFulfill(t, a, co.Number)
	if final.Order.Status != "completed" {
		t.Fatalf("expected completed, got %s", final.Order.Status)
	}
	if final.Order.Lines[0].Fulfilled != 1 {
		t.Errorf("expected fulfilled 1, got %d", final.Order.Lines[0].Fulfilled)
	}

	// 7. Nothing is left anywhere and the ledger replays clean.
	for _, check := range []struct {
		station string
		item    string
	}{
		{parts, "PRT-001"},
		{parts, "PRT-002"},
		{warehouse, "MOD-001"},
		{warehouse, "MOD-002"},
		{finished, "PRD-001"},
	} {
		if got := a.stockRepo.quantity(check.station, check.item); got != 0 {
			t.Errorf("expected %s at %s to end at 0, got %d", check.item, check.station, got)
		}
	}

	verification, err := a.stock.VerifyLedger(ctx)
	if err != nil {
		t.Fatalf("VerifyLedger: %v", err)
	}
	if !verification.OK() {
		t.Errorf("expected a clean ledger, got problems: %v", verification.Problems)
	}
}
