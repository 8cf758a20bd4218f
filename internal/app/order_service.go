package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	corecatalog "github.com/example/brickline/internal/core/catalog"
	"github.com/example/brickline/internal/core/netting"
	coreorder "github.com/example/brickline/internal/core/order"
	"github.com/example/brickline/internal/core/scenario"
	corestock "github.com/example/brickline/internal/core/stock"
	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/ports/secondary"
)

// conflictRetries bounds how many times a stock-moving command re-plans
// and retries after losing a write race against a concurrent command.
const conflictRetries = 3

// OrderServiceImpl implements the OrderService interface. It is the
// orchestrator: every lifecycle command runs guard -> net -> route ->
// move stock -> transition, with all decisions delegated to the core.
type OrderServiceImpl struct {
	catalogRepo secondary.CatalogRepository
	stockRepo   secondary.StockRepository
	orderRepo   secondary.OrderRepository
	activity    secondary.ActivityLog
}

// NewOrderService creates a new OrderService with injected dependencies.
func NewOrderService(
	catalogRepo secondary.CatalogRepository,
	stockRepo secondary.StockRepository,
	orderRepo secondary.OrderRepository,
	activity secondary.ActivityLog,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		catalogRepo: catalogRepo,
		stockRepo:   stockRepo,
		orderRepo:   orderRepo,
		activity:    activity,
	}
}

// CreateOrder creates a new pending order with its lines.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, req primary.CreateOrderRequest) (*primary.Order, error) {
	kind := coreorder.OrderKind(req.Kind)

	// 1. Resolve the target station, defaulting to the kind's home station
	stationName := req.StationName
	if stationName == "" && kind.IsValid() {
		stationName = kind.DefaultStation()
	}
	var station *secondary.WorkstationRecord
	if stationName != "" {
		ws, err := s.catalogRepo.GetWorkstationByName(ctx, stationName)
		if err != nil && !errors.Is(err, secondary.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up station: %w", err)
		}
		station = ws
	}

	// 2. Resolve the line items for the guard
	lineInputs := make([]coreorder.LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		input := coreorder.LineInput{ItemID: line.ItemID, Quantity: line.Quantity}
		item, err := s.catalogRepo.GetItemByID(ctx, line.ItemID)
		if err != nil && !errors.Is(err, secondary.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up item %s: %w", line.ItemID, err)
		}
		if err == nil {
			input.ItemExists = true
			input.ItemKind = corecatalog.ItemKind(item.Kind)
		}
		lineInputs = append(lineInputs, input)
	}

	// 3. Check guard
	if result := coreorder.CanCreateOrder(coreorder.CreateOrderContext{
		Kind:          kind,
		StationName:   stationName,
		StationExists: station != nil,
		Lines:         lineInputs,
	}); !result.Allowed {
		return nil, result.Error()
	}

	priority := coreorder.Priority(req.Priority)
	if req.Priority == "" {
		priority = coreorder.DefaultPriority()
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("invalid priority: %s", req.Priority)
	}

	// 4. Allocate the number and persist order plus lines
	number, err := s.orderRepo.GetNextNumber(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order number: %w", err)
	}

	record := &secondary.OrderRecord{
		ID:            uuid.NewString(),
		Number:        number,
		Kind:          string(kind),
		Status:        string(coreorder.InitialStatus()),
		WorkstationID: station.ID,
		Priority:      string(priority),
		RequestedBy:   req.RequestedBy,
		Note:          req.Note,
	}
	lines := make([]*secondary.OrderLineRecord, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = &secondary.OrderLineRecord{
			ID:       uuid.NewString(),
			OrderID:  record.ID,
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
		}
	}
	if err := s.orderRepo.Create(ctx, record, lines); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.recordActivity(ctx, record.Number, "create", fmt.Sprintf("%s order at %s", kind, stationName))
	return s.orderDTO(ctx, record)
}

// GetOrder retrieves an order with its lines.
func (s *OrderServiceImpl) GetOrder(ctx context.Context, ref string) (*primary.Order, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.orderDTO(ctx, record)
}

// ListOrders lists orders with optional filters.
func (s *OrderServiceImpl) ListOrders(ctx context.Context, filters primary.OrderListFilters) ([]*primary.Order, error) {
	repoFilters := secondary.OrderFilters{
		Kind:     filters.Kind,
		Status:   filters.Status,
		OpenOnly: filters.OpenOnly,
		Limit:    filters.Limit,
	}
	if filters.StationName != "" {
		ws, err := s.catalogRepo.GetWorkstationByName(ctx, filters.StationName)
		if err != nil {
			return nil, fmt.Errorf("failed to look up station: %w", err)
		}
		repoFilters.WorkstationID = ws.ID
	}

	records, err := s.orderRepo.List(ctx, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*primary.Order, 0, len(records))
	for _, record := range records {
		dto, err := s.orderDTO(ctx, record)
		if err != nil {
			return nil, err
		}
		orders = append(orders, dto)
	}
	return orders, nil
}

// Plan previews the order's current netting plan without changing
// anything. The scenario shown is advisory until the next command routes
// it for real.
func (s *OrderServiceImpl) Plan(ctx context.Context, ref string) (*primary.PlanView, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	kind := coreorder.OrderKind(record.Kind)
	flow := kind.Flow()
	status := coreorder.OrderStatus(record.Status)

	if flow == coreorder.FlowSupply {
		// Supply orders source from outside the chain; there is nothing
		// to net.
		return &primary.PlanView{
			Scenario:        string(scenario.DirectFulfillment),
			AllowedCommands: commandNames(scenario.NextCommands(flow, status, scenario.DirectFulfillment)),
		}, nil
	}

	lines, err := s.orderRepo.GetLines(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	plan, _, err := s.planOrder(ctx, record, lines)
	if err != nil {
		return nil, err
	}
	scen := routeScenario(flow, plan)

	stations, err := s.stationNamesByID(ctx)
	if err != nil {
		return nil, err
	}

	view := &primary.PlanView{
		Scenario:        string(scen),
		AllowedCommands: commandNames(scenario.NextCommands(flow, status, scen)),
	}
	for _, result := range plan.Results {
		view.Nodes = append(view.Nodes, planNode(result.Root, stations))
	}
	return view, nil
}

// Confirm confirms a pending or awaiting order and routes its scenario
// against current stock. An order whose demand nothing in the chain can
// meet is rejected instead.
func (s *OrderServiceImpl) Confirm(ctx context.Context, ref string) (*primary.CommandResult, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	// 1. Check guard
	if result := coreorder.CanConfirm(coreorder.ConfirmContext{
		OrderNumber: record.Number,
		Status:      coreorder.OrderStatus(record.Status),
	}); !result.Allowed {
		return nil, result.Error()
	}

	kind := coreorder.OrderKind(record.Kind)
	flow := kind.Flow()

	// 2. Net the demand and route the scenario
	var scen scenario.Scenario
	if flow == coreorder.FlowSupply {
		scen = scenario.DirectFulfillment
	} else {
		lines, err := s.orderRepo.GetLines(ctx, record.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load order lines: %w", err)
		}
		plan, _, planErr := s.planOrder(ctx, record, lines)
		if planErr != nil {
			if errors.Is(planErr, netting.ErrHardShortage) {
				return nil, s.reject(ctx, record, planErr)
			}
			return nil, planErr
		}
		scen = routeScenario(flow, plan)
	}

	// 3. Transition to confirmed
	if err := s.advance(ctx, record, coreorder.CommandConfirm, func(u *secondary.OrderStatusUpdate) {
		u.Scenario = strPtr(string(scen))
	}); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, record.Number, "confirm", fmt.Sprintf("routed to %s", scen))
	return s.commandResult(ctx, record.ID, scen, nil, nil)
}

// Fulfill fulfills a confirmed transfer or supply order from stock,
// marking it completed. The plan is recomputed here rather than trusted
// from confirm time: stock may have moved since.
func (s *OrderServiceImpl) Fulfill(ctx context.Context, ref string) (*primary.CommandResult, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	kind := coreorder.OrderKind(record.Kind)
	flow := kind.Flow()

	// 1. Check guard
	if result := coreorder.CanFulfill(coreorder.FulfillContext{
		OrderNumber: record.Number,
		Kind:        kind,
		Status:      coreorder.OrderStatus(record.Status),
	}); !result.Allowed {
		return nil, result.Error()
	}

	lines, err := s.orderRepo.GetLines(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}

	// 2. Plan the movements and apply them, re-planning when a concurrent
	// command moved the same stock first
	var scen scenario.Scenario
	var applyErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		var movements []corestock.Movement
		if flow == coreorder.FlowSupply {
			// A supply receipt books goods arriving from outside the
			// chain; nothing is netted and nothing is debited.
			scen = scenario.DirectFulfillment
			nlines, err := s.nettingLines(ctx, lines)
			if err != nil {
				return nil, err
			}
			movements = corestock.ReceiptMovements(record.WorkstationID, nlines, corestock.ReasonSupplyReceipt)
		} else {
			plan, _, err := s.planOrder(ctx, record, lines)
			if err != nil {
				return nil, err
			}
			scen = routeScenario(flow, plan)
			if !scenario.Allows(flow, scen, coreorder.CommandFulfill) {
				return nil, routedError(record.Number, flow, scen)
			}
			deliver := kind == coreorder.KindCustomer
			movements = corestock.FulfillMovements(plan, record.WorkstationID, deliver)
		}

		applyErr = s.stockRepo.ApplyMovements(ctx, movementRecords(ctx, movements, record.ID, ""))
		if applyErr == nil {
			break
		}
		if !errors.Is(applyErr, secondary.ErrConflict) && !errors.Is(applyErr, secondary.ErrInsufficientStock) {
			return nil, fmt.Errorf("failed to fulfill order %s: %w", record.Number, applyErr)
		}
	}
	if applyErr != nil {
		return nil, fmt.Errorf("failed to fulfill order %s after %d attempts: %w", record.Number, conflictRetries, applyErr)
	}

	// 3. Mark the lines fulfilled in full
	for _, line := range lines {
		if err := s.orderRepo.UpdateLineFulfilled(ctx, record.ID, line.ItemID, line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to update line fulfillment: %w", err)
		}
	}

	// 4. Transition to completed
	if err := s.advance(ctx, record, coreorder.CommandFulfill, func(u *secondary.OrderStatusUpdate) {
		u.Scenario = strPtr(string(scen))
	}); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, record.Number, "fulfill", fmt.Sprintf("%s fulfillment", scen))

	// 5. Wake the source order, if any
	notified := s.notifySource(ctx, record)

	return s.commandResult(ctx, record.ID, scen, nil, notified)
}

// Start begins production work on a confirmed order, consuming its input
// materials from stock.
func (s *OrderServiceImpl) Start(ctx context.Context, ref string) (*primary.CommandResult, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	kind := coreorder.OrderKind(record.Kind)

	// 1. Check kind and status before paying for a plan
	guardCtx := coreorder.StartContext{
		OrderNumber:   record.Number,
		Kind:          kind,
		Status:        coreorder.OrderStatus(record.Status),
		InputsCovered: true,
	}
	if result := coreorder.CanStart(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	lines, err := s.orderRepo.GetLines(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}

	// 2. Net the inputs and consume them; every material must be on hand
	var applyErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		plan, _, err := s.planOrder(ctx, record, lines)
		if err != nil {
			return nil, err
		}
		guardCtx.InputsCovered = plan.InputsCovered()
		if result := coreorder.CanStart(guardCtx); !result.Allowed {
			return nil, result.Error()
		}

		movements := corestock.ConsumeMovements(plan)
		applyErr = s.stockRepo.ApplyMovements(ctx, movementRecords(ctx, movements, record.ID, ""))
		if applyErr == nil {
			break
		}
		if !errors.Is(applyErr, secondary.ErrConflict) && !errors.Is(applyErr, secondary.ErrInsufficientStock) {
			return nil, fmt.Errorf("failed to consume inputs for %s: %w", record.Number, applyErr)
		}
	}
	if applyErr != nil {
		return nil, fmt.Errorf("failed to consume inputs for %s after %d attempts: %w", record.Number, conflictRetries, applyErr)
	}

	// 3. Transition to in_progress
	if err := s.advance(ctx, record, coreorder.CommandStart, nil); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, record.Number, "start", "inputs consumed")

	return s.commandResult(ctx, record.ID, scenario.Scenario(record.Scenario), nil, nil)
}

// Complete finishes production work, crediting the newly produced output
// at its kind's holding station.
func (s *OrderServiceImpl) Complete(ctx context.Context, ref string) (*primary.CommandResult, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	kind := coreorder.OrderKind(record.Kind)

	// 1. Check guard
	if result := coreorder.CanComplete(coreorder.CompleteContext{
		OrderNumber: record.Number,
		Kind:        kind,
		Status:      coreorder.OrderStatus(record.Status),
	}); !result.Allowed {
		return nil, result.Error()
	}

	lines, err := s.orderRepo.GetLines(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	nlines, err := s.nettingLines(ctx, lines)
	if err != nil {
		return nil, err
	}
	holding, err := s.holdingStations(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Credit the output
	movements := corestock.OutputMovements(nlines, holding)
	var applyErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		applyErr = s.stockRepo.ApplyMovements(ctx, movementRecords(ctx, movements, record.ID, ""))
		if applyErr == nil {
			break
		}
		if !errors.Is(applyErr, secondary.ErrConflict) {
			return nil, fmt.Errorf("failed to credit output for %s: %w", record.Number, applyErr)
		}
	}
	if applyErr != nil {
		return nil, fmt.Errorf("failed to credit output for %s after %d attempts: %w", record.Number, conflictRetries, applyErr)
	}

	// 3. Mark the lines fulfilled in full
	for _, line := range lines {
		if err := s.orderRepo.UpdateLineFulfilled(ctx, record.ID, line.ItemID, line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to update line fulfillment: %w", err)
		}
	}

	// 4. Transition to completed
	if err := s.advance(ctx, record, coreorder.CommandComplete, nil); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, record.Number, "complete", "output credited")

	// 5. Wake the source order, if any
	notified := s.notifySource(ctx, record)

	return s.commandResult(ctx, record.ID, scenario.Scenario(record.Scenario), nil, notified)
}

// Halt pauses in-progress work with an operator-supplied reason.
func (s *OrderServiceImpl) Halt(ctx context.Context, ref, reason string) (*primary.CommandResult, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	if result := coreorder.CanHalt(coreorder.HaltContext{
		OrderNumber: record.Number,
		Status:      coreorder.OrderStatus(record.Status),
		Reason:      reason,
	}); !result.Allowed {
		return nil, result.Error()
	}

	if err := s.advance(ctx, record, coreorder.CommandHalt, func(u *secondary.OrderStatusUpdate) {
		u.HaltReason = strPtr(reason)
	}); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, record.Number, "halt", reason)

	return s.commandResult(ctx, record.ID, scenario.Scenario(record.Scenario), nil, nil)
}

// Resume continues halted work.
func (s *OrderServiceImpl) Resume(ctx context.Context, ref string) (*primary.CommandResult, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	if result := coreorder.CanResume(coreorder.ResumeContext{
		OrderNumber: record.Number,
		Status:      coreorder.OrderStatus(record.Status),
	}); !result.Allowed {
		return nil, result.Error()
	}

	if err := s.advance(ctx, record, coreorder.CommandResume, func(u *secondary.OrderStatusUpdate) {
		// Re-entering in_progress keeps the original started_at; the
		// halt reason is spent.
		u.StartedAt = nil
		u.HaltReason = strPtr("")
	}); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, record.Number, "resume", "")

	return s.commandResult(ctx, record.ID, scenario.Scenario(record.Scenario), nil, nil)
}

// Cancel cancels an open order, reversing any stock movements it already
// applied. Downstream orders it spawned stay open; they were real demand
// and carry their own lifecycle.
func (s *OrderServiceImpl) Cancel(ctx context.Context, ref, reason string) (*primary.CommandResult, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	// 1. Check guard
	if result := coreorder.CanCancel(coreorder.CancelContext{
		OrderNumber: record.Number,
		Status:      coreorder.OrderStatus(record.Status),
	}); !result.Allowed {
		return nil, result.Error()
	}

	// 2. Compensate every ledger entry this order applied, newest first
	entries, err := s.stockRepo.ListLedgerEntries(ctx, secondary.LedgerFilters{OrderID: record.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for %s: %w", record.Number, err)
	}
	applied := make([]corestock.AppliedEntry, len(entries))
	for i, entry := range entries {
		applied[i] = corestock.AppliedEntry{
			StationID: entry.WorkstationID,
			ItemID:    entry.ItemID,
			ItemKind:  corecatalog.ItemKind(entry.ItemKind),
			Delta:     entry.Delta,
		}
	}
	if movements := corestock.CompensationMovements(applied); len(movements) > 0 {
		var applyErr error
		for attempt := 0; attempt < conflictRetries; attempt++ {
			applyErr = s.stockRepo.ApplyMovements(ctx, movementRecords(ctx, movements, record.ID, ""))
			if applyErr == nil {
				break
			}
			if !errors.Is(applyErr, secondary.ErrConflict) {
				return nil, fmt.Errorf("failed to compensate stock for %s: %w", record.Number, applyErr)
			}
		}
		if applyErr != nil {
			return nil, fmt.Errorf("failed to compensate stock for %s after %d attempts: %w", record.Number, conflictRetries, applyErr)
		}
	}

	// 3. Transition to cancelled
	if err := s.advance(ctx, record, coreorder.CommandCancel, func(u *secondary.OrderStatusUpdate) {
		u.CancelReason = strPtr(reason)
	}); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, record.Number, "cancel", reason)

	return s.commandResult(ctx, record.ID, scenario.Scenario(record.Scenario), nil, nil)
}

// CreateDownstream raises downstream orders for the order's current
// shortfalls, one per short item, and parks the order awaiting them.
// Idempotent: the store's duplicate guard turns repeats into no-ops.
func (s *OrderServiceImpl) CreateDownstream(ctx context.Context, ref string) (*primary.CommandResult, error) {
	record, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	kind := coreorder.OrderKind(record.Kind)
	flow := kind.Flow()

	// 1. Check guard
	if result := coreorder.CanCreateDownstream(coreorder.DownstreamContext{
		OrderNumber: record.Number,
		Kind:        kind,
		Status:      coreorder.OrderStatus(record.Status),
	}); !result.Allowed {
		return nil, result.Error()
	}

	// 2. Net the demand; the scenario decides what downstream looks like
	lines, err := s.orderRepo.GetLines(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	plan, _, err := s.planOrder(ctx, record, lines)
	if err != nil {
		return nil, err
	}
	scen := routeScenario(flow, plan)
	if !scenario.Allows(flow, scen, coreorder.CommandCreateDownstream) {
		return nil, routedError(record.Number, flow, scen)
	}

	dsLines := scenario.DownstreamLines(flow, scen, plan, record.WorkstationID)
	if len(dsLines) == 0 {
		return nil, fmt.Errorf("order %s has nothing left to order downstream", record.Number)
	}

	sourceStation, err := s.catalogRepo.GetWorkstationByID(ctx, record.WorkstationID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up station %s: %w", record.WorkstationID, err)
	}

	// 3. Raise one order per shortfall line
	var created []*primary.Order
	for _, line := range dsLines {
		dsKind, ok := scenario.DownstreamKind(scen, line.Kind)
		if !ok {
			return nil, fmt.Errorf("no downstream order kind for %s %s", line.Kind, line.ItemID)
		}
		stationName := scenario.DownstreamStation(dsKind, sourceStation.Name)
		station, err := s.catalogRepo.GetWorkstationByName(ctx, stationName)
		if err != nil {
			return nil, fmt.Errorf("failed to look up station %s: %w", stationName, err)
		}

		number, err := s.orderRepo.GetNextNumber(ctx, string(dsKind))
		if err != nil {
			return nil, fmt.Errorf("failed to allocate order number: %w", err)
		}

		ds := &secondary.OrderRecord{
			ID:              uuid.NewString(),
			Number:          number,
			Kind:            string(dsKind),
			Status:          string(coreorder.InitialStatus()),
			WorkstationID:   station.ID,
			Priority:        record.Priority,
			RequestedBy:     record.RequestedBy,
			SourceOrderID:   record.ID,
			ShortfallKind:   string(line.Kind),
			ShortfallItemID: line.ItemID,
		}
		dsLineRecords := []*secondary.OrderLineRecord{{
			ID:       uuid.NewString(),
			OrderID:  ds.ID,
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
		}}
		if err := s.orderRepo.Create(ctx, ds, dsLineRecords); err != nil {
			if errors.Is(err, secondary.ErrDuplicate) {
				// An open downstream order for this shortfall already
				// exists; the repeat is a no-op.
				continue
			}
			return nil, fmt.Errorf("failed to create downstream order: %w", err)
		}
		s.recordActivity(ctx, ds.Number, "create", fmt.Sprintf("%s for %s", dsKind, record.Number))

		dto, err := s.orderDTO(ctx, ds)
		if err != nil {
			return nil, err
		}
		created = append(created, dto)
	}

	// 4. Park the order until downstream completes
	if err := s.advance(ctx, record, coreorder.CommandCreateDownstream, func(u *secondary.OrderStatusUpdate) {
		u.Scenario = strPtr(string(scen))
	}); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, record.Number, "downstream", fmt.Sprintf("raised %d downstream orders", len(created)))

	return s.commandResult(ctx, record.ID, scen, created, nil)
}

// notifySource re-confirms the completed order's source when this
// completion resolved its wait. Best effort: a source left waiting can
// always be confirmed manually.
func (s *OrderServiceImpl) notifySource(ctx context.Context, completed *secondary.OrderRecord) []string {
	if completed.SourceOrderID == "" {
		return nil
	}
	source, err := s.orderRepo.GetByID(ctx, completed.SourceOrderID)
	if err != nil {
		return nil
	}
	if coreorder.OrderStatus(source.Status) != coreorder.StatusAwaitingDownstream {
		return nil
	}

	lines, err := s.orderRepo.GetLines(ctx, source.ID)
	if err != nil {
		return nil
	}
	plan, _, err := s.planOrder(ctx, source, lines)
	if err != nil {
		return nil
	}
	flow := coreorder.OrderKind(source.Kind).Flow()
	scen := routeScenario(flow, plan)
	if !progressible(flow, scen) {
		// Still short; the source keeps waiting for its other
		// downstream orders.
		return nil
	}

	if err := s.advance(ctx, source, coreorder.CommandConfirm, func(u *secondary.OrderStatusUpdate) {
		u.Scenario = strPtr(string(scen))
	}); err != nil {
		return nil
	}
	s.recordActivity(ctx, source.Number, "confirm", fmt.Sprintf("downstream %s completed", completed.Number))
	return []string{source.Number}
}

// advance applies the command's status transition for the order and
// persists it, stamping whichever lifecycle timestamps the new status
// owns. mutate, when given, adjusts the update before it is written.
func (s *OrderServiceImpl) advance(ctx context.Context, record *secondary.OrderRecord, cmd coreorder.Command, mutate func(*secondary.OrderStatusUpdate)) error {
	next, ok := coreorder.Transition(cmd, coreorder.OrderStatus(record.Status))
	if !ok {
		return fmt.Errorf("cannot %s order %s in status %s", cmd, record.Number, record.Status)
	}

	transition := coreorder.ApplyStatusTransition(next, time.Now().UTC())
	update := secondary.OrderStatusUpdate{Status: string(transition.NewStatus)}
	if transition.ConfirmedAt != nil {
		update.ConfirmedAt = strPtr(transition.ConfirmedAt.Format(time.RFC3339))
	}
	if transition.StartedAt != nil {
		update.StartedAt = strPtr(transition.StartedAt.Format(time.RFC3339))
	}
	if transition.CompletedAt != nil {
		update.CompletedAt = strPtr(transition.CompletedAt.Format(time.RFC3339))
	}
	if mutate != nil {
		mutate(&update)
	}

	if err := s.orderRepo.UpdateStatus(ctx, record.ID, update); err != nil {
		return fmt.Errorf("failed to update order %s: %w", record.Number, err)
	}
	record.Status = update.Status
	return nil
}

// reject flags an order whose demand nothing in the chain can meet.
func (s *OrderServiceImpl) reject(ctx context.Context, record *secondary.OrderRecord, cause error) error {
	update := secondary.OrderStatusUpdate{Status: string(coreorder.StatusRejected)}
	if err := s.orderRepo.UpdateStatus(ctx, record.ID, update); err != nil {
		return fmt.Errorf("failed to reject order %s: %w", record.Number, err)
	}
	s.recordActivity(ctx, record.Number, "reject", cause.Error())
	return fmt.Errorf("order %s rejected: %w", record.Number, cause)
}

// planOrder nets the order against current stock. Transfer and supply
// orders net their lines as root demands at the order's station;
// production orders net their lines' BOM inputs instead - the question
// they answer is "can work start", not "is the output on hand".
func (s *OrderServiceImpl) planOrder(ctx context.Context, record *secondary.OrderRecord, lines []*secondary.OrderLineRecord) (*netting.Plan, netting.Snapshot, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, snap, err
	}

	var demands []netting.Demand
	if coreorder.OrderKind(record.Kind).Flow() == coreorder.FlowProduction {
		for _, line := range lines {
			for _, input := range snap.BOM[line.ItemID] {
				demands = append(demands, netting.Demand{
					ItemID:    input.ChildID,
					Quantity:  input.QtyPer * line.Quantity,
					StationID: record.WorkstationID,
				})
			}
		}
	} else {
		for _, line := range lines {
			demands = append(demands, netting.Demand{
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
				StationID: record.WorkstationID,
			})
		}
	}

	plan, err := netting.NetAll(snap, demands)
	if err != nil {
		return nil, snap, fmt.Errorf("failed to net order %s: %w", record.Number, err)
	}
	return plan, snap, nil
}

// loadSnapshot assembles the in-memory world state the netting engine
// computes over: catalog, BOM graph, stock by station and the holding
// station map.
func (s *OrderServiceImpl) loadSnapshot(ctx context.Context) (netting.Snapshot, error) {
	snap := netting.Snapshot{
		Items:  make(map[string]netting.Item),
		BOM:    make(map[string][]netting.BOMLine),
		OnHand: make(map[string]map[string]int64),
	}

	items, err := s.catalogRepo.ListItems(ctx, secondary.ItemFilters{})
	if err != nil {
		return snap, fmt.Errorf("failed to load items: %w", err)
	}
	for _, item := range items {
		snap.Items[item.ID] = netting.Item{
			ID:         item.ID,
			Name:       item.Name,
			Kind:       corecatalog.ItemKind(item.Kind),
			Procurable: item.Procurable,
		}
	}

	edges, err := s.catalogRepo.ListBOMEdges(ctx)
	if err != nil {
		return snap, fmt.Errorf("failed to load bom edges: %w", err)
	}
	for _, edge := range edges {
		snap.BOM[edge.ParentItemID] = append(snap.BOM[edge.ParentItemID], netting.BOMLine{
			ChildID: edge.ChildItemID,
			QtyPer:  edge.QtyPer,
		})
	}

	stock, err := s.stockRepo.ListStockLines(ctx, secondary.StockFilters{})
	if err != nil {
		return snap, fmt.Errorf("failed to load stock: %w", err)
	}
	for _, line := range stock {
		if snap.OnHand[line.WorkstationID] == nil {
			snap.OnHand[line.WorkstationID] = make(map[string]int64)
		}
		snap.OnHand[line.WorkstationID][line.ItemID] = line.Quantity
	}

	holding, err := s.holdingStations(ctx)
	if err != nil {
		return snap, err
	}
	snap.Holding = holding

	return snap, nil
}

// holdingStations maps each item kind to the station that canonically
// holds it.
func (s *OrderServiceImpl) holdingStations(ctx context.Context) (map[corecatalog.ItemKind]string, error) {
	holding := make(map[corecatalog.ItemKind]string, 3)
	for _, kind := range corecatalog.AllKinds() {
		name := corecatalog.HoldingStationName(kind)
		ws, err := s.catalogRepo.GetWorkstationByName(ctx, name)
		if err != nil {
			if errors.Is(err, secondary.ErrNotFound) {
				return nil, fmt.Errorf("station %s is missing - initialize the chain first with: brickline init", name)
			}
			return nil, fmt.Errorf("failed to look up station %s: %w", name, err)
		}
		holding[kind] = ws.ID
	}
	return holding, nil
}

// nettingLines resolves order lines into kinded netting lines.
func (s *OrderServiceImpl) nettingLines(ctx context.Context, lines []*secondary.OrderLineRecord) ([]netting.Line, error) {
	out := make([]netting.Line, len(lines))
	for i, line := range lines {
		item, err := s.catalogRepo.GetItemByID(ctx, line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up item %s: %w", line.ItemID, err)
		}
		out[i] = netting.Line{
			ItemID:   line.ItemID,
			Kind:     corecatalog.ItemKind(item.Kind),
			Quantity: line.Quantity,
		}
	}
	return out, nil
}

// commandResult reloads the order and packages the command outcome for
// the operator: the fresh order, the scenario in effect and what they
// can do next.
func (s *OrderServiceImpl) commandResult(ctx context.Context, orderID string, scen scenario.Scenario, created []*primary.Order, notified []string) (*primary.CommandResult, error) {
	record, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	dto, err := s.orderDTO(ctx, record)
	if err != nil {
		return nil, err
	}

	flow := coreorder.OrderKind(record.Kind).Flow()
	return &primary.CommandResult{
		Order:           dto,
		Scenario:        string(scen),
		AllowedCommands: commandNames(scenario.NextCommands(flow, coreorder.OrderStatus(record.Status), scen)),
		Created:         created,
		Notified:        notified,
	}, nil
}

// orderDTO converts an order record to its port representation, resolving
// station, item and source-order names for display.
func (s *OrderServiceImpl) orderDTO(ctx context.Context, record *secondary.OrderRecord) (*primary.Order, error) {
	dto := &primary.Order{
		ID:           record.ID,
		Number:       record.Number,
		Kind:         record.Kind,
		Status:       record.Status,
		Scenario:     record.Scenario,
		Priority:     record.Priority,
		RequestedBy:  record.RequestedBy,
		HaltReason:   record.HaltReason,
		CancelReason: record.CancelReason,
		Note:         record.Note,
		CreatedAt:    record.CreatedAt,
		ConfirmedAt:  record.ConfirmedAt,
		StartedAt:    record.StartedAt,
		CompletedAt:  record.CompletedAt,
	}

	station, err := s.catalogRepo.GetWorkstationByID(ctx, record.WorkstationID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up station %s: %w", record.WorkstationID, err)
	}
	dto.StationName = station.Name

	if record.SourceOrderID != "" {
		source, err := s.orderRepo.GetByID(ctx, record.SourceOrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up source order: %w", err)
		}
		dto.SourceNumber = source.Number
	}

	lines, err := s.orderRepo.GetLines(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	for _, line := range lines {
		ol := primary.OrderLine{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			Fulfilled: line.FulfilledQuantity,
		}
		// Display only; a missing item name never fails the read.
		if item, err := s.catalogRepo.GetItemByID(ctx, line.ItemID); err == nil {
			ol.ItemName = item.Name
		}
		dto.Lines = append(dto.Lines, ol)
	}
	return dto, nil
}

// resolveOrder resolves an order reference that may be an internal ID or
// a human number.
func (s *OrderServiceImpl) resolveOrder(ctx context.Context, ref string) (*secondary.OrderRecord, error) {
	record, err := s.orderRepo.GetByID(ctx, ref)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, secondary.ErrNotFound) {
		return nil, err
	}
	record, err = s.orderRepo.GetByNumber(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", ref, err)
	}
	return record, nil
}

// stationNamesByID loads the station id -> name map for display.
func (s *OrderServiceImpl) stationNamesByID(ctx context.Context) (map[string]string, error) {
	stations, err := s.catalogRepo.ListWorkstations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	names := make(map[string]string, len(stations))
	for _, ws := range stations {
		names[ws.ID] = ws.Name
	}
	return names, nil
}

// recordActivity writes an audit line for an order. Activity is advisory;
// a failed write never fails the command it records.
func (s *OrderServiceImpl) recordActivity(ctx context.Context, orderNumber, action, detail string) {
	_ = s.activity.Record(ctx, secondary.ActivityEntry{
		EntityType: "order",
		EntityID:   orderNumber,
		Action:     action,
		Detail:     detail,
	})
}

// routeScenario routes a plan for the flow: production flows route their
// input plan, transfer flows the demand plan itself.
func routeScenario(flow coreorder.Flow, plan *netting.Plan) scenario.Scenario {
	if flow == coreorder.FlowProduction {
		return scenario.RouteInputs(plan)
	}
	return scenario.Route(plan)
}

// progressible reports whether the scenario lets the order move without
// raising further downstream orders.
func progressible(flow coreorder.Flow, scen scenario.Scenario) bool {
	return scenario.Allows(flow, scen, coreorder.CommandFulfill) ||
		scenario.Allows(flow, scen, coreorder.CommandStart)
}

// routedError reports a command blocked by the current scenario, naming
// what the operator can do instead.
func routedError(number string, flow coreorder.Flow, scen scenario.Scenario) error {
	allowed := commandNames(scenario.AllowedCommands(flow, scen))
	return fmt.Errorf("order %s is routed to %s - next: %s", number, scen, strings.Join(allowed, ", "))
}

// planNode converts a netting node to its port representation.
func planNode(n *netting.Node, stationNames map[string]string) primary.PlanNode {
	node := primary.PlanNode{
		ItemID:   n.ItemID,
		ItemName: n.ItemName,
		Kind:     string(n.Kind),
		Required: n.Required,
		Covered:  n.Covered,
		Net:      n.Net,
		Tag:      string(n.Tag),
	}
	for _, c := range n.Coverage {
		name := stationNames[c.StationID]
		if name == "" {
			name = c.StationID
		}
		node.Coverage = append(node.Coverage, primary.PlanCover{StationName: name, Quantity: c.Quantity})
	}
	for _, child := range n.Children {
		node.Children = append(node.Children, planNode(child, stationNames))
	}
	return node
}

// commandNames converts commands to their wire names.
func commandNames(cmds []coreorder.Command) []string {
	if len(cmds) == 0 {
		return nil
	}
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = string(c)
	}
	return names
}

func strPtr(s string) *string {
	return &s
}
