// Package app contains the application services that implement the primary
// ports. Services orchestrate: they fetch state through secondary ports,
// evaluate guards and rules from the functional core, and write results
// back. No business decisions are made here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	corecatalog "github.com/example/brickline/internal/core/catalog"
	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/ports/secondary"
)

// CatalogServiceImpl implements the CatalogService interface.
type CatalogServiceImpl struct {
	catalogRepo secondary.CatalogRepository
	activity    secondary.ActivityLog
}

// NewCatalogService creates a new CatalogService with injected dependencies.
func NewCatalogService(catalogRepo secondary.CatalogRepository, activity secondary.ActivityLog) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		catalogRepo: catalogRepo,
		activity:    activity,
	}
}

// InitChain creates the six-station assembly chain if it does not exist
// yet. Stations already present are left untouched, so re-running init is
// safe.
func (s *CatalogServiceImpl) InitChain(ctx context.Context) ([]*primary.Workstation, error) {
	var stations []*primary.Workstation
	created := 0

	for i, name := range corecatalog.ChainStations() {
		existing, err := s.catalogRepo.GetWorkstationByName(ctx, name)
		if err == nil {
			stations = append(stations, recordToWorkstation(existing))
			continue
		}
		if !errors.Is(err, secondary.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up station %s: %w", name, err)
		}

		record := &secondary.WorkstationRecord{
			ID:       fmt.Sprintf("WS-%03d", i+1),
			Name:     name,
			Position: i + 1,
		}
		if err := s.catalogRepo.CreateWorkstation(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create station %s: %w", name, err)
		}
		created++
		stations = append(stations, recordToWorkstation(record))
	}

	if created > 0 {
		// Activity is advisory; a failed write never fails the command.
		_ = s.activity.Record(ctx, secondary.ActivityEntry{
			EntityType: "chain",
			EntityID:   "assembly_chain",
			Action:     "init",
			Detail:     fmt.Sprintf("%d stations created", created),
		})
	}

	return stations, nil
}

// ListStations lists the workstations in chain order.
func (s *CatalogServiceImpl) ListStations(ctx context.Context) ([]*primary.Workstation, error) {
	records, err := s.catalogRepo.ListWorkstations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	stations := make([]*primary.Workstation, len(records))
	for i, r := range records {
		stations[i] = recordToWorkstation(r)
	}
	return stations, nil
}

// CreateItem creates a catalog item. The ID is generated per kind.
func (s *CatalogServiceImpl) CreateItem(ctx context.Context, req primary.CreateItemRequest) (*primary.Item, error) {
	// 1. Validate the request
	kind := corecatalog.ItemKind(req.Kind)
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown item kind %q", req.Kind)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("item name is required")
	}

	unitCost := req.UnitCost
	if unitCost == "" {
		unitCost = "0"
	}
	cost, err := decimal.NewFromString(unitCost)
	if err != nil {
		return nil, fmt.Errorf("invalid unit cost %q: %w", req.UnitCost, err)
	}
	if cost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", cost)
	}

	// 2. Generate the ID using the core format rule
	id, err := s.catalogRepo.GetNextItemID(ctx, req.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to generate item ID: %w", err)
	}

	// 3. Persist
	record := &secondary.ItemRecord{
		ID:         id,
		Name:       req.Name,
		Kind:       req.Kind,
		Category:   req.Category,
		Procurable: req.Procurable,
		UnitCost:   cost.String(),
	}
	if err := s.catalogRepo.CreateItem(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	_ = s.activity.Record(ctx, secondary.ActivityEntry{
		EntityType: "item",
		EntityID:   record.ID,
		Action:     "create",
		Detail:     record.Name,
	})

	return recordToItem(record), nil
}

// GetItem retrieves an item by ID.
func (s *CatalogServiceImpl) GetItem(ctx context.Context, itemID string) (*primary.Item, error) {
	record, err := s.catalogRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return recordToItem(record), nil
}

// ListItems lists items with optional filters.
func (s *CatalogServiceImpl) ListItems(ctx context.Context, filters primary.ItemListFilters) ([]*primary.Item, error) {
	records, err := s.catalogRepo.ListItems(ctx, secondary.ItemFilters{
		Kind:     filters.Kind,
		Category: filters.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]*primary.Item, len(records))
	for i, r := range records {
		items[i] = recordToItem(r)
	}
	return items, nil
}

// AddBOMEdge adds a composition edge to the BOM graph.
func (s *CatalogServiceImpl) AddBOMEdge(ctx context.Context, req primary.AddBOMEdgeRequest) (*primary.BOMEdge, error) {
	// 1. Fetch both ends
	parent, err := s.catalogRepo.GetItemByID(ctx, req.ParentItemID)
	if err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			return nil, fmt.Errorf("parent item %s not found", req.ParentItemID)
		}
		return nil, fmt.Errorf("failed to get parent item: %w", err)
	}
	child, err := s.catalogRepo.GetItemByID(ctx, req.ChildItemID)
	if err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			return nil, fmt.Errorf("child item %s not found", req.ChildItemID)
		}
		return nil, fmt.Errorf("failed to get child item: %w", err)
	}

	exists, err := s.catalogRepo.EdgeExists(ctx, req.ParentItemID, req.ChildItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to check BOM edge: %w", err)
	}

	// 2. Check guard
	guardCtx := corecatalog.EdgeContext{
		ParentID:   parent.ID,
		ParentKind: corecatalog.ItemKind(parent.Kind),
		ChildID:    child.ID,
		ChildKind:  corecatalog.ItemKind(child.Kind),
		QtyPer:     req.QtyPer,
		EdgeExists: exists,
	}
	if result := corecatalog.CanAddEdge(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	// 3. Persist
	record := &secondary.BOMEdgeRecord{
		ID:           uuid.NewString(),
		ParentItemID: parent.ID,
		ParentKind:   parent.Kind,
		ChildItemID:  child.ID,
		ChildKind:    child.Kind,
		QtyPer:       req.QtyPer,
	}
	if err := s.catalogRepo.CreateBOMEdge(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create BOM edge: %w", err)
	}

	_ = s.activity.Record(ctx, secondary.ActivityEntry{
		EntityType: "item",
		EntityID:   parent.ID,
		Action:     "bom_add",
		Detail:     fmt.Sprintf("%dx %s", req.QtyPer, child.ID),
	})

	return &primary.BOMEdge{
		ID:           record.ID,
		ParentItemID: record.ParentItemID,
		ChildItemID:  record.ChildItemID,
		QtyPer:       record.QtyPer,
	}, nil
}

// RemoveBOMEdge removes a composition edge.
func (s *CatalogServiceImpl) RemoveBOMEdge(ctx context.Context, parentItemID, childItemID string) error {
	if err := s.catalogRepo.DeleteBOMEdge(ctx, parentItemID, childItemID); err != nil {
		return err
	}

	_ = s.activity.Record(ctx, secondary.ActivityEntry{
		EntityType: "item",
		EntityID:   parentItemID,
		Action:     "bom_remove",
		Detail:     childItemID,
	})

	return nil
}

// GetBOM retrieves the exploded BOM tree below an item.
func (s *CatalogServiceImpl) GetBOM(ctx context.Context, itemID string) (*primary.BOMNode, error) {
	item, err := s.catalogRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	items, edges, err := s.loadGraph(ctx)
	if err != nil {
		return nil, err
	}

	// A cyclic graph would never terminate below; refuse to explode it.
	if err := corecatalog.CheckAcyclic(edges); err != nil {
		return nil, err
	}

	children := corecatalog.ChildrenByParent(edges)
	root := buildBOMNode(item.ID, 1, items, children)
	root.ItemName = item.Name
	root.Kind = item.Kind
	return root, nil
}

func buildBOMNode(itemID string, qtyPer int64, items map[string]*secondary.ItemRecord, children map[string][]corecatalog.Edge) *primary.BOMNode {
	node := &primary.BOMNode{
		ItemID: itemID,
		QtyPer: qtyPer,
	}
	if item, ok := items[itemID]; ok {
		node.ItemName = item.Name
		node.Kind = item.Kind
	}

	for _, edge := range children[itemID] {
		node.Children = append(node.Children, *buildBOMNode(edge.ChildID, edge.QtyPer, items, children))
	}
	return node
}

// CheckBOM validates the whole BOM graph: every edge steps one level down
// the chain, and no item can reach itself.
func (s *CatalogServiceImpl) CheckBOM(ctx context.Context) error {
	_, edges, err := s.loadGraph(ctx)
	if err != nil {
		return err
	}

	for _, e := range edges {
		wantChild, ok := e.ParentKind.ChildKind()
		if !ok || wantChild != e.ChildKind {
			return fmt.Errorf("BOM edge %s -> %s skips a level: %s items are not composed of %s items",
				e.ParentID, e.ChildID, e.ParentKind, e.ChildKind)
		}
	}

	return corecatalog.CheckAcyclic(edges)
}

// RolledUpCost computes the full material cost of one unit of an item.
func (s *CatalogServiceImpl) RolledUpCost(ctx context.Context, itemID string) (string, error) {
	if _, err := s.catalogRepo.GetItemByID(ctx, itemID); err != nil {
		return "", err
	}

	items, edges, err := s.loadGraph(ctx)
	if err != nil {
		return "", err
	}

	unitCosts := make(map[string]decimal.Decimal, len(items))
	for id, item := range items {
		cost, err := decimal.NewFromString(item.UnitCost)
		if err != nil {
			return "", fmt.Errorf("item %s has an invalid unit cost %q: %w", id, item.UnitCost, err)
		}
		unitCosts[id] = cost
	}

	total, err := corecatalog.RolledUpCost(itemID, unitCosts, edges)
	if err != nil {
		return "", err
	}
	return total.String(), nil
}

// loadGraph fetches the full item catalog and BOM edge list as core types.
func (s *CatalogServiceImpl) loadGraph(ctx context.Context) (map[string]*secondary.ItemRecord, []corecatalog.Edge, error) {
	itemRecords, err := s.catalogRepo.ListItems(ctx, secondary.ItemFilters{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list items: %w", err)
	}
	items := make(map[string]*secondary.ItemRecord, len(itemRecords))
	for _, r := range itemRecords {
		items[r.ID] = r
	}

	edgeRecords, err := s.catalogRepo.ListBOMEdges(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list BOM edges: %w", err)
	}
	edges := make([]corecatalog.Edge, len(edgeRecords))
	for i, r := range edgeRecords {
		edges[i] = corecatalog.Edge{
			ParentID:   r.ParentItemID,
			ParentKind: corecatalog.ItemKind(r.ParentKind),
			ChildID:    r.ChildItemID,
			ChildKind:  corecatalog.ItemKind(r.ChildKind),
			QtyPer:     r.QtyPer,
		}
	}

	return items, edges, nil
}

func recordToWorkstation(r *secondary.WorkstationRecord) *primary.Workstation {
	return &primary.Workstation{
		ID:       r.ID,
		Name:     r.Name,
		Position: r.Position,
	}
}

func recordToItem(r *secondary.ItemRecord) *primary.Item {
	return &primary.Item{
		ID:         r.ID,
		Name:       r.Name,
		Kind:       r.Kind,
		Category:   r.Category,
		Procurable: r.Procurable,
		UnitCost:   r.UnitCost,
		CreatedAt:  r.CreatedAt,
	}
}
