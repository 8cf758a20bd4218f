// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/brickline/internal/ports/primary"
)

// CatalogAdapter is a thin adapter that translates CLI operations to
// CatalogService calls. It depends only on the service interface, enabling
// easy testing with mocks.
type CatalogAdapter struct {
	service primary.CatalogService
	out     io.Writer
}

// NewCatalogAdapter creates a new CatalogAdapter with the given service.
func NewCatalogAdapter(service primary.CatalogService, out io.Writer) *CatalogAdapter {
	return &CatalogAdapter{
		service: service,
		out:     out,
	}
}

// InitChain creates the assembly chain stations.
func (a *CatalogAdapter) InitChain(ctx context.Context) error {
	stations, err := a.service.InitChain(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Assembly chain ready (%d stations)\n", len(stations))
	for _, s := range stations {
		fmt.Fprintf(a.out, "  %d. %s (%s)\n", s.Position, s.Name, s.ID)
	}
	return nil
}

// ListStations prints the chain in order.
func (a *CatalogAdapter) ListStations(ctx context.Context) error {
	stations, err := a.service.ListStations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stations: %w", err)
	}

	if len(stations) == 0 {
		fmt.Fprintln(a.out, "No stations found - run 'brickline init' first")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-8s %-4s %s\n", "ID", "POS", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────")
	for _, s := range stations {
		fmt.Fprintf(a.out, "%-8s %-4d %s\n", s.ID, s.Position, s.Name)
	}
	fmt.Fprintln(a.out)
	return nil
}

// CreateItem creates a catalog item.
func (a *CatalogAdapter) CreateItem(ctx context.Context, req primary.CreateItemRequest) error {
	item, err := a.service.CreateItem(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created item %s: %s\n", item.ID, item.Name)
	return nil
}

// ListItems lists catalog items with optional filters.
func (a *CatalogAdapter) ListItems(ctx context.Context, kind, category string) error {
	items, err := a.service.ListItems(ctx, primary.ItemListFilters{
		Kind:     kind,
		Category: category,
	})
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-8s %-12s %-10s %s\n", "ID", "KIND", "CATEGORY", "COST", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, item := range items {
		proc := ""
		if item.Procurable {
			proc = " [procurable]"
		}
		fmt.Fprintf(a.out, "%-10s %-8s %-12s %-10s %s%s\n", item.ID, item.Kind, item.Category, item.UnitCost, item.Name, proc)
	}
	fmt.Fprintln(a.out)
	return nil
}

// ShowItem prints one item with its BOM tree.
func (a *CatalogAdapter) ShowItem(ctx context.Context, itemID string) error {
	item, err := a.service.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to get item: %w", err)
	}

	fmt.Fprintf(a.out, "\nItem:  %s\n", item.ID)
	fmt.Fprintf(a.out, "Name:  %s\n", item.Name)
	fmt.Fprintf(a.out, "Kind:  %s\n", item.Kind)
	if item.Category != "" {
		fmt.Fprintf(a.out, "Category: %s\n", item.Category)
	}
	fmt.Fprintf(a.out, "Cost:  %s\n", item.UnitCost)
	if item.Procurable {
		fmt.Fprintln(a.out, "Procurable: yes")
	}
	fmt.Fprintln(a.out)
	return nil
}

// AddBOMEdge adds one composition edge.
func (a *CatalogAdapter) AddBOMEdge(ctx context.Context, parentID, childID string, qtyPer int64) error {
	edge, err := a.service.AddBOMEdge(ctx, primary.AddBOMEdgeRequest{
		ParentItemID: parentID,
		ChildItemID:  childID,
		QtyPer:       qtyPer,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ BOM edge added: %s needs %dx %s\n", edge.ParentItemID, edge.QtyPer, edge.ChildItemID)
	return nil
}

// RemoveBOMEdge removes one composition edge.
func (a *CatalogAdapter) RemoveBOMEdge(ctx context.Context, parentID, childID string) error {
	if err := a.service.RemoveBOMEdge(ctx, parentID, childID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ BOM edge removed: %s -> %s\n", parentID, childID)
	return nil
}

// ShowBOM prints the exploded composition tree below an item.
func (a *CatalogAdapter) ShowBOM(ctx context.Context, itemID string) error {
	tree, err := a.service.GetBOM(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to get BOM: %w", err)
	}

	fmt.Fprintln(a.out)
	a.printBOMNode(tree, 0)
	fmt.Fprintln(a.out)
	return nil
}

func (a *CatalogAdapter) printBOMNode(node *primary.BOMNode, depth int) {
	indent := strings.Repeat("  ", depth)
	if depth == 0 {
		fmt.Fprintf(a.out, "%s%s  %s\n", indent, node.ItemID, node.ItemName)
	} else {
		fmt.Fprintf(a.out, "%s%dx %s  %s\n", indent, node.QtyPer, node.ItemID, node.ItemName)
	}
	for i := range node.Children {
		a.printBOMNode(&node.Children[i], depth+1)
	}
}

// CheckBOM validates the whole graph.
func (a *CatalogAdapter) CheckBOM(ctx context.Context) error {
	if err := a.service.CheckBOM(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "✓ BOM graph is consistent")
	return nil
}

// RolledUpCost prints the full material cost of one unit.
func (a *CatalogAdapter) RolledUpCost(ctx context.Context, itemID string) error {
	cost, err := a.service.RolledUpCost(ctx, itemID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Rolled-up cost of %s: %s\n", itemID, cost)
	return nil
}
