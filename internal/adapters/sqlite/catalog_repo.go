// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	corecatalog "github.com/example/brickline/internal/core/catalog"
	"github.com/example/brickline/internal/ports/secondary"
)

// CatalogRepository implements secondary.CatalogRepository using SQLite.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateWorkstation persists a new workstation.
func (r *CatalogRepository) CreateWorkstation(ctx context.Context, ws *secondary.WorkstationRecord) error {
	if ws.ID == "" || ws.Name == "" {
		return fmt.Errorf("workstation ID and Name must be pre-populated by the service layer")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO workstations (id, name, position) VALUES (?, ?, ?)",
		ws.ID, ws.Name, ws.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create workstation: %w", err)
	}

	return nil
}

// GetWorkstationByID retrieves a workstation by its ID.
func (r *CatalogRepository) GetWorkstationByID(ctx context.Context, id string) (*secondary.WorkstationRecord, error) {
	return r.getWorkstation(ctx, "id = ?", id)
}

// GetWorkstationByName retrieves a workstation by its unique name.
func (r *CatalogRepository) GetWorkstationByName(ctx context.Context, name string) (*secondary.WorkstationRecord, error) {
	return r.getWorkstation(ctx, "name = ?", name)
}

func (r *CatalogRepository) getWorkstation(ctx context.Context, where string, arg any) (*secondary.WorkstationRecord, error) {
	var createdAt time.Time

	record := &secondary.WorkstationRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, position, created_at FROM workstations WHERE "+where,
		arg,
	).Scan(&record.ID, &record.Name, &record.Position, &createdAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workstation %v: %w", arg, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workstation: %w", err)
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

// ListWorkstations retrieves all workstations in chain order.
func (r *CatalogRepository) ListWorkstations(ctx context.Context) ([]*secondary.WorkstationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, position, created_at FROM workstations ORDER BY position ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list workstations: %w", err)
	}
	defer rows.Close()

	var stations []*secondary.WorkstationRecord
	for rows.Next() {
		var createdAt time.Time

		record := &secondary.WorkstationRecord{}
		if err := rows.Scan(&record.ID, &record.Name, &record.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan workstation: %w", err)
		}

		record.CreatedAt = createdAt.Format(time.RFC3339)
		stations = append(stations, record)
	}

	return stations, rows.Err()
}

const itemSelectCols = "id, name, kind, category, procurable, unit_cost, created_at, updated_at"

// CreateItem persists a new catalog item.
func (r *CatalogRepository) CreateItem(ctx context.Context, item *secondary.ItemRecord) error {
	if item.ID == "" || item.Kind == "" {
		return fmt.Errorf("item ID and Kind must be pre-populated by the service layer")
	}

	var category sql.NullString
	if item.Category != "" {
		category = sql.NullString{String: item.Category, Valid: true}
	}

	unitCost := item.UnitCost
	if unitCost == "" {
		unitCost = "0"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO items (id, name, kind, category, procurable, unit_cost) VALUES (?, ?, ?, ?, ?, ?)",
		item.ID, item.Name, item.Kind, category, item.Procurable, unitCost,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// GetItemByID retrieves an item by its ID.
func (r *CatalogRepository) GetItemByID(ctx context.Context, id string) (*secondary.ItemRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+itemSelectCols+" FROM items WHERE id = ?",
		id,
	)

	record, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return record, nil
}

// ListItems retrieves items matching the given filters.
func (r *CatalogRepository) ListItems(ctx context.Context, filters secondary.ItemFilters) ([]*secondary.ItemRecord, error) {
	query := "SELECT " + itemSelectCols + " FROM items WHERE 1=1"
	args := []any{}

	if filters.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filters.Kind)
	}

	if filters.Category != "" {
		query += " AND category = ?"
		args = append(args, filters.Category)
	}

	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*secondary.ItemRecord
	for rows.Next() {
		record, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, record)
	}

	return items, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*secondary.ItemRecord, error) {
	var (
		category  sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)

	record := &secondary.ItemRecord{}
	err := s.Scan(&record.ID, &record.Name, &record.Kind, &category,
		&record.Procurable, &record.UnitCost, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.Category = category.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return record, nil
}

// GetNextItemID returns the next available item ID for a kind.
// Uses core functions for the ID format to keep business logic in the
// functional core.
func (r *CatalogRepository) GetNextItemID(ctx context.Context, kind string) (string, error) {
	k := corecatalog.ItemKind(kind)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown item kind %q", kind)
	}

	// Item IDs are PREFIX-XXX with a 3-letter prefix, so the numeric
	// part starts at character 5.
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM items WHERE kind = ?",
		kind,
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next item ID: %w", err)
	}

	return corecatalog.FormatItemID(k, maxID), nil
}

const bomEdgeSelectCols = "id, parent_item_id, parent_kind, child_item_id, child_kind, qty_per, created_at"

// CreateBOMEdge persists a new BOM edge.
func (r *CatalogRepository) CreateBOMEdge(ctx context.Context, edge *secondary.BOMEdgeRecord) error {
	if edge.ID == "" {
		return fmt.Errorf("BOM edge ID must be pre-populated by the service layer")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO bom_edges (id, parent_item_id, parent_kind, child_item_id, child_kind, qty_per) VALUES (?, ?, ?, ?, ?, ?)",
		edge.ID, edge.ParentItemID, edge.ParentKind, edge.ChildItemID, edge.ChildKind, edge.QtyPer,
	)
	if err != nil {
		return fmt.Errorf("failed to create BOM edge: %w", err)
	}

	return nil
}

// DeleteBOMEdge removes a BOM edge.
func (r *CatalogRepository) DeleteBOMEdge(ctx context.Context, parentItemID, childItemID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM bom_edges WHERE parent_item_id = ? AND child_item_id = ?",
		parentItemID, childItemID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete BOM edge: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check BOM edge deletion: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("BOM edge %s -> %s: %w", parentItemID, childItemID, secondary.ErrNotFound)
	}

	return nil
}

// EdgeExists checks whether a BOM edge already exists.
func (r *CatalogRepository) EdgeExists(ctx context.Context, parentItemID, childItemID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bom_edges WHERE parent_item_id = ? AND child_item_id = ?",
		parentItemID, childItemID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check BOM edge: %w", err)
	}

	return count > 0, nil
}

// ListBOMEdges retrieves the whole BOM graph in insertion order, so BOM
// traversal stays deterministic.
func (r *CatalogRepository) ListBOMEdges(ctx context.Context) ([]*secondary.BOMEdgeRecord, error) {
	return r.listEdges(ctx,
		"SELECT "+bomEdgeSelectCols+" FROM bom_edges ORDER BY rowid ASC")
}

// GetBOMChildren retrieves the edges below one parent item.
func (r *CatalogRepository) GetBOMChildren(ctx context.Context, parentItemID string) ([]*secondary.BOMEdgeRecord, error) {
	return r.listEdges(ctx,
		"SELECT "+bomEdgeSelectCols+" FROM bom_edges WHERE parent_item_id = ? ORDER BY rowid ASC",
		parentItemID)
}

func (r *CatalogRepository) listEdges(ctx context.Context, query string, args ...any) ([]*secondary.BOMEdgeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list BOM edges: %w", err)
	}
	defer rows.Close()

	var edges []*secondary.BOMEdgeRecord
	for rows.Next() {
		var createdAt time.Time

		record := &secondary.BOMEdgeRecord{}
		err := rows.Scan(&record.ID, &record.ParentItemID, &record.ParentKind,
			&record.ChildItemID, &record.ChildKind, &record.QtyPer, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan BOM edge: %w", err)
		}

		record.CreatedAt = createdAt.Format(time.RFC3339)
		edges = append(edges, record)
	}

	return edges, rows.Err()
}
