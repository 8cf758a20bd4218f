package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	coreorder "github.com/example/brickline/internal/core/order"
	"github.com/example/brickline/internal/ports/secondary"
)

// OrderRepository implements secondary.OrderRepository using SQLite.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderSelectCols = `id, number, kind, status, scenario, workstation_id, priority, requested_by,
	source_order_id, shortfall_kind, shortfall_item_id, halt_reason, cancel_reason, note,
	created_at, updated_at, confirmed_at, started_at, completed_at`

// Create persists a new order with its lines in one transaction.
// The open-downstream uniqueness guard lives in the schema; a blocked
// insert surfaces as ErrDuplicate so the caller can treat the existing
// downstream order as the result.
func (r *OrderRepository) Create(ctx context.Context, order *secondary.OrderRecord, lines []*secondary.OrderLineRecord) error {
	if order.ID == "" || order.Number == "" || order.Status == "" {
		return fmt.Errorf("order ID, Number and Status must be pre-populated by the service layer")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, number, kind, status, scenario, workstation_id, priority, requested_by,
			source_order_id, shortfall_kind, shortfall_item_id, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Number, order.Kind, order.Status, nullable(order.Scenario),
		order.WorkstationID, nullable(order.Priority), nullable(order.RequestedBy),
		nullable(order.SourceOrderID), nullable(order.ShortfallKind), nullable(order.ShortfallItemID),
		nullable(order.Note),
	)
	if err != nil {
		if isDownstreamDuplicate(err) {
			return fmt.Errorf("an open %s order for %s already exists downstream of %s: %w",
				order.Kind, order.ShortfallItemID, order.SourceOrderID, secondary.ErrDuplicate)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, line := range lines {
		if line.ID == "" {
			return fmt.Errorf("order line ID must be pre-populated by the service layer")
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_lines (id, order_id, item_id, quantity, fulfilled_quantity) VALUES (?, ?, ?, ?, ?)",
			line.ID, order.ID, line.ItemID, line.Quantity, line.FulfilledQuantity,
		)
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order transaction: %w", err)
	}

	return nil
}

// isDownstreamDuplicate reports whether err is a violation of the
// open-downstream unique index rather than some other constraint.
func isDownstreamDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return strings.Contains(sqliteErr.Error(), "shortfall_item_id")
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*secondary.OrderRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderSelectCols+" FROM orders WHERE id = ?",
		id,
	)

	record, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return record, nil
}

// GetByNumber retrieves an order by its human number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*secondary.OrderRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderSelectCols+" FROM orders WHERE number = ?",
		number,
	)

	record, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", number, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return record, nil
}

// List retrieves orders matching the given filters.
func (r *OrderRepository) List(ctx context.Context, filters secondary.OrderFilters) ([]*secondary.OrderRecord, error) {
	query := "SELECT " + orderSelectCols + " FROM orders WHERE 1=1"
	args := []any{}

	if filters.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filters.Kind)
	}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.WorkstationID != "" {
		query += " AND workstation_id = ?"
		args = append(args, filters.WorkstationID)
	}

	if filters.OpenOnly {
		query += " AND status NOT IN ('completed', 'cancelled', 'rejected')"
	}

	query += " ORDER BY created_at DESC, number DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	return r.listOrders(ctx, query, args...)
}

// ListBySource retrieves the downstream orders spawned by a source order,
// oldest first.
func (r *OrderRepository) ListBySource(ctx context.Context, sourceOrderID string) ([]*secondary.OrderRecord, error) {
	return r.listOrders(ctx,
		"SELECT "+orderSelectCols+" FROM orders WHERE source_order_id = ? ORDER BY created_at ASC, number ASC",
		sourceOrderID)
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]*secondary.OrderRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*secondary.OrderRecord
	for rows.Next() {
		record, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, record)
	}

	return orders, rows.Err()
}

func scanOrder(s scanner) (*secondary.OrderRecord, error) {
	var (
		scenario        sql.NullString
		priority        sql.NullString
		requestedBy     sql.NullString
		sourceOrderID   sql.NullString
		shortfallKind   sql.NullString
		shortfallItemID sql.NullString
		haltReason      sql.NullString
		cancelReason    sql.NullString
		note            sql.NullString
		createdAt       time.Time
		updatedAt       time.Time
		confirmedAt     sql.NullTime
		startedAt       sql.NullTime
		completedAt     sql.NullTime
	)

	record := &secondary.OrderRecord{}
	err := s.Scan(&record.ID, &record.Number, &record.Kind, &record.Status, &scenario,
		&record.WorkstationID, &priority, &requestedBy,
		&sourceOrderID, &shortfallKind, &shortfallItemID, &haltReason, &cancelReason, &note,
		&createdAt, &updatedAt, &confirmedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	record.Scenario = scenario.String
	record.Priority = priority.String
	record.RequestedBy = requestedBy.String
	record.SourceOrderID = sourceOrderID.String
	record.ShortfallKind = shortfallKind.String
	record.ShortfallItemID = shortfallItemID.String
	record.HaltReason = haltReason.String
	record.CancelReason = cancelReason.String
	record.Note = note.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	if confirmedAt.Valid {
		record.ConfirmedAt = confirmedAt.Time.Format(time.RFC3339)
	}
	if startedAt.Valid {
		record.StartedAt = startedAt.Time.Format(time.RFC3339)
	}
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

// GetLines retrieves an order's lines in insertion order.
func (r *OrderRepository) GetLines(ctx context.Context, orderID string) ([]*secondary.OrderLineRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, item_id, quantity, fulfilled_quantity, created_at FROM order_lines WHERE order_id = ? ORDER BY rowid ASC",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer rows.Close()

	var lines []*secondary.OrderLineRecord
	for rows.Next() {
		var createdAt time.Time

		record := &secondary.OrderLineRecord{}
		err := rows.Scan(&record.ID, &record.OrderID, &record.ItemID,
			&record.Quantity, &record.FulfilledQuantity, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}

		record.CreatedAt = createdAt.Format(time.RFC3339)
		lines = append(lines, record)
	}

	return lines, rows.Err()
}

// UpdateStatus applies a status change and its side fields. Pointer fields
// in the update are only written when set, so a transition touches exactly
// the columns it owns.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, update secondary.OrderStatusUpdate) error {
	query := "UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP"
	args := []any{update.Status}

	if update.Scenario != nil {
		query += ", scenario = ?"
		args = append(args, nullable(*update.Scenario))
	}
	if update.ConfirmedAt != nil {
		query += ", confirmed_at = ?"
		args = append(args, *update.ConfirmedAt)
	}
	if update.StartedAt != nil {
		query += ", started_at = ?"
		args = append(args, *update.StartedAt)
	}
	if update.CompletedAt != nil {
		query += ", completed_at = ?"
		args = append(args, *update.CompletedAt)
	}
	if update.HaltReason != nil {
		query += ", halt_reason = ?"
		args = append(args, nullable(*update.HaltReason))
	}
	if update.CancelReason != nil {
		query += ", cancel_reason = ?"
		args = append(args, nullable(*update.CancelReason))
	}

	query += " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check order update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// UpdateLineFulfilled sets the fulfilled quantity on one line.
func (r *OrderRepository) UpdateLineFulfilled(ctx context.Context, orderID, itemID string, fulfilled int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE order_lines SET fulfilled_quantity = ? WHERE order_id = ? AND item_id = ?",
		fulfilled, orderID, itemID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order line: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check order line update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("line for %s on order %s: %w", itemID, orderID, secondary.ErrNotFound)
	}

	return nil
}

// GetNextNumber returns the next available human number for a kind.
// Uses core functions for the number format to keep business logic in the
// functional core.
func (r *OrderRepository) GetNextNumber(ctx context.Context, kind string) (string, error) {
	k := coreorder.OrderKind(kind)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown order kind %q", kind)
	}

	// Order numbers are PREFIX-XXX with a 2-letter prefix, so the
	// numeric part starts at character 4.
	var maxNum int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(number, 4) AS INTEGER)), 0) FROM orders WHERE kind = ?",
		kind,
	).Scan(&maxNum)
	if err != nil {
		return "", fmt.Errorf("failed to get next order number: %w", err)
	}

	return coreorder.FormatNumber(k, maxNum), nil
}

// nullable converts an empty string to a NULL column value.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
