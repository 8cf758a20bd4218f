package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/example/brickline/internal/ports/secondary"
)

// StockRepository implements secondary.StockRepository using SQLite.
type StockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

const stockLineSelectCols = "id, workstation_id, item_id, item_kind, quantity, version, updated_at"

// GetStockLine retrieves one stock line.
func (r *StockRepository) GetStockLine(ctx context.Context, workstationID, itemID string) (*secondary.StockLineRecord, error) {
	var updatedAt time.Time

	record := &secondary.StockLineRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT "+stockLineSelectCols+" FROM stock_lines WHERE workstation_id = ? AND item_id = ?",
		workstationID, itemID,
	).Scan(&record.ID, &record.WorkstationID, &record.ItemID, &record.ItemKind,
		&record.Quantity, &record.Version, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stock line for %s at %s: %w", itemID, workstationID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock line: %w", err)
	}

	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return record, nil
}

// ListStockLines retrieves stock lines matching the given filters.
func (r *StockRepository) ListStockLines(ctx context.Context, filters secondary.StockFilters) ([]*secondary.StockLineRecord, error) {
	query := "SELECT " + stockLineSelectCols + " FROM stock_lines WHERE 1=1"
	args := []any{}

	if filters.WorkstationID != "" {
		query += " AND workstation_id = ?"
		args = append(args, filters.WorkstationID)
	}

	if filters.ItemID != "" {
		query += " AND item_id = ?"
		args = append(args, filters.ItemID)
	}

	if filters.ItemKind != "" {
		query += " AND item_kind = ?"
		args = append(args, filters.ItemKind)
	}

	query += " ORDER BY workstation_id ASC, item_id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock lines: %w", err)
	}
	defer rows.Close()

	var lines []*secondary.StockLineRecord
	for rows.Next() {
		var updatedAt time.Time

		record := &secondary.StockLineRecord{}
		err := rows.Scan(&record.ID, &record.WorkstationID, &record.ItemID, &record.ItemKind,
			&record.Quantity, &record.Version, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock line: %w", err)
		}

		record.UpdatedAt = updatedAt.Format(time.RFC3339)
		lines = append(lines, record)
	}

	return lines, rows.Err()
}

// ApplyMovements applies a batch of signed stock deltas in one transaction.
// Each movement re-reads its stock line inside the transaction, checks the
// resulting balance, bumps the line with a version compare-and-swap, and
// appends a ledger entry carrying the balance after. The whole batch
// commits together or not at all.
func (r *StockRepository) ApplyMovements(ctx context.Context, movements []secondary.MovementRecord) error {
	if len(movements) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin stock transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range movements {
		if err := r.applyOne(ctx, tx, m); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return fmt.Errorf("failed to commit stock transaction: %w", secondary.ErrConflict)
		}
		return fmt.Errorf("failed to commit stock transaction: %w", err)
	}

	return nil
}

func (r *StockRepository) applyOne(ctx context.Context, tx *sql.Tx, m secondary.MovementRecord) error {
	var (
		lineID  string
		qty     int64
		version int64
	)

	err := tx.QueryRowContext(ctx,
		"SELECT id, quantity, version FROM stock_lines WHERE workstation_id = ? AND item_id = ?",
		m.WorkstationID, m.ItemID,
	).Scan(&lineID, &qty, &version)

	var balance int64
	switch {
	case err == sql.ErrNoRows:
		if m.Delta < 0 {
			return fmt.Errorf("no %s on hand at %s: %w", m.ItemID, m.WorkstationID, secondary.ErrInsufficientStock)
		}
		balance = m.Delta
		_, err = tx.ExecContext(ctx,
			"INSERT INTO stock_lines (id, workstation_id, item_id, item_kind, quantity, version) VALUES (?, ?, ?, ?, ?, 0)",
			uuid.NewString(), m.WorkstationID, m.ItemID, m.ItemKind, balance,
		)
		if err != nil {
			return fmt.Errorf("failed to create stock line: %w", err)
		}

	case err != nil:
		return fmt.Errorf("failed to read stock line: %w", err)

	default:
		balance = qty + m.Delta
		if balance < 0 {
			return fmt.Errorf("only %d of %s on hand at %s, movement needs %d: %w",
				qty, m.ItemID, m.WorkstationID, -m.Delta, secondary.ErrInsufficientStock)
		}

		result, err := tx.ExecContext(ctx,
			"UPDATE stock_lines SET quantity = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND version = ?",
			balance, lineID, version,
		)
		if err != nil {
			if isBusy(err) {
				return fmt.Errorf("stock line for %s at %s is being written: %w", m.ItemID, m.WorkstationID, secondary.ErrConflict)
			}
			return fmt.Errorf("failed to update stock line: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check stock update: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("stock line for %s at %s changed concurrently: %w", m.ItemID, m.WorkstationID, secondary.ErrConflict)
		}
	}

	var orderID, actor, note sql.NullString
	if m.OrderID != "" {
		orderID = sql.NullString{String: m.OrderID, Valid: true}
	}
	if m.Actor != "" {
		actor = sql.NullString{String: m.Actor, Valid: true}
	}
	if m.Note != "" {
		note = sql.NullString{String: m.Note, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO ledger_entries (workstation_id, item_id, item_kind, delta, balance_after, reason, order_id, actor, note) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.WorkstationID, m.ItemID, m.ItemKind, m.Delta, balance, m.Reason, orderID, actor, note,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

const ledgerSelectCols = "id, workstation_id, item_id, item_kind, delta, balance_after, reason, order_id, actor, note, created_at"

// ListLedgerEntries retrieves ledger entries matching the given filters,
// oldest first so replaying them reproduces the balance history.
func (r *StockRepository) ListLedgerEntries(ctx context.Context, filters secondary.LedgerFilters) ([]*secondary.LedgerEntryRecord, error) {
	query := "SELECT " + ledgerSelectCols + " FROM ledger_entries WHERE 1=1"
	args := []any{}

	if filters.WorkstationID != "" {
		query += " AND workstation_id = ?"
		args = append(args, filters.WorkstationID)
	}

	if filters.ItemID != "" {
		query += " AND item_id = ?"
		args = append(args, filters.ItemID)
	}

	if filters.OrderID != "" {
		query += " AND order_id = ?"
		args = append(args, filters.OrderID)
	}

	if filters.Reason != "" {
		query += " AND reason = ?"
		args = append(args, filters.Reason)
	}

	query += " ORDER BY id ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.LedgerEntryRecord
	for rows.Next() {
		var (
			orderID   sql.NullString
			actor     sql.NullString
			note      sql.NullString
			createdAt time.Time
		)

		record := &secondary.LedgerEntryRecord{}
		err := rows.Scan(&record.ID, &record.WorkstationID, &record.ItemID, &record.ItemKind,
			&record.Delta, &record.BalanceAfter, &record.Reason, &orderID, &actor, &note, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		record.OrderID = orderID.String
		record.Actor = actor.String
		record.Note = note.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		entries = append(entries, record)
	}

	return entries, rows.Err()
}

// isBusy reports whether err is SQLite telling us another writer holds
// the database.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
