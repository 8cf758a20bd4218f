package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/brickline/internal/ctxutil"
	"github.com/example/brickline/internal/ports/secondary"
)

// ActivityLogRepository implements secondary.ActivityLog using SQLite.
type ActivityLogRepository struct {
	db *sql.DB
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(db *sql.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Record appends one activity entry. When the entry carries no actor the
// acting user is taken from context.
func (r *ActivityLogRepository) Record(ctx context.Context, entry secondary.ActivityEntry) error {
	actor := entry.Actor
	if actor == "" {
		actor = ctxutil.ActorFromContext(ctx)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO activity_log (entity_type, entity_id, action, actor, detail) VALUES (?, ?, ?, ?, ?)",
		entry.EntityType, entry.EntityID, entry.Action, nullable(actor), nullable(entry.Detail),
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	return nil
}

// List retrieves activity records matching the given filters, newest first.
func (r *ActivityLogRepository) List(ctx context.Context, filters secondary.ActivityFilters) ([]*secondary.ActivityRecord, error) {
	query := "SELECT id, entity_type, entity_id, action, actor, detail, created_at FROM activity_log WHERE 1=1"
	args := []any{}

	if filters.EntityType != "" {
		query += " AND entity_type = ?"
		args = append(args, filters.EntityType)
	}

	if filters.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, filters.EntityID)
	}

	query += " ORDER BY id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var records []*secondary.ActivityRecord
	for rows.Next() {
		var (
			actor     sql.NullString
			detail    sql.NullString
			createdAt time.Time
		)

		record := &secondary.ActivityRecord{}
		err := rows.Scan(&record.ID, &record.EntityType, &record.EntityID,
			&record.Action, &actor, &detail, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}

		record.Actor = actor.String
		record.Detail = detail.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		records = append(records, record)
	}

	return records, rows.Err()
}
