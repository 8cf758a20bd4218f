package secondary

import "context"

// ActivityLog defines the secondary port for the audit activity feed.
// Implementations extract the acting user from context when the entry
// carries none. Writes are fire-and-forget from the caller's point of
// view; a failed activity write never fails the command it records.
type ActivityLog interface {
	// Record appends one activity entry.
	Record(ctx context.Context, entry ActivityEntry) error

	// List retrieves activity records matching the given filters,
	// newest first.
	List(ctx context.Context, filters ActivityFilters) ([]*ActivityRecord, error)
}

// ActivityEntry is one audit feed record to write.
type ActivityEntry struct {
	EntityType string // "order", "item", "stock"
	EntityID   string
	Action     string // the command that ran, e.g. "confirm", "fulfill"
	Actor      string
	Detail     string
}

// ActivityRecord is one audit feed record as stored in persistence.
type ActivityRecord struct {
	ID         int64
	EntityType string
	EntityID   string
	Action     string
	Actor      string
	Detail     string
	CreatedAt  string
}

// ActivityFilters contains filter options for querying the activity feed.
type ActivityFilters struct {
	EntityType string
	EntityID   string
	Limit      int
}
