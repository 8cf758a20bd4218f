package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "add_priority_to_orders",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_unit_cost_to_items",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "scope_downstream_dedup_to_open_orders",
		Up:      migrationV3,
	},
}

// RunMigrations runs all pending migrations
func RunMigrations() error {
	db, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	// Create schema_version table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Get current schema version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Run pending migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d: %s\n", migration.Version, migration.Name)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(db); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		// Record migration
		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("✓ Migration %d completed\n", migration.Version)
	}

	return nil
}

// migrationV1 adds the priority column to orders
func migrationV1(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE orders ADD COLUMN priority TEXT CHECK(priority IN ('low', 'medium', 'high'))`)
	if err != nil {
		return fmt.Errorf("failed to add priority column: %w", err)
	}
	return nil
}

// migrationV2 adds unit_cost to items for cost roll-up reporting.
// Stored as TEXT so decimal values survive the round trip exactly.
func migrationV2(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE items ADD COLUMN unit_cost TEXT NOT NULL DEFAULT '0'`)
	if err != nil {
		return fmt.Errorf("failed to add unit_cost column: %w", err)
	}
	return nil
}

// migrationV3 rescopes the downstream dedup index to open orders only.
// The original index counted cancelled downstream orders, which blocked
// re-raising a shortfall after its first downstream order was cancelled.
func migrationV3(db *sql.DB) error {
	_, err := db.Exec(`DROP INDEX IF EXISTS idx_orders_downstream_dedup`)
	if err != nil {
		return fmt.Errorf("failed to drop old dedup index: %w", err)
	}

	_, err = db.Exec(`
		CREATE UNIQUE INDEX idx_orders_downstream_dedup
			ON orders(source_order_id, kind, shortfall_item_id)
			WHERE source_order_id IS NOT NULL AND status NOT IN ('cancelled', 'rejected')
	`)
	if err != nil {
		return fmt.Errorf("failed to create scoped dedup index: %w", err)
	}
	return nil
}
