package db

// SchemaSQL is the complete modern schema for fresh brickline installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(): if repository code references a column that
// doesn't exist here, tests fail immediately with "no such column" instead of
// drifting past production.
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
//  3. Bump the applied-version loop in InitSchema
const SchemaSQL = `
-- Workstations (the fixed assembly chain, ordered by position)
CREATE TABLE IF NOT EXISTS workstations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	position INTEGER NOT NULL UNIQUE,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Items (catalog entries: finished products, modules, parts)
CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('product', 'module', 'part')),
	category TEXT,
	procurable INTEGER NOT NULL DEFAULT 0,
	unit_cost TEXT NOT NULL DEFAULT '0',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- BOM edges (parent needs qty_per units of child; kinds denormalized)
CREATE TABLE IF NOT EXISTS bom_edges (
	id TEXT PRIMARY KEY,
	parent_item_id TEXT NOT NULL,
	parent_kind TEXT NOT NULL CHECK(parent_kind IN ('product', 'module')),
	child_item_id TEXT NOT NULL,
	child_kind TEXT NOT NULL CHECK(child_kind IN ('module', 'part')),
	qty_per INTEGER NOT NULL CHECK(qty_per > 0),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (parent_item_id) REFERENCES items(id),
	FOREIGN KEY (child_item_id) REFERENCES items(id),
	UNIQUE(parent_item_id, child_item_id)
);

-- Orders (one row per order of any kind)
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL CHECK(kind IN ('customer', 'final_assembly', 'warehouse', 'assembly_control', 'production', 'supply')),
	status TEXT NOT NULL CHECK(status IN ('pending', 'confirmed', 'awaiting_downstream', 'in_progress', 'halted', 'completed', 'cancelled', 'rejected')) DEFAULT 'pending',
	scenario TEXT CHECK(scenario IN ('direct_fulfillment', 'upstream_transfer', 'production_required')),
	workstation_id TEXT NOT NULL,
	priority TEXT CHECK(priority IN ('low', 'medium', 'high')),
	requested_by TEXT,
	source_order_id TEXT,
	shortfall_kind TEXT CHECK(shortfall_kind IN ('product', 'module', 'part')),
	shortfall_item_id TEXT,
	halt_reason TEXT,
	cancel_reason TEXT,
	note TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	confirmed_at DATETIME,
	started_at DATETIME,
	completed_at DATETIME,
	FOREIGN KEY (workstation_id) REFERENCES workstations(id),
	FOREIGN KEY (source_order_id) REFERENCES orders(id),
	FOREIGN KEY (shortfall_item_id) REFERENCES items(id)
);

-- At most one open downstream order per (source, kind, shortfall item).
-- Cancelled and rejected orders drop out so the shortfall can be re-raised.
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_downstream_dedup
	ON orders(source_order_id, kind, shortfall_item_id)
	WHERE source_order_id IS NOT NULL AND status NOT IN ('cancelled', 'rejected');

-- Order lines (requested vs fulfilled per item)
CREATE TABLE IF NOT EXISTS order_lines (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	item_id TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK(quantity > 0),
	fulfilled_quantity INTEGER NOT NULL DEFAULT 0 CHECK(fulfilled_quantity >= 0 AND fulfilled_quantity <= quantity),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
	FOREIGN KEY (item_id) REFERENCES items(id),
	UNIQUE(order_id, item_id)
);

-- Stock lines (current on-hand per station and item, version for CAS)
CREATE TABLE IF NOT EXISTS stock_lines (
	id TEXT PRIMARY KEY,
	workstation_id TEXT NOT NULL,
	item_id TEXT NOT NULL,
	item_kind TEXT NOT NULL CHECK(item_kind IN ('product', 'module', 'part')),
	quantity INTEGER NOT NULL DEFAULT 0 CHECK(quantity >= 0),
	version INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (workstation_id) REFERENCES workstations(id),
	FOREIGN KEY (item_id) REFERENCES items(id),
	UNIQUE(workstation_id, item_id)
);

-- Ledger entries (append-only movement journal; balances are derived)
CREATE TABLE IF NOT EXISTS ledger_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workstation_id TEXT NOT NULL,
	item_id TEXT NOT NULL,
	item_kind TEXT NOT NULL CHECK(item_kind IN ('product', 'module', 'part')),
	delta INTEGER NOT NULL,
	balance_after INTEGER NOT NULL,
	reason TEXT NOT NULL CHECK(reason IN ('initial_stock', 'order_fulfillment', 'order_cancellation', 'production_output', 'production_consumption', 'supply_receipt', 'manual_receipt', 'manual_adjustment')),
	order_id TEXT,
	actor TEXT,
	note TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (workstation_id) REFERENCES workstations(id),
	FOREIGN KEY (item_id) REFERENCES items(id),
	FOREIGN KEY (order_id) REFERENCES orders(id)
);

-- Activity log (audit trail of commands against entities)
CREATE TABLE IF NOT EXISTS activity_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL,
	actor TEXT,
	detail TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Create indexes for common queries
CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind);
CREATE INDEX IF NOT EXISTS idx_bom_edges_parent ON bom_edges(parent_item_id);
CREATE INDEX IF NOT EXISTS idx_bom_edges_child ON bom_edges(child_item_id);
CREATE INDEX IF NOT EXISTS idx_orders_kind ON orders(kind);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_workstation ON orders(workstation_id);
CREATE INDEX IF NOT EXISTS idx_orders_source ON orders(source_order_id);
CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines(order_id);
CREATE INDEX IF NOT EXISTS idx_order_lines_item ON order_lines(item_id);
CREATE INDEX IF NOT EXISTS idx_stock_lines_workstation ON stock_lines(workstation_id);
CREATE INDEX IF NOT EXISTS idx_stock_lines_item ON stock_lines(item_id);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_station_item ON ledger_entries(workstation_id, item_id);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_order ON ledger_entries(order_id);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_created ON ledger_entries(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_activity_log_entity ON activity_log(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_activity_log_created ON activity_log(created_at DESC);
`

// InitSchema creates the database schema
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Fresh install - create modern schema directly and mark all
		// migrations as applied so they never run against it
		_, err = db.Exec(SchemaSQL)
		if err != nil {
			return err
		}
		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}
		for i := 1; i <= 3; i++ {
			_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", i)
			if err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
