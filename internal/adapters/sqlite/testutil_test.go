// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/brickline/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
// Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedWorkstation inserts a test workstation and returns its ID.
func seedWorkstation(t *testing.T, db *sql.DB, id, name string, position int) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO workstations (id, name, position) VALUES (?, ?, ?)", id, name, position)
	if err != nil {
		t.Fatalf("failed to seed workstation: %v", err)
	}
	return id
}

// seedItem inserts a test item and returns its ID.
func seedItem(t *testing.T, db *sql.DB, id, name, kind string) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO items (id, name, kind, procurable) VALUES (?, ?, ?, 0)", id, name, kind)
	if err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}
	return id
}

// seedStockLine inserts a stock line directly, bypassing the ledger.
func seedStockLine(t *testing.T, db *sql.DB, id, workstationID, itemID, itemKind string, quantity int64) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO stock_lines (id, workstation_id, item_id, item_kind, quantity, version) VALUES (?, ?, ?, ?, ?, 0)",
		id, workstationID, itemID, itemKind, quantity,
	)
	if err != nil {
		t.Fatalf("failed to seed stock line: %v", err)
	}
}

// seedOrder inserts a minimal order row and returns its ID.
func seedOrder(t *testing.T, db *sql.DB, id, number, kind, status, workstationID string) string {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO orders (id, number, kind, status, workstation_id) VALUES (?, ?, ?, ?, ?)",
		id, number, kind, status, workstationID,
	)
	if err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return id
}
