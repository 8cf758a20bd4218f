// +build ignore

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Balance is the replayed end state of one (workstation, item) pair
type Balance struct {
	WorkstationID string
	ItemID        string
	ItemKind      string
	Quantity      int64
	Stored        sql.NullInt64 // current stock_lines quantity, if a line exists
}

// Rebuilds the stock projection from the ledger. The ledger is the
// source of truth; stock_lines is a derived cache that can drift after a
// crash mid-write or a hand edit. Replays every entry per workstation and
// item and rewrites the stored quantity to the replayed balance.
//
// Stock lines with no ledger history are reported and left untouched.

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview rebuild without executing")
	flag.Parse()

	// Find brickline database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting home dir: %v\n", err)
		os.Exit(1)
	}
	dbPath := filepath.Join(homeDir, ".brickline", "brickline.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	balances, err := replayBalances(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error replaying ledger: %v\n", err)
		os.Exit(1)
	}

	if err := reportOrphanLines(db); err != nil {
		fmt.Fprintf(os.Stderr, "Error checking stock lines: %v\n", err)
		os.Exit(1)
	}

	// Only pairs where the projection disagrees need a write
	var drifted []Balance
	for _, b := range balances {
		if !b.Stored.Valid || b.Stored.Int64 != b.Quantity {
			drifted = append(drifted, b)
		}
	}

	if len(drifted) == 0 {
		fmt.Printf("Stock projection matches the ledger (%d pair(s) checked)\n", len(balances))
		return
	}

	fmt.Printf("Found %d drifted stock line(s):\n\n", len(drifted))

	for _, b := range drifted {
		stored := "missing"
		if b.Stored.Valid {
			stored = fmt.Sprintf("%d", b.Stored.Int64)
		}
		fmt.Printf("  %s / %s: stored %s, ledger says %d\n", b.WorkstationID, b.ItemID, stored, b.Quantity)
	}
	fmt.Println()

	if *dryRun {
		fmt.Println("=== DRY RUN - No changes made ===")
		return
	}

	fmt.Println("=== Executing rebuild ===")
	fmt.Println()

	rebuilt := 0
	for _, b := range drifted {
		err := writeBalance(db, b)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rebuilding %s / %s: %v\n", b.WorkstationID, b.ItemID, err)
			continue
		}

		fmt.Printf("✓ Rebuilt %s / %s -> %d\n", b.WorkstationID, b.ItemID, b.Quantity)
		rebuilt++
	}

	fmt.Printf("\n=== Rebuild complete: %d/%d stock lines rewritten ===\n", rebuilt, len(drifted))
}

func replayBalances(db *sql.DB) ([]Balance, error) {
	query := `
		SELECT l.workstation_id, l.item_id, MAX(l.item_kind), SUM(l.delta), s.quantity
		FROM ledger_entries l
		LEFT JOIN stock_lines s
			ON s.workstation_id = l.workstation_id AND s.item_id = l.item_id
		GROUP BY l.workstation_id, l.item_id
		ORDER BY l.workstation_id, l.item_id ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		err := rows.Scan(&b.WorkstationID, &b.ItemID, &b.ItemKind, &b.Quantity, &b.Stored)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}

	return balances, nil
}

// reportOrphanLines lists stock lines the ledger never mentions. Rewriting
// those would wipe stock the journal knows nothing about, so they are only
// reported.
func reportOrphanLines(db *sql.DB) error {
	query := `
		SELECT s.workstation_id, s.item_id, s.quantity
		FROM stock_lines s
		LEFT JOIN ledger_entries l
			ON l.workstation_id = s.workstation_id AND l.item_id = s.item_id
		WHERE l.id IS NULL AND s.quantity != 0
	`

	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var wsID, itemID string
		var qty int64
		if err := rows.Scan(&wsID, &itemID, &qty); err != nil {
			return err
		}
		fmt.Printf("! %s / %s holds %d with no ledger history - left untouched\n", wsID, itemID, qty)
	}

	return rows.Err()
}

func writeBalance(db *sql.DB, b Balance) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if b.Stored.Valid {
		_, err = tx.Exec(`
			UPDATE stock_lines
			SET quantity = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE workstation_id = ? AND item_id = ?
		`, b.Quantity, b.WorkstationID, b.ItemID)
	} else {
		_, err = tx.Exec(`
			INSERT INTO stock_lines (id, workstation_id, item_id, item_kind, quantity)
			VALUES (lower(hex(randomblob(16))), ?, ?, ?, ?)
		`, b.WorkstationID, b.ItemID, b.ItemKind, b.Quantity)
	}
	if err != nil {
		return fmt.Errorf("failed to write stock line: %w", err)
	}

	return tx.Commit()
}
