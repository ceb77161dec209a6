// Package sqlitetest builds throwaway SQLite hospital databases for tests
package sqlitetest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/abelzeko/med-validator/internal/repository"
	_ "github.com/mattn/go-sqlite3"
)

// Medication is one inventory row. An empty Location is stored as NULL.
type Medication struct {
	MedID    int64
	MedName  string
	Quantity int64
	Location string
}

// Event is one usage or purchase row. NullQuantity stores NULL instead of Quantity.
type Event struct {
	MedID        int64
	Quantity     int64
	NullQuantity bool
}

// Fixture is the content of a test database
type Fixture struct {
	Inventory []Medication
	Usage     []Event
	Purchases []Event
}

// CreateTables creates the three tables of schema in db
func CreateTables(db *sql.DB, schema repository.Schema) error {
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE %[1]s (
		med_id INTEGER PRIMARY KEY,
		med_name TEXT NOT NULL,
		%[2]s INTEGER NOT NULL,
		location TEXT
	);
	CREATE TABLE %[3]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		med_id INTEGER NOT NULL,
		%[4]s INTEGER
	);
	CREATE TABLE %[5]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		med_id INTEGER NOT NULL,
		%[6]s INTEGER
	);`,
		schema.InventoryTable, schema.InventoryQuantity,
		schema.UsageTable, schema.UsageQuantity,
		schema.PurchasesTable, schema.PurchaseQuantity)

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create tables: %v", err)
	}
	return nil
}

// Insert stores the fixture rows in a single transaction
func Insert(db *sql.DB, schema repository.Schema, fx Fixture) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	for _, m := range fx.Inventory {
		var location sql.NullString
		if m.Location != "" {
			location = sql.NullString{String: m.Location, Valid: true}
		}
		_, err := tx.Exec(
			fmt.Sprintf(`INSERT INTO %s (med_id, med_name, %s, location) VALUES (?, ?, ?, ?)`, schema.InventoryTable, schema.InventoryQuantity),
			m.MedID, m.MedName, m.Quantity, location,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert medication %d: %v", m.MedID, err)
		}
	}

	if err := insertEvents(tx, schema.UsageTable, schema.UsageQuantity, fx.Usage); err != nil {
		tx.Rollback()
		return err
	}
	if err := insertEvents(tx, schema.PurchasesTable, schema.PurchaseQuantity, fx.Purchases); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func insertEvents(tx *sql.Tx, table, column string, events []Event) error {
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s (med_id, %s) VALUES (?, ?)`, table, column))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for _, e := range events {
		quantity := sql.NullInt64{Int64: e.Quantity, Valid: !e.NullQuantity}
		if _, err := stmt.Exec(e.MedID, quantity); err != nil {
			return fmt.Errorf("failed to insert %s row for %d: %v", table, e.MedID, err)
		}
	}
	return nil
}

// NewDatabase writes a SQLite file under t.TempDir() and returns its path
func NewDatabase(t testing.TB, schema repository.Schema, fx Fixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hospital_data.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture database: %v", err)
	}
	defer db.Close()

	if err := CreateTables(db, schema); err != nil {
		t.Fatalf("create fixture tables: %v", err)
	}
	if err := Insert(db, schema, fx); err != nil {
		t.Fatalf("insert fixture rows: %v", err)
	}
	return path
}
