// Package centraltest opens a migrated, in-memory central store for tests.
//
// The store uses modernc.org/sqlite, so tests need neither cgo nor a MySQL
// server.  The pool is pinned to one connection: every new SQLite memory
// connection would otherwise see its own empty database.
package centraltest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/orvsd/central/internal/central"
)

// Open returns a migrated store that is closed when t finishes.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		t.Fatalf("foreign keys: %v", err)
	}
	if err := central.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Count returns SELECT COUNT(*) FROM table.
func Count(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
