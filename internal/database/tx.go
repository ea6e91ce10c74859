// internal/database/tx.go
//
// Transaction helper.
//
// RunTx begins a transaction, hands it to fn, and commits when fn returns
// nil.  Any error from fn rolls the transaction back and is returned
// verbatim so callers can still match sentinels with errors.Is.

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RunTx executes fn inside one transaction on db.
func RunTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
