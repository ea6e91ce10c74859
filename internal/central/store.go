// internal/central/store.go
//
// Shared plumbing for the query helpers.

package central

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx, so every helper can
// run standalone or inside a caller-owned transaction.
type Queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("central: not found")

// get wraps GetContext and maps sql.ErrNoRows to ErrNotFound.
func get(ctx context.Context, q Queryer, dest any, query string, args ...any) error {
	err := q.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// insert runs an INSERT and returns the new auto-increment id.
func insert(ctx context.Context, q Queryer, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
