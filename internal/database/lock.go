// internal/database/lock.go
//
// MySQL advisory lock held for the lifetime of one batch run.
//
// Context
// -------
// GET_LOCK is bound to the session that acquired it, so the lock pins one
// *sqlx.Conn out of the pool until Release.  A timeout of 0 means "fail
// immediately when someone else holds it"; a second gather run therefore
// exits instead of queueing behind the first.

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrLocked is returned when another session holds the named lock.
var ErrLocked = errors.New("advisory lock held by another session")

// AdvisoryLocker acquires the named lock on DB.
type AdvisoryLocker struct {
	DB   *sqlx.DB
	Name string
}

// Acquire takes the lock and returns the function that releases it.
func (l AdvisoryLocker) Acquire(ctx context.Context) (func(), error) {
	conn, err := l.DB.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock conn: %w", err)
	}

	var got sql.NullInt64
	if err := conn.QueryRowxContext(ctx, `SELECT GET_LOCK(?, 0)`, l.Name).Scan(&got); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("get_lock %s: %w", l.Name, err)
	}
	if !got.Valid || got.Int64 != 1 {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s", ErrLocked, l.Name)
	}

	release := func() {
		// Background context: release must run even when the run's ctx
		// was cancelled.
		_, _ = conn.ExecContext(context.Background(), `SELECT RELEASE_LOCK(?)`, l.Name)
		_ = conn.Close()
	}
	return release, nil
}
