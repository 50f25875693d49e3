package database

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/go-sql-driver/mysql"
)

// maxTxAttempts bounds how often a transaction is retried before the error
// is surfaced to the caller.
const maxTxAttempts = 3

// WithTxRetry runs fn inside a transaction and retries the whole transaction
// when it fails for a transient reason (deadlock, lock wait timeout, lost
// connection).  Every multi-step write sequence in the check-in flow goes
// through this helper so that a mid-sequence failure never leaves a partial
// state behind: the transaction is rolled back and re-run from the start.
// Non-transient errors abort immediately.
func WithTxRetry(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
    var lastErr error
    for attempt := 0; attempt < maxTxAttempts; attempt++ {
        if attempt > 0 {
            // Small backoff before re-running; deadlocks usually clear fast.
            select {
            case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
            case <-ctx.Done():
                return ctx.Err()
            }
        }

        err := runTx(ctx, db, fn)
        if err == nil {
            return nil
        }
        if !isTransient(err) {
            return err
        }
        lastErr = err
    }
    return lastErr
}

func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
    tx, err := db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := fn(tx); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// isTransient reports whether err is worth retrying.  MySQL error 1213 is a
// deadlock, 1205 a lock wait timeout; driver.ErrBadConn and mysql.ErrInvalidConn
// indicate a connection that died under us.
func isTransient(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == 1213 || me.Number == 1205
    }
    if errors.Is(err, mysql.ErrInvalidConn) {
        return true
    }
    return errors.Is(err, sql.ErrConnDone)
}
