package checkin

import (
    "context"
    "database/sql"
    "fmt"
    "time"
)

// lockWaitSeconds bounds how long a caller waits for a named lock before
// giving up.
const lockWaitSeconds = 5

// dayLockName builds the named-lock key for a participant's service day.
// All multi-step check-in sequences for the same (participant, day) pair
// serialise on this name, including scans arriving at different locations.
func dayLockName(participantID uint64, day time.Time) string {
    return fmt.Sprintf("checkin:%d:%s", participantID, day.Format("2006-01-02"))
}

// dutyLockName builds the named-lock key serialising shift mutations for a
// user.  The open-shift lookup and the insert or update that follows it are
// separate statements, so without this lock two racing duty changes could
// both open a shift.
func dutyLockName(userID uint64) string {
    return fmt.Sprintf("duty:%d", userID)
}

// withLock runs fn while holding the MySQL named lock on a dedicated
// connection.  The lock must not live on the transaction's own connection:
// released there it would drop before COMMIT, and a competing session could
// acquire it and read the day's events without seeing the still-uncommitted
// writes.  On its own connection the lock survives until fn has returned,
// commits included.
func withLock(ctx context.Context, db *sql.DB, name string, fn func() error) error {
    conn, err := db.Conn(ctx)
    if err != nil {
        return err
    }
    defer conn.Close()

    var got sql.NullInt64
    if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, name, lockWaitSeconds).Scan(&got); err != nil {
        return err
    }
    if !got.Valid || got.Int64 != 1 {
        return ErrLockTimeout
    }
    defer func() {
        // Release even when ctx was cancelled mid-flight; if the
        // connection itself died the lock died with it.
        _, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT RELEASE_LOCK(?)`, name)
    }()

    return fn()
}

// ServiceDay truncates a timestamp to its UTC calendar day.  Every DATE
// comparison in the engine goes through this so that "today" means the same
// thing across channels.
func ServiceDay(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
