package checkin

import (
    "context"
    "database/sql"
    "database/sql/driver"
    "errors"
    "fmt"
    "io"
    "strings"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/foodbridge/distribution-api/internal/model"
    "github.com/foodbridge/distribution-api/internal/repository"
)

// sqltrace is a minimal database/sql driver that records every statement in
// order and serves canned rows.  It exists to pin down statement ordering
// and arguments the engine's correctness depends on, like a named lock
// being released only after the surrounding transaction committed.
type sqltrace struct {
    mu   sync.Mutex
    ops  []traceOp
    rows func(query string) ([]string, [][]driver.Value)
}

type traceOp struct {
    query string
    args  []driver.Value
}

var traceSeq atomic.Int64

// newTraceDB registers a fresh sqltrace driver under a unique name and
// opens a pool on it.
func newTraceDB(t *testing.T) (*sql.DB, *sqltrace) {
    t.Helper()
    tr := &sqltrace{}
    name := fmt.Sprintf("sqltrace%d", traceSeq.Add(1))
    sql.Register(name, tr)
    db, err := sql.Open(name, "")
    if err != nil {
        t.Fatalf("open trace db: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    return db, tr
}

func (tr *sqltrace) record(query string, args []driver.NamedValue) {
    vals := make([]driver.Value, len(args))
    for i, a := range args {
        vals[i] = a.Value
    }
    tr.mu.Lock()
    tr.ops = append(tr.ops, traceOp{query: query, args: vals})
    tr.mu.Unlock()
}

// index returns the position of the first recorded statement containing
// substr, or -1.
func (tr *sqltrace) index(substr string) int {
    tr.mu.Lock()
    defer tr.mu.Unlock()
    for i, op := range tr.ops {
        if strings.Contains(op.query, substr) {
            return i
        }
    }
    return -1
}

func (tr *sqltrace) op(substr string) (traceOp, bool) {
    tr.mu.Lock()
    defer tr.mu.Unlock()
    for _, op := range tr.ops {
        if strings.Contains(op.query, substr) {
            return op, true
        }
    }
    return traceOp{}, false
}

func (tr *sqltrace) queries() []string {
    tr.mu.Lock()
    defer tr.mu.Unlock()
    qs := make([]string, len(tr.ops))
    for i, op := range tr.ops {
        qs[i] = strings.Join(strings.Fields(op.query), " ")
    }
    return qs
}

func (tr *sqltrace) Open(string) (driver.Conn, error) {
    return &traceConn{tr: tr}, nil
}

type traceConn struct{ tr *sqltrace }

func (c *traceConn) Prepare(string) (driver.Stmt, error) {
    return nil, errors.New("sqltrace: prepared statements not supported")
}

func (c *traceConn) Close() error { return nil }

func (c *traceConn) Begin() (driver.Tx, error) {
    c.tr.record("BEGIN", nil)
    return &traceTx{tr: c.tr}, nil
}

func (c *traceConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
    c.tr.record(query, args)
    if strings.Contains(query, "GET_LOCK") {
        return &traceRows{cols: []string{"v"}, vals: [][]driver.Value{{int64(1)}}}, nil
    }
    if c.tr.rows != nil {
        if cols, vals := c.tr.rows(query); cols != nil {
            return &traceRows{cols: cols, vals: vals}, nil
        }
    }
    return &traceRows{cols: []string{"v"}}, nil
}

func (c *traceConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
    c.tr.record(query, args)
    return traceResult{}, nil
}

type traceTx struct{ tr *sqltrace }

func (t *traceTx) Commit() error {
    t.tr.record("COMMIT", nil)
    return nil
}

func (t *traceTx) Rollback() error {
    t.tr.record("ROLLBACK", nil)
    return nil
}

type traceRows struct {
    cols []string
    vals [][]driver.Value
    pos  int
}

func (r *traceRows) Columns() []string { return r.cols }
func (r *traceRows) Close() error      { return nil }

func (r *traceRows) Next(dest []driver.Value) error {
    if r.pos >= len(r.vals) {
        return io.EOF
    }
    copy(dest, r.vals[r.pos])
    r.pos++
    return nil
}

type traceResult struct{}

func (traceResult) LastInsertId() (int64, error) { return 1, nil }
func (traceResult) RowsAffected() (int64, error) { return 1, nil }

func newTraceLedger(db *sql.DB) *Ledger {
    events := repository.NewCheckInRepository(db)
    locs := repository.NewLocationRepository(db)
    shifts := repository.NewShiftRepository(db)
    rec := NewReconciler(repository.NewAssociationRepository(db))
    return NewLedger(db, events, locs, shifts, rec, 2*time.Minute)
}

func newTraceTracker(db *sql.DB, maxShift time.Duration) *Tracker {
    events := repository.NewCheckInRepository(db)
    shifts := repository.NewShiftRepository(db)
    rec := NewReconciler(repository.NewAssociationRepository(db))
    return NewTracker(db, shifts, events, rec, maxShift)
}

var eventTraceColumns = []string{
    "id", "participant_id", "service_day", "scan_token", "channel",
    "location_id", "tenant_id", "worker_id", "approved", "created_at", "scanned_at", "approved_at",
}

// A scan must keep its day lock until the transaction is committed.  If the
// lock dropped first, a concurrent scan for the same participant could
// acquire it, read the day's events before the commit landed and start a
// second parcel instead of attaching to the one being written.
func TestAdvanceHoldsDayLockAcrossCommit(t *testing.T) {
    db, tr := newTraceDB(t)
    now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
    day := ServiceDay(now)

    tr.rows = func(query string) ([]string, [][]driver.Value) {
        if strings.Contains(query, "FROM check_in_events") {
            return eventTraceColumns, [][]driver.Value{
                {int64(41), int64(7), day, "tok-41", "shift", nil, nil, nil, int64(0), now, nil, nil},
            }
        }
        return nil, nil
    }

    tenant := uint64(3)
    l := newTraceLedger(db)
    res, err := l.Advance(context.Background(), AdvanceParams{
        ScanToken:  "tok-41",
        WorkerID:   9,
        LocationID: 2,
        TenantID:   &tenant,
        Channel:    "qr",
        Now:        now,
    })
    if err != nil {
        t.Fatalf("advance: %v", err)
    }
    if res.State != model.StateScannedPending {
        t.Fatalf("state = %s, want %s", res.State, model.StateScannedPending)
    }

    get := tr.index("GET_LOCK")
    begin := tr.index("BEGIN")
    commit := tr.index("COMMIT")
    release := tr.index("RELEASE_LOCK")
    if get < 0 || begin < 0 || commit < 0 || release < 0 {
        t.Fatalf("missing statements in %v", tr.queries())
    }
    if !(get < begin && begin < commit && commit < release) {
        t.Fatalf("statement order %v: lock must bracket the whole transaction", tr.queries())
    }

    lock, _ := tr.op("GET_LOCK")
    if want := dayLockName(7, day); lock.args[0] != want {
        t.Fatalf("lock name = %v, want %s", lock.args[0], want)
    }
}

// Shift mutations serialise on a per-user lock held across the commit, so
// two racing duty changes cannot both pass the open-shift lookup and leave
// two open rows behind.
func TestSetOnDutyHoldsDutyLockAcrossCommit(t *testing.T) {
    db, tr := newTraceDB(t)
    now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

    tk := newTraceTracker(db, 8*time.Hour)
    worker := &model.User{ID: 7, Role: model.RoleWorker}
    st, err := tk.SetOnDuty(context.Background(), worker, 2, 3, now)
    if err != nil {
        t.Fatalf("set on duty: %v", err)
    }
    if !st.OnDuty {
        t.Fatalf("status not on duty after SetOnDuty")
    }

    get := tr.index("GET_LOCK")
    begin := tr.index("BEGIN")
    commit := tr.index("COMMIT")
    release := tr.index("RELEASE_LOCK")
    if get < 0 || begin < 0 || commit < 0 || release < 0 {
        t.Fatalf("missing statements in %v", tr.queries())
    }
    if !(get < begin && begin < commit && commit < release) {
        t.Fatalf("statement order %v: lock must bracket the whole transaction", tr.queries())
    }

    lock, _ := tr.op("GET_LOCK")
    if want := dutyLockName(7); lock.args[0] != want {
        t.Fatalf("lock name = %v, want %s", lock.args[0], want)
    }
}

// Lazy expiry closes a stale shift with the timestamp of the observation
// that found it, not with the staleness cutoff.
func TestStatusClosesStaleShiftAtObservationTime(t *testing.T) {
    db, tr := newTraceDB(t)
    now := time.Date(2026, 9, 1, 18, 30, 0, 0, time.UTC)
    started := now.Add(-9 * time.Hour)

    tr.rows = func(query string) ([]string, [][]driver.Value) {
        if strings.Contains(query, "FROM shift_records") {
            cols := []string{"id", "user_id", "location_id", "tenant_id", "started_at", "ended_at", "expired"}
            return cols, [][]driver.Value{
                {int64(5), int64(7), int64(2), int64(3), started, nil, int64(0)},
            }
        }
        return nil, nil
    }

    tk := newTraceTracker(db, 8*time.Hour)
    st, err := tk.Status(context.Background(), 7, now)
    if err != nil {
        t.Fatalf("status: %v", err)
    }
    if st.OnDuty {
        t.Fatalf("stale shift still reported on duty")
    }

    closeOp, ok := tr.op("UPDATE shift_records")
    if !ok {
        t.Fatalf("stale shift was not closed; statements: %v", tr.queries())
    }
    endedAt, ok := closeOp.args[0].(time.Time)
    if !ok || !endedAt.Equal(now) {
        t.Fatalf("ended_at = %v, want observation time %v", closeOp.args[0], now)
    }
    if expired, _ := closeOp.args[1].(bool); !expired {
        t.Fatalf("stale shift closed without the expired flag")
    }
}
