package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/foodbridge/distribution-api/internal/model"
)

const eventColumns = `
id, participant_id, service_day, scan_token, channel,
location_id, tenant_id, worker_id, approved, created_at, scanned_at, approved_at`

// CheckInRepository manages the check_in_events table.  Methods that mutate
// the ledger take a *sql.Tx: every state change runs inside the per-participant
// check-in transaction so that concurrent scans at different locations are
// serialised.
type CheckInRepository struct {
    db *sql.DB
}

// NewCheckInRepository constructs a CheckInRepository.
func NewCheckInRepository(db *sql.DB) *CheckInRepository {
    return &CheckInRepository{db: db}
}

// LatestForDayTx returns the newest event of a participant on a service day
// across all locations.  Cross-location handling needs the single newest row:
// the most recent worker interaction wins over earlier ones regardless of
// where it happened.  Returns ErrNotFound when the participant has no event
// that day.
func (r *CheckInRepository) LatestForDayTx(ctx context.Context, tx *sql.Tx, participantID uint64, day time.Time) (*model.CheckInEvent, error) {
    const q = `
SELECT ` + eventColumns + `
FROM check_in_events
WHERE participant_id = ? AND service_day = ?
ORDER BY id DESC
LIMIT 1`
    return scanEvent(tx.QueryRowContext(ctx, q, participantID, day.Format("2006-01-02")))
}

// LatestForDay is the read-only variant of LatestForDayTx used by status
// projections outside a write transaction.
func (r *CheckInRepository) LatestForDay(ctx context.Context, participantID uint64, day time.Time) (*model.CheckInEvent, error) {
    const q = `
SELECT ` + eventColumns + `
FROM check_in_events
WHERE participant_id = ? AND service_day = ?
ORDER BY id DESC
LIMIT 1`
    return scanEvent(r.db.QueryRowContext(ctx, q, participantID, day.Format("2006-01-02")))
}

// GetByScanToken resolves a QR scan token to its event.  The token and the
// participant it belongs to never change once the row exists, so the lookup
// runs outside any transaction.  Tokens are generated per event, so a stale
// QR code from a previous day simply fails to resolve.
func (r *CheckInRepository) GetByScanToken(ctx context.Context, token string) (*model.CheckInEvent, error) {
    const q = `
SELECT ` + eventColumns + `
FROM check_in_events
WHERE scan_token = ?`
    return scanEvent(r.db.QueryRowContext(ctx, q, token))
}

// InsertTx creates a new event row and returns its ID.
func (r *CheckInRepository) InsertTx(ctx context.Context, tx *sql.Tx, e *model.CheckInEvent) (uint64, error) {
    const q = `
INSERT INTO check_in_events
  (participant_id, service_day, scan_token, channel, location_id, tenant_id, worker_id, approved, scanned_at, approved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        e.ParticipantID, e.ServiceDay.Format("2006-01-02"), e.ScanToken, e.Channel,
        e.LocationID, e.TenantID, e.WorkerID, e.Approved, e.ScannedAt, e.ApprovedAt)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// MarkScannedTx attaches a worker interaction to a generated event.  The
// row moves to SCANNED_PENDING by construction: worker_id becomes non-null
// while approved stays 0.  Re-marking an already scanned row overwrites the
// previous worker, location and tenant (last writer wins).
func (r *CheckInRepository) MarkScannedTx(ctx context.Context, tx *sql.Tx, id, workerID, locationID, tenantID uint64, at time.Time) error {
    const q = `
UPDATE check_in_events
SET worker_id = ?, location_id = ?, tenant_id = ?, scanned_at = ?
WHERE id = ? AND approved = 0`
    _, err := tx.ExecContext(ctx, q, workerID, locationID, tenantID, at, id)
    return err
}

// ApproveTx finalises a hand-out.  Approving an already approved row is a
// no-op at the SQL level; the ledger decides beforehand whether that no-op
// is acceptable.
func (r *CheckInRepository) ApproveTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
    const q = `
UPDATE check_in_events
SET approved = 1, approved_at = ?
WHERE id = ? AND approved = 0`
    _, err := tx.ExecContext(ctx, q, at, id)
    return err
}

// EventRef is a minimal projection of an approved event used by the
// classification engine and the reports.
type EventRef struct {
    ServiceDay time.Time
    LocationID uint64
    TenantID   uint64
}

// ApprovedThrough returns references to all of a participant's approved
// events with a service day strictly before end, oldest first.  The
// classification rule needs the pre-window history, not just the window.
func (r *CheckInRepository) ApprovedThrough(ctx context.Context, participantID uint64, end time.Time) ([]EventRef, error) {
    const q = `
SELECT service_day, location_id, tenant_id
FROM check_in_events
WHERE participant_id = ? AND approved = 1 AND service_day < ?
ORDER BY service_day, id`
    rows, err := r.db.QueryContext(ctx, q, participantID, end.Format("2006-01-02"))
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []EventRef
    for rows.Next() {
        var ref EventRef
        if err := rows.Scan(&ref.ServiceDay, &ref.LocationID, &ref.TenantID); err != nil {
            return nil, err
        }
        out = append(out, ref)
    }
    return out, rows.Err()
}

// ParticipantIDsInWindow lists the distinct participants with at least one
// approved event inside [from, to], optionally restricted to a location.
func (r *CheckInRepository) ParticipantIDsInWindow(ctx context.Context, from, to time.Time, locationID *uint64) ([]uint64, error) {
    q := `
SELECT DISTINCT participant_id
FROM check_in_events
WHERE approved = 1 AND service_day BETWEEN ? AND ?`
    args := []any{from.Format("2006-01-02"), to.Format("2006-01-02")}
    if locationID != nil {
        q += ` AND location_id = ?`
        args = append(args, *locationID)
    }
    q += ` ORDER BY participant_id`

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// TenantCount is one row of the summary report: hand-outs per tenant.
type TenantCount struct {
    TenantID uint64
    Tenant   string
    Count    int
}

// SummaryByTenant aggregates approved hand-outs per tenant inside [from, to],
// optionally restricted to a location.
func (r *CheckInRepository) SummaryByTenant(ctx context.Context, from, to time.Time, locationID *uint64) ([]TenantCount, error) {
    q := `
SELECT e.tenant_id, t.name, COUNT(*)
FROM check_in_events e
JOIN tenants t ON t.id = e.tenant_id
WHERE e.approved = 1 AND e.service_day BETWEEN ? AND ?`
    args := []any{from.Format("2006-01-02"), to.Format("2006-01-02")}
    if locationID != nil {
        q += ` AND e.location_id = ?`
        args = append(args, *locationID)
    }
    q += ` GROUP BY e.tenant_id, t.name ORDER BY t.name`

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []TenantCount
    for rows.Next() {
        var tc TenantCount
        if err := rows.Scan(&tc.TenantID, &tc.Tenant, &tc.Count); err != nil {
            return nil, err
        }
        out = append(out, tc)
    }
    return out, rows.Err()
}

func scanEvent(row *sql.Row) (*model.CheckInEvent, error) {
    var e model.CheckInEvent
    err := row.Scan(&e.ID, &e.ParticipantID, &e.ServiceDay, &e.ScanToken, &e.Channel,
        &e.LocationID, &e.TenantID, &e.WorkerID, &e.Approved, &e.CreatedAt, &e.ScannedAt, &e.ApprovedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &e, nil
}
