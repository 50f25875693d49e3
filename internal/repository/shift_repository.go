package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/foodbridge/distribution-api/internal/model"
)

// ShiftRepository manages the shift_records table.  Duty status is never
// stored on the user row; it is derived from the newest shift, so every
// reader of duty state goes through this repository.
type ShiftRepository struct {
    db *sql.DB
}

// NewShiftRepository constructs a ShiftRepository.
func NewShiftRepository(db *sql.DB) *ShiftRepository {
    return &ShiftRepository{db: db}
}

// OpenForUserTx returns the user's open shift (ended_at IS NULL) or
// ErrNotFound.  Expiry is not applied here; the tracker decides whether the
// returned shift is stale.
func (r *ShiftRepository) OpenForUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.ShiftRecord, error) {
    const q = `
SELECT id, user_id, location_id, tenant_id, started_at, ended_at, expired
FROM shift_records
WHERE user_id = ? AND ended_at IS NULL
ORDER BY id DESC
LIMIT 1`
    return scanShift(tx.QueryRowContext(ctx, q, userID))
}

// OpenTx inserts a new open shift and returns its ID.
func (r *ShiftRepository) OpenTx(ctx context.Context, tx *sql.Tx, userID, locationID, tenantID uint64, at time.Time) (uint64, error) {
    const q = `
INSERT INTO shift_records (user_id, location_id, tenant_id, started_at)
VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, userID, locationID, tenantID, at)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// CloseTx ends a shift.  expired marks shifts closed by the staleness check
// rather than by the user.
func (r *ShiftRepository) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time, expired bool) error {
    const q = `
UPDATE shift_records
SET ended_at = ?, expired = ?
WHERE id = ? AND ended_at IS NULL`
    _, err := tx.ExecContext(ctx, q, at, expired, id)
    return err
}

// LatestWorkerShiftAtTx returns the newest shift opened today at a location
// by any user with the WORKER role.  The scan flow falls back to it when a
// location hosts several tenants and the request names none: the tenant the
// scanning side most plausibly acts for is the one whose worker most
// recently went on duty there.
func (r *ShiftRepository) LatestWorkerShiftAtTx(ctx context.Context, tx *sql.Tx, locationID uint64, since time.Time) (*model.ShiftRecord, error) {
    const q = `
SELECT s.id, s.user_id, s.location_id, s.tenant_id, s.started_at, s.ended_at, s.expired
FROM shift_records s
JOIN users u ON u.id = s.user_id
WHERE s.location_id = ? AND s.started_at >= ? AND u.role = 'WORKER'
ORDER BY s.started_at DESC
LIMIT 1`
    return scanShift(tx.QueryRowContext(ctx, q, locationID, since))
}

func scanShift(row *sql.Row) (*model.ShiftRecord, error) {
    var s model.ShiftRecord
    err := row.Scan(&s.ID, &s.UserID, &s.LocationID, &s.TenantID, &s.StartedAt, &s.EndedAt, &s.Expired)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}
