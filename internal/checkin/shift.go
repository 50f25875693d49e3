package checkin

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/google/uuid"

    "github.com/foodbridge/distribution-api/internal/database"
    "github.com/foodbridge/distribution-api/internal/model"
    "github.com/foodbridge/distribution-api/internal/repository"
)

// Tracker manages duty shifts.  There is no background sweep: expiry is
// evaluated lazily whenever a shift is read, so an abandoned shift costs
// nothing until someone looks at it.
type Tracker struct {
    db       *sql.DB
    shifts   *repository.ShiftRepository
    events   *repository.CheckInRepository
    rec      *Reconciler
    maxShift time.Duration
}

// NewTracker constructs a Tracker.  maxShift is the horizon after which an
// open shift counts as abandoned.
func NewTracker(db *sql.DB, shifts *repository.ShiftRepository, events *repository.CheckInRepository, rec *Reconciler, maxShift time.Duration) *Tracker {
    return &Tracker{db: db, shifts: shifts, events: events, rec: rec, maxShift: maxShift}
}

// DutyStatus is the derived duty state of a user.  It is computed from the
// newest shift row at read time, never cached on the user.
type DutyStatus struct {
    OnDuty     bool
    ShiftID    uint64
    LocationID uint64
    TenantID   uint64
    Since      time.Time
}

// Status reports whether the user is on duty right now.  Reading the status
// of a stale shift closes it as expired before reporting off duty, which is
// why this runs in a write transaction.
func (t *Tracker) Status(ctx context.Context, userID uint64, now time.Time) (DutyStatus, error) {
    var st DutyStatus
    err := withLock(ctx, t.db, dutyLockName(userID), func() error {
        return database.WithTxRetry(ctx, t.db, func(tx *sql.Tx) error {
            st = DutyStatus{}
            s, err := t.shifts.OpenForUserTx(ctx, tx, userID)
            if errors.Is(err, repository.ErrNotFound) {
                return nil
            }
            if err != nil {
                return err
            }
            // Expiry is observed, not scheduled: the stale shift is closed
            // at the moment somebody looked.
            if shiftExpired(s.StartedAt, now, t.maxShift) {
                return t.shifts.CloseTx(ctx, tx, s.ID, now, true)
            }
            st = DutyStatus{OnDuty: true, ShiftID: s.ID, LocationID: s.LocationID, TenantID: s.TenantID, Since: s.StartedAt}
            return nil
        })
    })
    return st, err
}

// SetOnDuty opens a duty shift at a location for a tenant.  An existing open
// shift is closed first (expired when stale, normally when the user simply
// moved), so a user never has two open shifts.  For participants, going on
// duty also announces them for the day: their first GENERATED event is
// seeded if none exists yet and a provisional attribution to the chosen
// tenant is recorded.
func (t *Tracker) SetOnDuty(ctx context.Context, user *model.User, locationID, tenantID uint64, now time.Time) (DutyStatus, error) {
    day := ServiceDay(now)
    var st DutyStatus

    run := func() error {
        return database.WithTxRetry(ctx, t.db, func(tx *sql.Tx) error {
            st = DutyStatus{}
            return t.setOnDutyTx(ctx, tx, user, locationID, tenantID, day, now, &st)
        })
    }

    var err error
    if user.Role == model.RoleParticipant {
        // Participants additionally hold their day lock: the event seeding
        // below races with worker scans for the same participant, and both
        // sides must see each other's committed rows.  The duty lock is
        // always taken first.
        err = withLock(ctx, t.db, dutyLockName(user.ID), func() error {
            return withLock(ctx, t.db, dayLockName(user.ID, day), run)
        })
    } else {
        err = withLock(ctx, t.db, dutyLockName(user.ID), run)
    }
    return st, err
}

func (t *Tracker) setOnDutyTx(ctx context.Context, tx *sql.Tx, user *model.User, locationID, tenantID uint64, day, now time.Time, st *DutyStatus) error {
    prev, err := t.shifts.OpenForUserTx(ctx, tx, user.ID)
    if err != nil && !errors.Is(err, repository.ErrNotFound) {
        return err
    }
    if err == nil {
        expired := shiftExpired(prev.StartedAt, now, t.maxShift)
        if err := t.shifts.CloseTx(ctx, tx, prev.ID, now, expired); err != nil {
            return err
        }
    }

    id, err := t.shifts.OpenTx(ctx, tx, user.ID, locationID, tenantID, now)
    if err != nil {
        return err
    }
    *st = DutyStatus{OnDuty: true, ShiftID: id, LocationID: locationID, TenantID: tenantID, Since: now}

    if user.Role != model.RoleParticipant {
        return nil
    }

    _, err = t.events.LatestForDayTx(ctx, tx, user.ID, day)
    if errors.Is(err, repository.ErrNotFound) {
        ev := &model.CheckInEvent{
            ParticipantID: user.ID,
            ServiceDay:    day,
            ScanToken:     uuid.NewString(),
            Channel:       "shift",
        }
        if _, err := t.events.InsertTx(ctx, tx, ev); err != nil {
            return err
        }
    } else if err != nil {
        return err
    }

    // Self-service attribution is a guess until a worker confirms it.
    return t.rec.Reconcile(ctx, tx, user.ID, tenantID, day, false)
}

// SetOffDuty closes the user's open shift.  Going off duty while already
// off is a no-op.
func (t *Tracker) SetOffDuty(ctx context.Context, userID uint64, now time.Time) error {
    return withLock(ctx, t.db, dutyLockName(userID), func() error {
        return database.WithTxRetry(ctx, t.db, func(tx *sql.Tx) error {
            s, err := t.shifts.OpenForUserTx(ctx, tx, userID)
            if errors.Is(err, repository.ErrNotFound) {
                return nil
            }
            if err != nil {
                return err
            }
            return t.shifts.CloseTx(ctx, tx, s.ID, now, shiftExpired(s.StartedAt, now, t.maxShift))
        })
    })
}

// shiftExpired reports whether a shift that started at startedAt is stale
// at now.
func shiftExpired(startedAt, now time.Time, maxShift time.Duration) bool {
    return !now.Before(startedAt.Add(maxShift))
}
