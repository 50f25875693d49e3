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

// Ledger is the hand-out state machine.  It owns every transition of a
// check-in event and guarantees that concurrent scans for the same
// participant are applied one at a time, whichever location they come from.
type Ledger struct {
    db        *sql.DB
    events    *repository.CheckInRepository
    locs      *repository.LocationRepository
    shifts    *repository.ShiftRepository
    rec       *Reconciler
    dupWindow time.Duration
}

// NewLedger constructs a Ledger.  dupWindow is the span in which a repeated
// approval by the same worker is treated as a duplicate rather than a second
// parcel.
func NewLedger(db *sql.DB, events *repository.CheckInRepository, locs *repository.LocationRepository, shifts *repository.ShiftRepository, rec *Reconciler, dupWindow time.Duration) *Ledger {
    return &Ledger{db: db, events: events, locs: locs, shifts: shifts, rec: rec, dupWindow: dupWindow}
}

// AdvanceParams describes one worker interaction.  Exactly one of ScanToken
// (QR channel) or ParticipantID (phone channel, resolved by the handler)
// identifies the participant.
type AdvanceParams struct {
    ScanToken     string  // token read from the participant's QR code
    ParticipantID uint64  // participant resolved out-of-band (phone lookup)
    WorkerID      uint64  // scanning worker
    LocationID    uint64  // where the scan happened
    TenantID      *uint64 // explicit attribution, nil to resolve implicitly
    Channel       string  // "qr" or "phone"
    AutoApprove   bool    // one-phase channels approve in the same step
    Now           time.Time
}

// AdvanceResult reports the event the interaction landed on.
type AdvanceResult struct {
    EventID       uint64
    ParticipantID uint64
    State         model.EventState
    TenantID      uint64
    Duplicate     bool // the interaction was absorbed as a repeat
}

// Advance applies a worker scan.  The state transition and the attribution
// reconcile run in one retried transaction, and the whole transaction runs
// under the participant day lock, so a failure mid-way leaves no partial
// state and two racing scans serialise cleanly with the later one winning.
// The lock is held until the transaction has committed; a competing scan
// that acquires it next always sees the committed writes.
func (l *Ledger) Advance(ctx context.Context, p AdvanceParams) (AdvanceResult, error) {
    day := ServiceDay(p.Now)
    var res AdvanceResult

    participantID := p.ParticipantID
    if p.ScanToken != "" {
        ev, err := l.events.GetByScanToken(ctx, p.ScanToken)
        if err != nil {
            return res, err
        }
        // A QR code from a previous day does not resolve to anything
        // actionable today.
        if !ServiceDay(ev.ServiceDay).Equal(day) {
            return res, repository.ErrNotFound
        }
        participantID = ev.ParticipantID
    }

    err := withLock(ctx, l.db, dayLockName(participantID, day), func() error {
        return database.WithTxRetry(ctx, l.db, func(tx *sql.Tx) error {
            res = AdvanceResult{}

            latest, err := l.events.LatestForDayTx(ctx, tx, participantID, day)
            if err != nil && !errors.Is(err, repository.ErrNotFound) {
                return err
            }

            tenantID, err := l.resolveTenantTx(ctx, tx, p.LocationID, p.TenantID, day)
            if err != nil {
                return err
            }

            res.ParticipantID = participantID
            res.TenantID = tenantID

            switch decideAdvance(latest, p.WorkerID, p.Now, l.dupWindow) {
            case actionAbsorb:
                res.EventID = latest.ID
                res.State = latest.State()
                res.Duplicate = true
                return nil

            case actionScanExisting:
                if err := l.events.MarkScannedTx(ctx, tx, latest.ID, p.WorkerID, p.LocationID, tenantID, p.Now); err != nil {
                    return err
                }
                res.EventID = latest.ID
                res.State = model.StateScannedPending
                if p.AutoApprove {
                    if err := l.events.ApproveTx(ctx, tx, latest.ID, p.Now); err != nil {
                        return err
                    }
                    res.State = model.StateApproved
                }

            case actionNewParcel:
                ev := &model.CheckInEvent{
                    ParticipantID: participantID,
                    ServiceDay:    day,
                    ScanToken:     uuid.NewString(),
                    Channel:       p.Channel,
                    LocationID:    &p.LocationID,
                    TenantID:      &tenantID,
                    WorkerID:      &p.WorkerID,
                    Approved:      p.AutoApprove,
                    ScannedAt:     &p.Now,
                }
                if p.AutoApprove {
                    ev.ApprovedAt = &p.Now
                }
                id, err := l.events.InsertTx(ctx, tx, ev)
                if err != nil {
                    return err
                }
                res.EventID = id
                res.State = ev.State()
            }

            // A worker stood in front of the participant, so the attribution is
            // confirmed even while the hand-out itself awaits approval.
            return l.rec.Reconcile(ctx, tx, participantID, tenantID, day, true)
        })
    })
    return res, err
}

// ApproveParams identifies the pending hand-out to confirm.
type ApproveParams struct {
    ParticipantID uint64
    WorkerID      uint64
    Now           time.Time
}

// Approve is the second phase of two-phase channels: it confirms the
// participant's pending scan.  Approving an already approved event is a
// no-op reported via Duplicate; approving with no scan on record fails with
// ErrNoPendingScan.
func (l *Ledger) Approve(ctx context.Context, p ApproveParams) (AdvanceResult, error) {
    day := ServiceDay(p.Now)
    var res AdvanceResult

    err := withLock(ctx, l.db, dayLockName(p.ParticipantID, day), func() error {
        return database.WithTxRetry(ctx, l.db, func(tx *sql.Tx) error {
            res = AdvanceResult{}

            latest, err := l.events.LatestForDayTx(ctx, tx, p.ParticipantID, day)
            if errors.Is(err, repository.ErrNotFound) {
                return ErrNoPendingScan
            }
            if err != nil {
                return err
            }

            res.ParticipantID = p.ParticipantID
            res.EventID = latest.ID
            if latest.TenantID != nil {
                res.TenantID = *latest.TenantID
            }

            switch latest.State() {
            case model.StateApproved:
                res.State = model.StateApproved
                res.Duplicate = true
                return nil
            case model.StateGenerated:
                return ErrNoPendingScan
            }

            if err := l.events.ApproveTx(ctx, tx, latest.ID, p.Now); err != nil {
                return err
            }
            res.State = model.StateApproved
            return l.rec.Reconcile(ctx, tx, p.ParticipantID, res.TenantID, day, true)
        })
    })
    return res, err
}

// resolveTenantTx determines which tenant a scan belongs to.  Order:
// explicit tenant in the request, then the location's sole tenant, then the
// tenant of the newest worker shift opened at the location today.  When all
// three fail the attribution is unresolved and the scan is rejected.
func (l *Ledger) resolveTenantTx(ctx context.Context, tx *sql.Tx, locationID uint64, explicit *uint64, day time.Time) (uint64, error) {
    if explicit != nil {
        return *explicit, nil
    }

    ids, err := l.locs.TenantIDsAt(ctx, locationID)
    if err != nil {
        return 0, err
    }
    if len(ids) == 1 {
        return ids[0], nil
    }

    shift, err := l.shifts.LatestWorkerShiftAtTx(ctx, tx, locationID, day)
    if err == nil {
        return shift.TenantID, nil
    }
    if !errors.Is(err, repository.ErrNotFound) {
        return 0, err
    }
    return 0, ErrUnresolvedTenant
}

// advanceAction is the outcome of the pure transition decision.
type advanceAction int

const (
    actionScanExisting advanceAction = iota // attach the worker to the latest open event
    actionNewParcel                         // start a fresh event
    actionAbsorb                            // repeat of a just-approved hand-out
)

// decideAdvance picks the transition for an incoming scan given the
// participant's newest event of the day.  An open event (generated or
// pending) absorbs the scan.  An approved event means a completed hand-out:
// the same worker re-scanning within dupWindow is a duplicate, anything
// later or from another worker starts a second parcel.
func decideAdvance(latest *model.CheckInEvent, workerID uint64, now time.Time, dupWindow time.Duration) advanceAction {
    if latest == nil {
        return actionNewParcel
    }
    switch latest.State() {
    case model.StateGenerated, model.StateScannedPending:
        return actionScanExisting
    case model.StateApproved:
        if latest.WorkerID != nil && *latest.WorkerID == workerID &&
            latest.ApprovedAt != nil && now.Sub(*latest.ApprovedAt) <= dupWindow {
            return actionAbsorb
        }
    }
    return actionNewParcel
}
