package model

import "time"

// EventState is the lifecycle state of a check-in event.  The state is not
// stored as a column: it is derived from which fields of the row are set,
// so the row can never hold a state that contradicts its data.
type EventState string

const (
    // StateGenerated means the participant announced themselves (QR code
    // shown or shift opened) but no worker has engaged yet.
    StateGenerated EventState = "GENERATED"
    // StateScannedPending means a worker scanned the participant but the
    // hand-out still awaits explicit approval (two-phase channels).
    StateScannedPending EventState = "SCANNED_PENDING"
    // StateApproved means the parcel was handed out.
    StateApproved EventState = "APPROVED"
)

// CheckInEvent represents a row in the `check_in_events` table.  One row is
// one parcel hand-out attempt; a participant can accumulate several rows on
// the same service day.
type CheckInEvent struct {
    ID            uint64     // primary key
    ParticipantID uint64     // FK to users.id (role PARTICIPANT)
    ServiceDay    time.Time  // calendar day of the event (DATE column)
    ScanToken     string     // opaque token encoded in the participant's QR code
    Channel       string     // channel the event arrived on ("qr", "phone", "shift")
    LocationID    *uint64    // location of the worker interaction (nil until scanned)
    TenantID      *uint64    // tenant attributed by the worker interaction (nil until scanned)
    WorkerID      *uint64    // worker who scanned (nil until scanned)
    Approved      bool       // true once the parcel was handed out
    CreatedAt     time.Time  // when the event was generated
    ScannedAt     *time.Time // when a worker scanned (nil until scanned)
    ApprovedAt    *time.Time // when the hand-out was approved (nil until approved)
}

// State derives the lifecycle state from the row contents.  A row with no
// worker is GENERATED, a scanned but unapproved row is SCANNED_PENDING and
// an approved row is APPROVED regardless of how it got there.
func (e *CheckInEvent) State() EventState {
    if e.Approved {
        return StateApproved
    }
    if e.WorkerID != nil {
        return StateScannedPending
    }
    return StateGenerated
}
