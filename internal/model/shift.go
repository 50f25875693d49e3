package model

import "time"

// ShiftRecord represents a row in the `shift_records` table.  A shift is a
// bounded period during which a user is on duty at a location on behalf of a
// tenant.  An open shift has EndedAt nil; a user's current duty status is
// always derived from their newest shift row, never stored on the user.
type ShiftRecord struct {
    ID         uint64     // primary key
    UserID     uint64     // FK to users.id
    LocationID uint64     // FK to locations.id
    TenantID   uint64     // FK to tenants.id
    StartedAt  time.Time  // when the shift opened
    EndedAt    *time.Time // when the shift closed (nil while open)
    Expired    bool       // true when the shift was closed by the expiry check rather than the user
}
