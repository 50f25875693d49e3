package model // package model defines the persistent data structures

import "time"

// Role values stored in users.role.  Participants pick up food parcels,
// workers staff distribution points and admins manage reference data.
const (
    RoleParticipant = "PARTICIPANT"
    RoleWorker      = "WORKER"
    RoleAdmin       = "ADMIN"
)

// User represents a row in the `users` table.  Both participants and
// distribution-point workers are users; the role column tells them apart.
type User struct {
    ID                   uint64    // primary key
    Email                string    // unique login email
    PasswordHash         string    // bcrypt hash of the password
    FullName             string    // display name
    Phone                string    // phone number, used by the phone lookup channel
    Role                 string    // PARTICIPANT, WORKER or ADMIN
    RegisteredLocationID *uint64   // distribution point the user registered at (nullable)
    Active               bool      // users are soft-disabled, never deleted
    RegisteredAt         time.Time // registration timestamp
}
