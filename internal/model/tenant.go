package model

import "time"

// Tenant represents a row in the `tenants` table.  A tenant is a partner
// organisation that operates at one or more distribution points and receives
// attribution for the participants it serves.
type Tenant struct {
    ID        uint64    `json:"id"`         // primary key
    Name      string    `json:"name"`       // organisation name, unique
    Active    bool      `json:"active"`     // inactive tenants are hidden from listings
    CreatedAt time.Time `json:"created_at"` // creation timestamp
}

// LocationTenant represents a row in the `location_tenants` join table and
// records which tenants operate at which distribution point.  When exactly
// one tenant operates at a location, scans there resolve to it implicitly.
type LocationTenant struct {
    LocationID uint64 // FK to locations.id
    TenantID   uint64 // FK to tenants.id
}

// TenantAssociation represents a row in the `tenant_associations` table: a
// lasting link between a participant and a tenant.  Unconfirmed rows are
// provisional guesses made by self-service flows and may be deleted the same
// day they were created; confirmed rows were established by a
// worker-attended hand-out and are never removed or downgraded.  At most one
// row exists per (participant, tenant).
type TenantAssociation struct {
    ID            uint64    // primary key
    ParticipantID uint64    // FK to users.id (role PARTICIPANT)
    TenantID      uint64    // FK to tenants.id
    CreatedOn     time.Time // calendar day the link was first observed (DATE column)
    Confirmed     bool      // false for provisional guesses, true once a worker confirms
    CreatedAt     time.Time // insertion timestamp
    UpdatedAt     time.Time // last modification timestamp
}
