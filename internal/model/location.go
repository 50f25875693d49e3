package model

import "time"

// Location represents a row in the `locations` table.  A location is a
// physical distribution point where parcels are handed out.
type Location struct {
    ID        uint64    `json:"id"`         // primary key
    Name      string    `json:"name"`       // human-readable name, unique
    Address   string    `json:"address"`    // street address
    Active    bool      `json:"active"`     // inactive locations are hidden from listings
    CreatedAt time.Time `json:"created_at"` // creation timestamp
}
