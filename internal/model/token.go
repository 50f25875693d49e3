package model

import "time"

// RefreshToken represents a row in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored; the raw value lives solely in the
// client.  Revoked and expired tokens are rejected on rotation.
type RefreshToken struct {
    ID        uint64    // primary key
    UserID    uint64    // FK to users.id
    TokenHash string    // hex SHA-256 of the raw refresh token
    ExpiresAt time.Time // expiry timestamp
    Revoked   bool      // true once rotated or logged out
    CreatedAt time.Time // issuance timestamp
}
