package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/foodbridge/distribution-api/internal/model"
)

// TokenRepository manages refresh tokens.  Raw tokens never touch the
// database; callers hash them first.
type TokenRepository struct {
    db *sql.DB
}

// NewTokenRepository constructs a TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
    return &TokenRepository{db: db}
}

// Store persists a hashed refresh token for a user.
func (r *TokenRepository) Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
    const q = `
INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
VALUES (?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, userID, tokenHash, expiresAt)
    return err
}

// GetActive looks up a refresh token by hash that is neither revoked nor
// expired.  Returns ErrNotFound otherwise, so callers cannot distinguish a
// revoked token from one that never existed.
func (r *TokenRepository) GetActive(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
    const q = `
SELECT id, user_id, token_hash, expires_at, revoked, created_at
FROM refresh_tokens
WHERE token_hash = ? AND revoked = 0 AND expires_at > NOW()`
    var t model.RefreshToken
    err := r.db.QueryRowContext(ctx, q, tokenHash).
        Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// Revoke marks a single token as revoked (used during rotation).
func (r *TokenRepository) Revoke(ctx context.Context, id uint64) error {
    const q = `UPDATE refresh_tokens SET revoked = 1 WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, id)
    return err
}

// RevokeAllForUser revokes every active token of a user (logout everywhere).
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID uint64) error {
    const q = `UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0`
    _, err := r.db.ExecContext(ctx, q, userID)
    return err
}
