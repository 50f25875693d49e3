package utils

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// DutyClaims carries the caller's duty context inside the access token.
// After a duty change the client must obtain a fresh access token, so route
// middleware can trust these claims without hitting the database.
type DutyClaims struct {
    OnDuty     bool
    LocationID uint64
    TenantID   uint64
}

// NewAccessToken creates a signed HS256 JWT for a user.  duty is optional;
// when present the duty context is embedded in the claims.
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration, duty *DutyClaims) (string, error) {
    now := time.Now()
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "iat":  now.Unix(),
        "exp":  now.Add(ttl).Unix(),
    }
    if duty != nil {
        claims["duty"] = duty.OnDuty
        claims["loc"] = duty.LocationID
        claims["tenant"] = duty.TenantID
    }
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return token.SignedString([]byte(secret))
}

// ParseAccessToken validates a signed access token and returns its claims.
func ParseAccessToken(secret, tokenString string) (jwt.MapClaims, error) {
    token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, jwt.ErrSignatureInvalid
        }
        return []byte(secret), nil
    })
    if err != nil {
        return nil, err
    }
    claims, ok := token.Claims.(jwt.MapClaims)
    if !ok || !token.Valid {
        return nil, jwt.ErrTokenInvalidClaims
    }
    return claims, nil
}

// NewRefreshToken generates a random opaque refresh token.  The raw value
// goes to the client; only its hash is stored.
func NewRefreshToken() (string, error) {
    b := make([]byte, 32)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}

// HashRefreshToken returns the hex SHA-256 of a raw refresh token, the form
// stored in the refresh_tokens table.
func HashRefreshToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
