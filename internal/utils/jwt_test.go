package utils

import (
    "testing"
    "time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    secret := "test-secret"
    duty := &DutyClaims{OnDuty: true, LocationID: 3, TenantID: 5}

    token, err := NewAccessToken(secret, 42, "WORKER", time.Minute, duty)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }

    claims, err := ParseAccessToken(secret, token)
    if err != nil {
        t.Fatalf("ParseAccessToken: %v", err)
    }
    if sub, _ := claims["sub"].(float64); uint64(sub) != 42 {
        t.Fatalf("sub = %v, want 42", claims["sub"])
    }
    if role, _ := claims["role"].(string); role != "WORKER" {
        t.Fatalf("role = %v, want WORKER", claims["role"])
    }
    if on, _ := claims["duty"].(bool); !on {
        t.Fatalf("duty claim missing or false")
    }
    if loc, _ := claims["loc"].(float64); uint64(loc) != 3 {
        t.Fatalf("loc = %v, want 3", claims["loc"])
    }
    if tenant, _ := claims["tenant"].(float64); uint64(tenant) != 5 {
        t.Fatalf("tenant = %v, want 5", claims["tenant"])
    }
}

func TestAccessTokenWithoutDutyClaims(t *testing.T) {
    token, err := NewAccessToken("s", 1, "PARTICIPANT", time.Minute, nil)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    claims, err := ParseAccessToken("s", token)
    if err != nil {
        t.Fatalf("ParseAccessToken: %v", err)
    }
    if _, ok := claims["duty"]; ok {
        t.Fatalf("duty claim should be absent")
    }
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
    token, err := NewAccessToken("right", 1, "ADMIN", time.Minute, nil)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if _, err := ParseAccessToken("wrong", token); err == nil {
        t.Fatalf("expected signature verification failure")
    }
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
    token, err := NewAccessToken("s", 1, "ADMIN", -time.Minute, nil)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if _, err := ParseAccessToken("s", token); err == nil {
        t.Fatalf("expected expiry rejection")
    }
}

func TestRefreshTokenHashing(t *testing.T) {
    raw, err := NewRefreshToken()
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if len(raw) != 64 {
        t.Fatalf("raw token length = %d, want 64 hex chars", len(raw))
    }
    h1 := HashRefreshToken(raw)
    h2 := HashRefreshToken(raw)
    if h1 != h2 {
        t.Fatalf("hash is not deterministic")
    }
    if h1 == raw {
        t.Fatalf("hash must differ from the raw token")
    }

    other, err := NewRefreshToken()
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if other == raw {
        t.Fatalf("two tokens should not collide")
    }
}
