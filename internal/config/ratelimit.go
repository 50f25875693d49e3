package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig holds the settings for the token-bucket rate limiter.
// Scope determines how clients are identified (by user, ip or a combination).
// RPS and Burst configure the bucket refill rate and capacity.  The scan
// endpoints get their own bucket so that a burst of worker scans cannot
// exhaust the quota of the self-service routes.
type RateLimitConfig struct {
    Enabled   bool
    Scope     string // "user_or_ip", "user", "ip", "user_and_ip"
    RPS       float64
    Burst     int
    TTL       time.Duration
    Prefix    string
    ScanRPS   float64
    ScanBurst int
}

// LoadRateLimitConfig builds a RateLimitConfig from the environment, applying
// defaults when unset.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled:   envBool("RATE_ENABLED", true),
        Scope:     strings.ToLower(envStr("RATE_SCOPE", "user_or_ip")),
        RPS:       envFloat("RATE_RPS", 10),
        Burst:     envInt("RATE_BURST", 20),
        TTL:       envDur("RATE_TTL", 2*time.Minute),
        Prefix:    envStr("RATE_PREFIX", "rl"),
        ScanRPS:   envFloat("RATE_SCAN_RPS", 30),
        ScanBurst: envInt("RATE_SCAN_BURST", 60),
    }
}

func envStr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envBool(key string, def bool) bool {
    if v := os.Getenv(key); v != "" {
        b, err := strconv.ParseBool(v)
        if err == nil {
            return b
        }
    }
    return def
}

func envInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        n, err := strconv.Atoi(v)
        if err == nil {
            return n
        }
    }
    return def
}

func envFloat(key string, def float64) float64 {
    if v := os.Getenv(key); v != "" {
        f, err := strconv.ParseFloat(v, 64)
        if err == nil {
            return f
        }
    }
    return def
}

func envDur(key string, def time.Duration) time.Duration {
    if v := os.Getenv(key); v != "" {
        d, err := time.ParseDuration(v)
        if err == nil {
            return d
        }
    }
    return def
}
