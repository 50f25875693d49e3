package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"     // time parses duration values
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, durations for windows evaluated against timestamps.
type Config struct {
    Env              string        // application environment (e.g. "dev", "prod")
    Port             string        // HTTP port to listen on
    DBUser           string        // database username
    DBPass           string        // database password (optional)
    DBHost           string        // database host address
    DBPort           string        // database port number
    DBName           string        // database name
    JWTSecret        string        // secret used to sign JWTs
    AccessTTLMin     int           // access token time‑to‑live in minutes
    RefreshTTLDays   int           // refresh token time‑to‑live in days
    BcryptCost       int           // bcrypt cost for password hashing
    ShiftMaxHours    int           // hours after which an open duty shift is considered expired
    ScanDupWindow    time.Duration // window in which a repeated approval by the same worker is absorbed
    QRAutoApprove    bool          // default approval mode of the QR scan channel
    PhoneAutoApprove bool          // default approval mode of the phone-lookup scan channel
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Check-in behaviour
// knobs all carry defaults so a bare deployment matches field conventions:
// QR scans are two-phase, phone lookups approve immediately.
func Load() Config {
    return Config{
        Env:              must("APP_ENV"),                     // environment (dev/test/prod)
        Port:             must("APP_PORT"),                    // port to bind the HTTP server
        DBUser:           must("DB_USER"),                     // database user
        DBPass:           os.Getenv("DB_PASS"),                // database password (empty allowed)
        DBHost:           must("DB_HOST"),                     // database host
        DBPort:           must("DB_PORT"),                     // database port
        DBName:           must("DB_NAME"),                     // database name
        JWTSecret:        must("JWT_SECRET"),                  // secret used for signing JWTs
        AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),     // TTL for access tokens in minutes
        RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),   // TTL for refresh tokens in days
        BcryptCost:       mustInt("BCRYPT_COST"),              // bcrypt cost factor
        ShiftMaxHours:    envIntDefault("SHIFT_MAX_HOURS", 8), // duty shift expiry horizon
        ScanDupWindow:    envDurDefault("SCAN_DUPLICATE_WINDOW", 2*time.Minute),
        QRAutoApprove:    envBoolDefault("QR_AUTO_APPROVE", false),
        PhoneAutoApprove: envBoolDefault("PHONE_AUTO_APPROVE", true),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// envIntDefault reads an optional integer variable, falling back to def
// when the variable is unset or malformed.
func envIntDefault(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return def
    }
    return n
}

// envDurDefault reads an optional duration variable ("2m", "90s", ...),
// falling back to def when unset or malformed.
func envDurDefault(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        return def
    }
    return d
}

// envBoolDefault reads an optional boolean variable.  Accepted true values
// are "1" and "true" (any case); accepted false values are "0" and "false".
func envBoolDefault(key string, def bool) bool {
    switch os.Getenv(key) {
    case "1", "true", "TRUE", "True":
        return true
    case "0", "false", "FALSE", "False":
        return false
    }
    return def
}
