package config

import (
    "context"
    "crypto/tls"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient connects the Redis instance backing the scan rate limiter
// and the report response cache.  Both of those degrade gracefully without
// it, so a failed connection at startup returns nil rather than an error:
// scans then run unthrottled and reports uncached, but check-ins keep
// working.
//
// Environment variables:
//   REDIS_HOST, REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR             – host:port shorthand, overridden by host/port
//   REDIS_PASSWORD         – optional password
//   REDIS_DB               – database number (default 0)
//   REDIS_TLS              – enable TLS when "true" or "1"
func NewRedisClient() *redis.Client {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }

    var tlsConf *tls.Config
    if envBool("REDIS_TLS", false) {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }

    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  os.Getenv("REDIS_PASSWORD"),
        DB:        envInt("REDIS_DB", 0),
        TLSConfig: tlsConf,
    })

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        return nil
    }
    return client
}
