package middleware

import (
    "bytes"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "net/http"
    "sort"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/foodbridge/distribution-api/internal/config"
)

// cachedResponse is the serialised form of a cache entry: status, selected
// headers and the body.
type cachedResponse struct {
    Status  int                 `json:"status"`
    Headers map[string][]string `json:"headers"`
    Body    []byte              `json:"body"`
}

// bodyCapture tees the response body so a successful response can be stored
// after it was written to the client.
type bodyCapture struct {
    http.ResponseWriter
    buf    bytes.Buffer
    status int
    over   bool
    limit  int
}

func (w *bodyCapture) WriteHeader(status int) {
    w.status = status
    w.ResponseWriter.WriteHeader(status)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
    if !w.over {
        if w.buf.Len()+len(b) <= w.limit {
            w.buf.Write(b)
        } else {
            w.over = true
            w.buf.Reset()
        }
    }
    return w.ResponseWriter.Write(b)
}

// ResponseCache caches successful responses of the configured methods in
// Redis.  Intended for the reporting routes, whose aggregates tolerate the
// configured TTL of staleness.  Disabled transparently when Redis is absent.
func ResponseCache(rdb *redis.Client, cfg config.CacheConfig) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Enabled || rdb == nil || !cfg.Methods[c.Request().Method] {
                return next(c)
            }

            key := cacheKey(c, cfg)
            ctx := c.Request().Context()

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var entry cachedResponse
                if json.Unmarshal(raw, &entry) == nil {
                    h := c.Response().Header()
                    for name, vals := range entry.Headers {
                        for _, v := range vals {
                            h.Add(name, v)
                        }
                    }
                    h.Set("X-Cache", "HIT")
                    return c.Blob(entry.Status, h.Get(echo.HeaderContentType), entry.Body)
                }
            }

            capture := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = capture
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if capture.status == http.StatusOK && !capture.over {
                entry := cachedResponse{
                    Status: capture.status,
                    Headers: map[string][]string{
                        echo.HeaderContentType: c.Response().Header().Values(echo.HeaderContentType),
                    },
                    Body: capture.buf.Bytes(),
                }
                if raw, err := json.Marshal(entry); err == nil {
                    _ = rdb.Set(ctx, key, raw, cfg.TTL).Err()
                }
            }
            return nil
        }
    }
}

// cacheKey builds the Redis key from route, sorted query string and, for
// route_query_user, the authenticated user.
func cacheKey(c echo.Context, cfg config.CacheConfig) string {
    parts := []string{c.Request().Method, c.Path()}

    q := c.Request().URL.Query()
    names := make([]string, 0, len(q))
    for name := range q {
        names = append(names, name)
    }
    sort.Strings(names)
    for _, name := range names {
        vals := q[name]
        sort.Strings(vals)
        parts = append(parts, name+"="+strings.Join(vals, ","))
    }

    if cfg.KeyStrategy == "route_query_user" {
        if uid, ok := c.Get(CtxUserID).(uint64); ok {
            parts = append(parts, "u", strconv.FormatUint(uid, 10))
        }
    }

    sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}
