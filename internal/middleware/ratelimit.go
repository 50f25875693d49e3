package middleware

import (
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/foodbridge/distribution-api/internal/config"
)

// tokenBucketScript implements a token bucket in Redis.  State is two hash
// fields (tokens, last refill timestamp in ms); the script refills, tries to
// take one token and returns {allowed, retry_after_ms} atomically.
var tokenBucketScript = redis.NewScript(`
local key      = KEYS[1]
local rate     = tonumber(ARGV[1])
local burst    = tonumber(ARGV[2])
local now_ms   = tonumber(ARGV[3])
local ttl_ms   = tonumber(ARGV[4])

local state  = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts     = tonumber(state[2])
if tokens == nil then
  tokens = burst
  ts = now_ms
end

local elapsed = math.max(0, now_ms - ts)
tokens = math.min(burst, tokens + elapsed * rate / 1000)

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call('HMSET', key, 'tokens', tokens, 'ts', now_ms)
redis.call('PEXPIRE', key, ttl_ms)
return {allowed, retry_ms}
`)

// RateLimit returns a token-bucket limiter backed by Redis.  rps and burst
// override the config defaults when positive so the scan routes can carry a
// larger bucket.  With no Redis client the limiter fails open: availability
// of check-ins matters more than quota enforcement.
func RateLimit(rdb *redis.Client, cfg config.RateLimitConfig, rps float64, burst int) echo.MiddlewareFunc {
    if rps <= 0 {
        rps = cfg.RPS
    }
    if burst <= 0 {
        burst = cfg.Burst
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Enabled || rdb == nil {
                return next(c)
            }

            key := fmt.Sprintf("%s:%s", cfg.Prefix, limiterIdentity(c, cfg.Scope))
            now := time.Now().UnixMilli()
            res, err := tokenBucketScript.Run(c.Request().Context(), rdb,
                []string{key}, rps, burst, now, cfg.TTL.Milliseconds()).Int64Slice()
            if err != nil || len(res) != 2 {
                // Redis trouble: let the request through.
                return next(c)
            }

            if res[0] != 1 {
                retry := time.Duration(res[1]) * time.Millisecond
                c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
                return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
            }
            return next(c)
        }
    }
}

// limiterIdentity derives the client identity for the bucket key according
// to the configured scope.
func limiterIdentity(c echo.Context, scope string) string {
    uid, hasUser := c.Get(CtxUserID).(uint64)
    switch scope {
    case "user":
        if hasUser {
            return fmt.Sprintf("u:%d", uid)
        }
        return "anon"
    case "ip":
        return "ip:" + c.RealIP()
    case "user_and_ip":
        if hasUser {
            return fmt.Sprintf("u:%d:ip:%s", uid, c.RealIP())
        }
        return "ip:" + c.RealIP()
    default: // user_or_ip
        if hasUser {
            return fmt.Sprintf("u:%d", uid)
        }
        return "ip:" + c.RealIP()
    }
}
