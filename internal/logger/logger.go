package logger

import (
    "os"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Init builds the process-wide zap logger.  In "prod" the output is JSON,
// otherwise a human-readable console encoder is used.  LOG_LEVEL controls
// the minimum level and defaults to info.
func Init(env string) {
    level := zapcore.InfoLevel
    switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
    case "debug":
        level = zapcore.DebugLevel
    case "warn":
        level = zapcore.WarnLevel
    case "error":
        level = zapcore.ErrorLevel
    }

    encCfg := zap.NewProductionEncoderConfig()
    encCfg.TimeKey = "ts"
    encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

    var enc zapcore.Encoder
    if env == "prod" {
        enc = zapcore.NewJSONEncoder(encCfg)
    } else {
        encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
        enc = zapcore.NewConsoleEncoder(encCfg)
    }

    core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level)
    log = zap.New(core, zap.AddCaller())
}

// Get returns the process logger, initialising a default one if Init was
// never called (useful in tests).
func Get() *zap.Logger {
    if log == nil {
        Init("dev")
    }
    return log
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
    if log != nil {
        _ = log.Sync()
    }
}

// Middleware returns an Echo middleware that logs one line per request with
// method, path, status, latency and the authenticated user when present.
func Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            fields := []zap.Field{
                zap.String("method", c.Request().Method),
                zap.String("path", c.Request().URL.Path),
                zap.Int("status", c.Response().Status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
            }
            if uid, ok := c.Get("user_id").(uint64); ok {
                fields = append(fields, zap.Uint64("user_id", uid))
            }

            l := Get()
            switch {
            case c.Response().Status >= 500:
                l.Error("request", fields...)
            case c.Response().Status >= 400:
                l.Warn("request", fields...)
            default:
                l.Info("request", fields...)
            }
            return nil
        }
    }
}
