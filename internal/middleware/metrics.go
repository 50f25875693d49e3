package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    httpRequestsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "http_requests_total",
            Help: "Number of HTTP requests by method, route and status.",
        },
        []string{"method", "route", "status"},
    )
    httpRequestDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "http_request_duration_seconds",
            Help:    "HTTP request latency by method and route.",
            Buckets: prometheus.DefBuckets,
        },
        []string{"method", "route"},
    )
    handOutsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "handouts_total",
            Help: "Approved parcel hand-outs by channel.",
        },
        []string{"channel"},
    )
)

// Metrics records request counts and latencies per route.  The route label
// uses the Echo route pattern, not the raw path, to keep cardinality bounded.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)

            route := c.Path()
            if route == "" {
                route = "unknown"
            }
            method := c.Request().Method
            status := c.Response().Status
            if err != nil {
                if he, ok := err.(*echo.HTTPError); ok {
                    status = he.Code
                }
            }

            httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
            httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
            return err
        }
    }
}

// CountHandOut bumps the hand-out counter.  Called by the scan handlers
// when an approval lands.
func CountHandOut(channel string) {
    handOutsTotal.WithLabelValues(channel).Inc()
}
