package handler // package handler implements the HTTP endpoints

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/distribution-api/internal/checkin"
    "github.com/foodbridge/distribution-api/internal/middleware"
    "github.com/foodbridge/distribution-api/internal/repository"
)

// userID extracts the authenticated user ID placed by the JWT middleware.
func userID(c echo.Context) uint64 {
    id, _ := c.Get(middleware.CtxUserID).(uint64)
    return id
}

// role extracts the authenticated role.
func role(c echo.Context) string {
    r, _ := c.Get(middleware.CtxRole).(string)
    return r
}

// httpError maps the engine's sentinel errors onto HTTP responses.  Unknown
// errors become 500 without leaking internals.
func httpError(err error) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return echo.NewHTTPError(http.StatusNotFound, "not found")
    case errors.Is(err, checkin.ErrUnresolvedTenant):
        return echo.NewHTTPError(http.StatusConflict, "unresolved_attribution")
    case errors.Is(err, checkin.ErrNoPendingScan):
        return echo.NewHTTPError(http.StatusConflict, "no pending scan")
    case errors.Is(err, checkin.ErrNotOnDuty):
        return echo.NewHTTPError(http.StatusForbidden, "duty shift required")
    case errors.Is(err, repository.ErrConflict):
        return echo.NewHTTPError(http.StatusConflict, "conflict")
    case errors.Is(err, repository.ErrForbidden):
        return echo.NewHTTPError(http.StatusForbidden, "forbidden")
    case errors.Is(err, checkin.ErrLockTimeout):
        return echo.NewHTTPError(http.StatusServiceUnavailable, "busy, retry")
    default:
        return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
    }
}

// parseWindow reads the from/to query parameters (YYYY-MM-DD).  Missing
// values default to the last 30 days ending today.
func parseWindow(c echo.Context) (time.Time, time.Time, error) {
    now := checkin.ServiceDay(time.Now())
    from := now.AddDate(0, 0, -30)
    to := now

    if s := c.QueryParam("from"); s != "" {
        t, err := time.Parse("2006-01-02", s)
        if err != nil {
            return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
        }
        from = t
    }
    if s := c.QueryParam("to"); s != "" {
        t, err := time.Parse("2006-01-02", s)
        if err != nil {
            return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
        }
        to = t
    }
    if to.Before(from) {
        return from, to, echo.NewHTTPError(http.StatusBadRequest, "window end before start")
    }
    return from, to, nil
}
