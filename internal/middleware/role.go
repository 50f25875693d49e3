package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRoles allows the request through only when the authenticated role
// is one of the listed roles.  Must run after JWTAuth.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, _ := c.Get(CtxRole).(string)
            if !allowed[role] {
                return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
            }
            return next(c)
        }
    }
}

// RequireOnDuty ensures the caller's access token carries an active duty
// claim.  Scan routes use this so a worker who went off duty cannot keep
// scanning with a stale token beyond its TTL.
func RequireOnDuty() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            on, _ := c.Get(CtxOnDuty).(bool)
            if !on {
                return echo.NewHTTPError(http.StatusForbidden, "duty shift required")
            }
            return next(c)
        }
    }
}
