package middleware // package middleware holds the Echo middleware chain

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/distribution-api/internal/utils"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
    CtxUserID     = "user_id"
    CtxRole       = "role"
    CtxOnDuty     = "duty_on"
    CtxDutyLoc    = "duty_location_id"
    CtxDutyTenant = "duty_tenant_id"
)

// JWTAuth validates the Authorization bearer token and stores the subject,
// role and duty context on the request.  Requests without a valid token are
// rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
            }

            sub, ok := claims["sub"].(float64)
            if !ok {
                return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
            }
            role, _ := claims["role"].(string)

            c.Set(CtxUserID, uint64(sub))
            c.Set(CtxRole, role)

            // Duty claims are optional; they are present only in tokens
            // minted after a duty change.
            if on, ok := claims["duty"].(bool); ok {
                c.Set(CtxOnDuty, on)
                if loc, ok := claims["loc"].(float64); ok {
                    c.Set(CtxDutyLoc, uint64(loc))
                }
                if tenant, ok := claims["tenant"].(float64); ok {
                    c.Set(CtxDutyTenant, uint64(tenant))
                }
            }
            return next(c)
        }
    }
}
