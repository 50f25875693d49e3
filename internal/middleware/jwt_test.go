package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/distribution-api/internal/utils"
)

const testSecret = "test-secret"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if authHeader != "" {
        req.Header.Set(echo.HeaderAuthorization, authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
    if err := h(c); err != nil {
        e.HTTPErrorHandler(err, c)
    }
    return rec, c
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
    token, err := utils.NewAccessToken(testSecret, 7, "WORKER", time.Minute,
        &utils.DutyClaims{OnDuty: true, LocationID: 2, TenantID: 4})
    if err != nil {
        t.Fatalf("mint token: %v", err)
    }

    rec, c := doRequest(t, JWTAuth(testSecret), "Bearer "+token)
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200", rec.Code)
    }
    if uid, _ := c.Get(CtxUserID).(uint64); uid != 7 {
        t.Fatalf("user_id = %v, want 7", c.Get(CtxUserID))
    }
    if role, _ := c.Get(CtxRole).(string); role != "WORKER" {
        t.Fatalf("role = %v, want WORKER", c.Get(CtxRole))
    }
    if on, _ := c.Get(CtxOnDuty).(bool); !on {
        t.Fatalf("duty flag not propagated")
    }
    if loc, _ := c.Get(CtxDutyLoc).(uint64); loc != 2 {
        t.Fatalf("duty location = %v, want 2", c.Get(CtxDutyLoc))
    }
}

func TestJWTAuthRejectsMissingAndInvalid(t *testing.T) {
    rec, _ := doRequest(t, JWTAuth(testSecret), "")
    if rec.Code != http.StatusUnauthorized {
        t.Fatalf("missing header: status = %d, want 401", rec.Code)
    }

    rec, _ = doRequest(t, JWTAuth(testSecret), "Bearer garbage")
    if rec.Code != http.StatusUnauthorized {
        t.Fatalf("garbage token: status = %d, want 401", rec.Code)
    }
}

func TestRequireRoles(t *testing.T) {
    e := echo.New()
    run := func(role string) int {
        req := httptest.NewRequest(http.MethodGet, "/", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        c.Set(CtxRole, role)
        h := RequireRoles("WORKER", "ADMIN")(func(c echo.Context) error {
            return c.NoContent(http.StatusOK)
        })
        if err := h(c); err != nil {
            e.HTTPErrorHandler(err, c)
        }
        return rec.Code
    }

    if code := run("WORKER"); code != http.StatusOK {
        t.Fatalf("worker: status = %d, want 200", code)
    }
    if code := run("ADMIN"); code != http.StatusOK {
        t.Fatalf("admin: status = %d, want 200", code)
    }
    if code := run("PARTICIPANT"); code != http.StatusForbidden {
        t.Fatalf("participant: status = %d, want 403", code)
    }
}

func TestRequireOnDuty(t *testing.T) {
    e := echo.New()
    run := func(set bool, on bool) int {
        req := httptest.NewRequest(http.MethodPost, "/", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        if set {
            c.Set(CtxOnDuty, on)
        }
        h := RequireOnDuty()(func(c echo.Context) error {
            return c.NoContent(http.StatusOK)
        })
        if err := h(c); err != nil {
            e.HTTPErrorHandler(err, c)
        }
        return rec.Code
    }

    if code := run(true, true); code != http.StatusOK {
        t.Fatalf("on duty: status = %d, want 200", code)
    }
    if code := run(true, false); code != http.StatusForbidden {
        t.Fatalf("off duty: status = %d, want 403", code)
    }
    if code := run(false, false); code != http.StatusForbidden {
        t.Fatalf("no duty claim: status = %d, want 403", code)
    }
}
