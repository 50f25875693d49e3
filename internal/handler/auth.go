package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/distribution-api/internal/checkin"
    "github.com/foodbridge/distribution-api/internal/config"
    "github.com/foodbridge/distribution-api/internal/model"
    "github.com/foodbridge/distribution-api/internal/repository"
    "github.com/foodbridge/distribution-api/internal/utils"
)

// AuthHandler implements registration, login and refresh-token rotation.
type AuthHandler struct {
    cfg     config.Config
    users   *repository.UserRepository
    tokens  *repository.TokenRepository
    tracker *checkin.Tracker
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg config.Config, users *repository.UserRepository, tokens *repository.TokenRepository, tracker *checkin.Tracker) *AuthHandler {
    return &AuthHandler{cfg: cfg, users: users, tokens: tokens, tracker: tracker}
}

type registerRequest struct {
    Email      string  `json:"email"`
    Password   string  `json:"password"`
    FullName   string  `json:"full_name"`
    Phone      string  `json:"phone"`
    Role       string  `json:"role"`
    LocationID *uint64 `json:"location_id"`
}

// Register creates a user.  Participants record the location they signed up
// at; that location later feeds the NEW classification.  Admin accounts are
// not self-registrable.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerRequest
    if err := c.Bind(&req); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
    }
    if req.Email == "" || req.Password == "" || req.FullName == "" {
        return echo.NewHTTPError(http.StatusBadRequest, "email, password and full_name are required")
    }
    if req.Role == "" {
        req.Role = model.RoleParticipant
    }
    if req.Role != model.RoleParticipant && req.Role != model.RoleWorker {
        return echo.NewHTTPError(http.StatusBadRequest, "role must be PARTICIPANT or WORKER")
    }

    hash, err := utils.HashPassword(req.Password, h.cfg.BcryptCost)
    if err != nil {
        return httpError(err)
    }

    id, err := h.users.Create(c.Request().Context(), &model.User{
        Email:                req.Email,
        PasswordHash:         hash,
        FullName:             req.FullName,
        Phone:                req.Phone,
        Role:                 req.Role,
        RegisteredLocationID: req.LocationID,
    })
    if errors.Is(err, repository.ErrEmailExists) {
        return echo.NewHTTPError(http.StatusConflict, "email already registered")
    }
    if err != nil {
        return httpError(err)
    }
    return c.JSON(http.StatusCreated, map[string]any{"id": id})
}

type loginRequest struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type tokenResponse struct {
    AccessToken  string `json:"access_token"`
    RefreshToken string `json:"refresh_token"`
    ExpiresIn    int    `json:"expires_in"`
}

// Login verifies credentials and issues an access/refresh token pair.  The
// access token embeds the caller's current duty context.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginRequest
    if err := c.Bind(&req); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
    }

    u, err := h.users.GetByEmail(c.Request().Context(), req.Email)
    if errors.Is(err, repository.ErrNotFound) {
        return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
    }
    if err != nil {
        return httpError(err)
    }
    if utils.CheckPassword(u.PasswordHash, req.Password) != nil {
        return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
    }
    if !u.Active {
        return echo.NewHTTPError(http.StatusForbidden, "account disabled")
    }
    return h.issuePair(c, u)
}

type refreshRequest struct {
    RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.  Reuse of a rotated token fails with 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshRequest
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return echo.NewHTTPError(http.StatusBadRequest, "refresh_token required")
    }
    ctx := c.Request().Context()

    t, err := h.tokens.GetActive(ctx, utils.HashRefreshToken(req.RefreshToken))
    if errors.Is(err, repository.ErrNotFound) {
        return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
    }
    if err != nil {
        return httpError(err)
    }
    if err := h.tokens.Revoke(ctx, t.ID); err != nil {
        return httpError(err)
    }

    u, err := h.users.GetByID(ctx, t.UserID)
    if err != nil {
        return httpError(err)
    }
    return h.issuePair(c, u)
}

// RefreshAccess issues a new access token from a valid refresh token
// without rotating it.  Clients use this to pick up changed duty claims
// mid-session; Refresh remains the rotation path.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshRequest
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return echo.NewHTTPError(http.StatusBadRequest, "refresh_token required")
    }
    ctx := c.Request().Context()

    t, err := h.tokens.GetActive(ctx, utils.HashRefreshToken(req.RefreshToken))
    if errors.Is(err, repository.ErrNotFound) {
        return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
    }
    if err != nil {
        return httpError(err)
    }
    u, err := h.users.GetByID(ctx, t.UserID)
    if err != nil {
        return httpError(err)
    }

    st, err := h.tracker.Status(ctx, u.ID, time.Now())
    if err != nil {
        return httpError(err)
    }
    accessTTL := time.Duration(h.cfg.AccessTTLMin) * time.Minute
    access, err := utils.NewAccessToken(h.cfg.JWTSecret, u.ID, u.Role, accessTTL,
        &utils.DutyClaims{OnDuty: st.OnDuty, LocationID: st.LocationID, TenantID: st.TenantID})
    if err != nil {
        return httpError(err)
    }
    return c.JSON(http.StatusOK, map[string]any{
        "access_token": access,
        "expires_in":   int(accessTTL.Seconds()),
    })
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    u, err := h.users.GetByID(c.Request().Context(), userID(c))
    if err != nil {
        return httpError(err)
    }
    return c.JSON(http.StatusOK, map[string]any{
        "id":                     u.ID,
        "email":                  u.Email,
        "full_name":              u.FullName,
        "phone":                  u.Phone,
        "role":                   u.Role,
        "registered_location_id": u.RegisteredLocationID,
        "registered_at":          u.RegisteredAt,
    })
}

// Logout revokes every refresh token of the caller.
func (h *AuthHandler) Logout(c echo.Context) error {
    if err := h.tokens.RevokeAllForUser(c.Request().Context(), userID(c)); err != nil {
        return httpError(err)
    }
    return c.NoContent(http.StatusNoContent)
}

// issuePair mints an access token carrying the user's live duty context
// plus a fresh refresh token.
func (h *AuthHandler) issuePair(c echo.Context, u *model.User) error {
    ctx := c.Request().Context()

    st, err := h.tracker.Status(ctx, u.ID, time.Now())
    if err != nil {
        return httpError(err)
    }
    duty := &utils.DutyClaims{OnDuty: st.OnDuty, LocationID: st.LocationID, TenantID: st.TenantID}

    accessTTL := time.Duration(h.cfg.AccessTTLMin) * time.Minute
    access, err := utils.NewAccessToken(h.cfg.JWTSecret, u.ID, u.Role, accessTTL, duty)
    if err != nil {
        return httpError(err)
    }

    raw, err := utils.NewRefreshToken()
    if err != nil {
        return httpError(err)
    }
    expires := time.Now().AddDate(0, 0, h.cfg.RefreshTTLDays)
    if err := h.tokens.Store(ctx, u.ID, utils.HashRefreshToken(raw), expires); err != nil {
        return httpError(err)
    }

    return c.JSON(http.StatusOK, tokenResponse{
        AccessToken:  access,
        RefreshToken: raw,
        ExpiresIn:    int(accessTTL.Seconds()),
    })
}
