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

// SelfHandler implements the self-service endpoints used by participants
// and workers on their own account.
type SelfHandler struct {
    cfg     config.Config
    users   *repository.UserRepository
    events  *repository.CheckInRepository
    tracker *checkin.Tracker
}

// NewSelfHandler constructs a SelfHandler.
func NewSelfHandler(cfg config.Config, users *repository.UserRepository, events *repository.CheckInRepository, tracker *checkin.Tracker) *SelfHandler {
    return &SelfHandler{cfg: cfg, users: users, events: events, tracker: tracker}
}

type dutyRequest struct {
    On         bool   `json:"on"`
    LocationID uint64 `json:"location_id"`
    TenantID   uint64 `json:"tenant_id"`
}

type dutyResponse struct {
    OnDuty      bool   `json:"on_duty"`
    LocationID  uint64 `json:"location_id,omitempty"`
    TenantID    uint64 `json:"tenant_id,omitempty"`
    AccessToken string `json:"access_token"`
}

// SetDuty toggles the caller's duty shift.  Duty context lives in the
// access token, so the response carries a freshly minted token reflecting
// the new state; the old token keeps its stale claims until it expires.
func (h *SelfHandler) SetDuty(c echo.Context) error {
    var req dutyRequest
    if err := c.Bind(&req); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
    }

    ctx := c.Request().Context()
    u, err := h.users.GetByID(ctx, userID(c))
    if err != nil {
        return httpError(err)
    }

    now := time.Now()
    var st checkin.DutyStatus
    if req.On {
        if req.LocationID == 0 || req.TenantID == 0 {
            return echo.NewHTTPError(http.StatusBadRequest, "location_id and tenant_id required to go on duty")
        }
        st, err = h.tracker.SetOnDuty(ctx, u, req.LocationID, req.TenantID, now)
    } else {
        err = h.tracker.SetOffDuty(ctx, u.ID, now)
    }
    if err != nil {
        return httpError(err)
    }

    duty := &utils.DutyClaims{OnDuty: st.OnDuty, LocationID: st.LocationID, TenantID: st.TenantID}
    access, err := utils.NewAccessToken(h.cfg.JWTSecret, u.ID, u.Role,
        time.Duration(h.cfg.AccessTTLMin)*time.Minute, duty)
    if err != nil {
        return httpError(err)
    }

    return c.JSON(http.StatusOK, dutyResponse{
        OnDuty:      st.OnDuty,
        LocationID:  st.LocationID,
        TenantID:    st.TenantID,
        AccessToken: access,
    })
}

type statusResponse struct {
    OnDuty     bool       `json:"on_duty"`
    LocationID uint64     `json:"location_id,omitempty"`
    TenantID   uint64     `json:"tenant_id,omitempty"`
    Since      *time.Time `json:"since,omitempty"`
    EventState string     `json:"event_state,omitempty"`
    ScanToken  string     `json:"scan_token,omitempty"`
}

// Status reports the caller's current duty state and, for participants,
// today's check-in progress.  The scan token is returned so the client can
// render the QR code; it is only exposed to its own subject.
func (h *SelfHandler) Status(c echo.Context) error {
    ctx := c.Request().Context()
    now := time.Now()

    st, err := h.tracker.Status(ctx, userID(c), now)
    if err != nil {
        return httpError(err)
    }

    resp := statusResponse{OnDuty: st.OnDuty, LocationID: st.LocationID, TenantID: st.TenantID}
    if st.OnDuty {
        since := st.Since
        resp.Since = &since
    }

    if role(c) == model.RoleParticipant {
        ev, err := h.events.LatestForDay(ctx, userID(c), checkin.ServiceDay(now))
        if err != nil && !errors.Is(err, repository.ErrNotFound) {
            return httpError(err)
        }
        if err == nil {
            resp.EventState = string(ev.State())
            if ev.State() != model.StateApproved {
                resp.ScanToken = ev.ScanToken
            }
        }
    }
    return c.JSON(http.StatusOK, resp)
}
