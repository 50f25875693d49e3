package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/distribution-api/internal/checkin"
    "github.com/foodbridge/distribution-api/internal/config"
    "github.com/foodbridge/distribution-api/internal/middleware"
    "github.com/foodbridge/distribution-api/internal/model"
    "github.com/foodbridge/distribution-api/internal/queue"
    "github.com/foodbridge/distribution-api/internal/repository"
    "github.com/foodbridge/distribution-api/internal/service"
)

// ScanHandler implements the worker-facing check-in endpoints.  The scan
// location always comes from the worker's duty claims, never from the
// request body, so a scan cannot be booked to a location the worker is not
// staffing.
type ScanHandler struct {
    cfg       config.Config
    ledger    *checkin.Ledger
    users     *repository.UserRepository
    publisher *service.Publisher
}

// NewScanHandler constructs a ScanHandler.
func NewScanHandler(cfg config.Config, ledger *checkin.Ledger, users *repository.UserRepository, publisher *service.Publisher) *ScanHandler {
    return &ScanHandler{cfg: cfg, ledger: ledger, users: users, publisher: publisher}
}

type scanRequest struct {
    ScanToken string  `json:"scan_token"`
    TenantID  *uint64 `json:"tenant_id"`
    Approved  *bool   `json:"approved"` // overrides the channel default
}

type phoneScanRequest struct {
    Phone    string  `json:"phone"`
    TenantID *uint64 `json:"tenant_id"`
    Approved *bool   `json:"approved"` // overrides the channel default
}

type approveRequest struct {
    ParticipantID uint64 `json:"participant_id"`
}

type scanResponse struct {
    EventID              uint64 `json:"event_id"`
    ParticipantID        uint64 `json:"participant_id"`
    State                string `json:"state"`
    TenantID             uint64 `json:"tenant_id"`
    CouldApprove         string `json:"could_approve"` // "Y" unless the scan repeated a completed hand-out
    RequiresConfirmation bool   `json:"requires_confirmation"`
    Duplicate            bool   `json:"duplicate"`
}

// ScanQR handles a QR-code scan.  By default the QR channel is two-phase:
// the scan parks the event as SCANNED_PENDING and a follow-up approval
// completes the hand-out.
func (h *ScanHandler) ScanQR(c echo.Context) error {
    var req scanRequest
    if err := c.Bind(&req); err != nil || req.ScanToken == "" {
        return echo.NewHTTPError(http.StatusBadRequest, "scan_token required")
    }

    res, err := h.ledger.Advance(c.Request().Context(), checkin.AdvanceParams{
        ScanToken:   req.ScanToken,
        WorkerID:    userID(c),
        LocationID:  dutyLocation(c),
        TenantID:    req.TenantID,
        Channel:     "qr",
        AutoApprove: approveOrDefault(req.Approved, h.cfg.QRAutoApprove),
        Now:         time.Now(),
    })
    if err != nil {
        return httpError(err)
    }
    h.afterAdvance(c, "qr", res)
    return c.JSON(http.StatusOK, toScanResponse(res))
}

// ScanPhone handles the phone-lookup channel.  The participant is resolved
// by phone number and the hand-out is approved in the same step unless
// configured otherwise.
func (h *ScanHandler) ScanPhone(c echo.Context) error {
    var req phoneScanRequest
    if err := c.Bind(&req); err != nil || req.Phone == "" {
        return echo.NewHTTPError(http.StatusBadRequest, "phone required")
    }

    participant, err := h.users.GetParticipantByPhone(c.Request().Context(), req.Phone)
    if err != nil {
        return httpError(err)
    }

    res, err := h.ledger.Advance(c.Request().Context(), checkin.AdvanceParams{
        ParticipantID: participant.ID,
        WorkerID:      userID(c),
        LocationID:    dutyLocation(c),
        TenantID:      req.TenantID,
        Channel:       "phone",
        AutoApprove:   approveOrDefault(req.Approved, h.cfg.PhoneAutoApprove),
        Now:           time.Now(),
    })
    if err != nil {
        return httpError(err)
    }
    h.afterAdvance(c, "phone", res)
    return c.JSON(http.StatusOK, toScanResponse(res))
}

// Approve is the second phase of the QR channel: the worker confirms the
// pending hand-out after checking the parcel.
func (h *ScanHandler) Approve(c echo.Context) error {
    var req approveRequest
    if err := c.Bind(&req); err != nil || req.ParticipantID == 0 {
        return echo.NewHTTPError(http.StatusBadRequest, "participant_id required")
    }

    res, err := h.ledger.Approve(c.Request().Context(), checkin.ApproveParams{
        ParticipantID: req.ParticipantID,
        WorkerID:      userID(c),
        Now:           time.Now(),
    })
    if err != nil {
        return httpError(err)
    }
    h.afterAdvance(c, "qr", res)
    return c.JSON(http.StatusOK, toScanResponse(res))
}

// afterAdvance publishes the hand-out notification and bumps metrics when an
// approval landed.  Duplicates are not re-published.
func (h *ScanHandler) afterAdvance(c echo.Context, channel string, res checkin.AdvanceResult) {
    if res.State != model.StateApproved || res.Duplicate {
        return
    }
    middleware.CountHandOut(channel)
    h.publisher.PublishPickupApproved(c.Request().Context(), queue.PickupApprovedEvent{
        EventID:       res.EventID,
        ParticipantID: res.ParticipantID,
        WorkerID:      userID(c),
        LocationID:    dutyLocation(c),
        TenantID:      res.TenantID,
        Channel:       channel,
        ApprovedAt:    time.Now(),
    })
}

func toScanResponse(res checkin.AdvanceResult) scanResponse {
    could := "Y"
    if res.Duplicate {
        could = "N"
    }
    return scanResponse{
        EventID:              res.EventID,
        ParticipantID:        res.ParticipantID,
        State:                string(res.State),
        TenantID:             res.TenantID,
        CouldApprove:         could,
        RequiresConfirmation: res.State == model.StateScannedPending,
        Duplicate:            res.Duplicate,
    }
}

// approveOrDefault applies the request's explicit approval flag over the
// channel default.
func approveOrDefault(explicit *bool, def bool) bool {
    if explicit != nil {
        return *explicit
    }
    return def
}

// dutyLocation reads the scan location from the worker's duty claims.
func dutyLocation(c echo.Context) uint64 {
    loc, _ := c.Get(middleware.CtxDutyLoc).(uint64)
    return loc
}
