package handler

import (
    "net/http"
    "sort"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/distribution-api/internal/checkin"
    "github.com/foodbridge/distribution-api/internal/repository"
)

// ReportHandler implements the aggregate reporting endpoints used by
// tenants and admins.
type ReportHandler struct {
    users      *repository.UserRepository
    events     *repository.CheckInRepository
    classifier *checkin.Classifier
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(users *repository.UserRepository, events *repository.CheckInRepository, classifier *checkin.Classifier) *ReportHandler {
    return &ReportHandler{users: users, events: events, classifier: classifier}
}

type participantReportRow struct {
    ParticipantID uint64 `json:"participant_id"`
    FullName      string `json:"full_name"`
    Class         string `json:"class"`
    Pickups       int    `json:"pickups"`
}

// Participants lists everyone related to the reporting window with their
// classification: participants who registered inside it and participants
// who picked up inside it.  Optional query parameters: from, to
// (YYYY-MM-DD) and location_id.
func (h *ReportHandler) Participants(c echo.Context) error {
    from, to, err := parseWindow(c)
    if err != nil {
        return err
    }
    locFilter, err := parseLocationFilter(c)
    if err != nil {
        return err
    }
    ctx := c.Request().Context()

    withEvents, err := h.events.ParticipantIDsInWindow(ctx, from, to, locFilter)
    if err != nil {
        return httpError(err)
    }
    registered, err := h.users.ParticipantIDsRegisteredBetween(ctx, from, to, locFilter)
    if err != nil {
        return httpError(err)
    }

    seen := make(map[uint64]bool)
    var ids []uint64
    for _, id := range append(withEvents, registered...) {
        if !seen[id] {
            seen[id] = true
            ids = append(ids, id)
        }
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

    // The query parameters are inclusive days; the classification rule
    // works on a half-open window.
    windowEnd := to.AddDate(0, 0, 1)

    rows := make([]participantReportRow, 0, len(ids))
    for _, id := range ids {
        u, err := h.users.GetByID(ctx, id)
        if err != nil {
            return httpError(err)
        }
        events, err := h.events.ApprovedThrough(ctx, id, windowEnd)
        if err != nil {
            return httpError(err)
        }

        pickups := 0
        for _, e := range events {
            if e.ServiceDay.Before(from) {
                continue
            }
            if locFilter == nil || e.LocationID == *locFilter {
                pickups++
            }
        }

        class := checkin.Classify(u.RegisteredAt, u.RegisteredLocationID, events, from, windowEnd, locFilter)
        rows = append(rows, participantReportRow{
            ParticipantID: id,
            FullName:      u.FullName,
            Class:         string(class),
            Pickups:       pickups,
        })
    }

    return c.JSON(http.StatusOK, map[string]any{
        "from":         from.Format("2006-01-02"),
        "to":           to.Format("2006-01-02"),
        "participants": rows,
    })
}

// Summary aggregates the window: hand-outs per tenant plus how many
// participants classify as new and recurring.
func (h *ReportHandler) Summary(c echo.Context) error {
    from, to, err := parseWindow(c)
    if err != nil {
        return err
    }
    locFilter, err := parseLocationFilter(c)
    if err != nil {
        return err
    }
    ctx := c.Request().Context()

    byTenant, err := h.events.SummaryByTenant(ctx, from, to, locFilter)
    if err != nil {
        return httpError(err)
    }
    total := 0
    for _, tc := range byTenant {
        total += tc.Count
    }

    withEvents, err := h.events.ParticipantIDsInWindow(ctx, from, to, locFilter)
    if err != nil {
        return httpError(err)
    }
    registered, err := h.users.ParticipantIDsRegisteredBetween(ctx, from, to, locFilter)
    if err != nil {
        return httpError(err)
    }

    windowEnd := to.AddDate(0, 0, 1)
    seen := make(map[uint64]bool)
    newCount, recurringCount := 0, 0
    for _, id := range append(withEvents, registered...) {
        if seen[id] {
            continue
        }
        seen[id] = true
        class, err := h.classifier.ClassifyParticipant(ctx, id, from, windowEnd, locFilter)
        if err != nil {
            return httpError(err)
        }
        switch class {
        case checkin.ClassNew:
            newCount++
        case checkin.ClassRecurring:
            recurringCount++
        }
    }

    type tenantRow struct {
        TenantID uint64 `json:"tenant_id"`
        Tenant   string `json:"tenant"`
        Handouts int    `json:"handouts"`
    }
    tenants := make([]tenantRow, 0, len(byTenant))
    for _, tc := range byTenant {
        tenants = append(tenants, tenantRow{TenantID: tc.TenantID, Tenant: tc.Tenant, Handouts: tc.Count})
    }

    return c.JSON(http.StatusOK, map[string]any{
        "from":                   from.Format("2006-01-02"),
        "to":                     to.Format("2006-01-02"),
        "total_handouts":         total,
        "by_tenant":              tenants,
        "new_participants":       newCount,
        "recurring_participants": recurringCount,
    })
}

func parseLocationFilter(c echo.Context) (*uint64, error) {
    s := c.QueryParam("location_id")
    if s == "" {
        return nil, nil
    }
    id, err := strconv.ParseUint(s, 10, 64)
    if err != nil || id == 0 {
        return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid location_id")
    }
    return &id, nil
}
