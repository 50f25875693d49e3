package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/distribution-api/internal/model"
    "github.com/foodbridge/distribution-api/internal/repository"
)

// AdminHandler manages reference data: distribution points, tenants and
// which tenant operates where.
type AdminHandler struct {
    locations *repository.LocationRepository
    tenants   *repository.TenantRepository
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(locations *repository.LocationRepository, tenants *repository.TenantRepository) *AdminHandler {
    return &AdminHandler{locations: locations, tenants: tenants}
}

type createLocationRequest struct {
    Name    string `json:"name"`
    Address string `json:"address"`
}

// CreateLocation registers a new distribution point.
func (h *AdminHandler) CreateLocation(c echo.Context) error {
    var req createLocationRequest
    if err := c.Bind(&req); err != nil || req.Name == "" {
        return echo.NewHTTPError(http.StatusBadRequest, "name required")
    }
    id, err := h.locations.Create(c.Request().Context(), &model.Location{Name: req.Name, Address: req.Address})
    if err != nil {
        return httpError(err)
    }
    return c.JSON(http.StatusCreated, map[string]any{"id": id})
}

type createTenantRequest struct {
    Name string `json:"name"`
}

// CreateTenant registers a new partner organisation.
func (h *AdminHandler) CreateTenant(c echo.Context) error {
    var req createTenantRequest
    if err := c.Bind(&req); err != nil || req.Name == "" {
        return echo.NewHTTPError(http.StatusBadRequest, "name required")
    }
    id, err := h.tenants.Create(c.Request().Context(), &model.Tenant{Name: req.Name})
    if err != nil {
        return httpError(err)
    }
    return c.JSON(http.StatusCreated, map[string]any{"id": id})
}

type linkTenantRequest struct {
    TenantID uint64 `json:"tenant_id"`
}

// LinkTenant attaches a tenant to a location.  Both sides must exist.
func (h *AdminHandler) LinkTenant(c echo.Context) error {
    locationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || locationID == 0 {
        return echo.NewHTTPError(http.StatusBadRequest, "invalid location id")
    }
    var req linkTenantRequest
    if err := c.Bind(&req); err != nil || req.TenantID == 0 {
        return echo.NewHTTPError(http.StatusBadRequest, "tenant_id required")
    }

    ctx := c.Request().Context()
    if _, err := h.locations.GetByID(ctx, locationID); err != nil {
        return httpError(err)
    }
    if _, err := h.tenants.GetByID(ctx, req.TenantID); err != nil {
        return httpError(err)
    }
    if err := h.locations.LinkTenant(ctx, locationID, req.TenantID); err != nil {
        return httpError(err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListLocations returns the active distribution points.  Available to any
// authenticated user so clients can populate pickers.
func (h *AdminHandler) ListLocations(c echo.Context) error {
    locs, err := h.locations.ListActive(c.Request().Context())
    if err != nil {
        return httpError(err)
    }
    return c.JSON(http.StatusOK, locs)
}

// ListTenants returns the active tenants.
func (h *AdminHandler) ListTenants(c echo.Context) error {
    tenants, err := h.tenants.ListActive(c.Request().Context())
    if err != nil {
        return httpError(err)
    }
    return c.JSON(http.StatusOK, tenants)
}
