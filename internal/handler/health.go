package handler

import (
    "database/sql"
    "net/http"

    "github.com/labstack/echo/v4"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
    db *sql.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
    return &HealthHandler{db: db}
}

// Check reports ok when the database responds to a ping.
func (h *HealthHandler) Check(c echo.Context) error {
    if err := h.db.PingContext(c.Request().Context()); err != nil {
        return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
    }
    return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
