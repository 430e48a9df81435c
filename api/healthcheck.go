package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck answers the readiness probe. Ready flips to true once the
// database connection has been verified on startup.
type HealthCheck struct {
	ready bool
}

func NewHealthCheck() *HealthCheck {
	return &HealthCheck{}
}

func (h *HealthCheck) SetReady(ready bool) {
	h.ready = ready
}

func (h *HealthCheck) Ready(c echo.Context) error {
	if !h.ready {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
