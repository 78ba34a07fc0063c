package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beehive/membership/cmd/engine/container"
	"github.com/beehive/membership/cmd/engine/service"
	"github.com/beehive/membership/common/bootstrap"
)

// MaintenanceHandler handles scheduler-driven maintenance endpoints
type MaintenanceHandler struct {
	components       *bootstrap.Components
	lifecycleService *service.LifecycleService
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(c *container.Container) *MaintenanceHandler {
	return &MaintenanceHandler{
		components:       c.Components,
		lifecycleService: c.LifecycleService,
	}
}

// Sweep expires overdue pending rewards and rolls them up. Invoked by
// the external scheduler.
// POST /api/v1/maintenance/sweep
func (h *MaintenanceHandler) Sweep(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.lifecycleService.SweepExpired(ctx)
	if err != nil {
		// A partial result is still useful to the scheduler.
		h.components.Logger.Error("sweep aborted", "error", err,
			"expired", result.ExpiredCount, "rolled_up", result.RolledUpCount)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":  "sweep aborted",
			"result": result,
		})
	}

	h.components.Logger.Info("sweep complete",
		"expired", result.ExpiredCount,
		"rolled_up", result.RolledUpCount,
		"failed", result.FailedCount)

	return c.JSON(http.StatusOK, result)
}
