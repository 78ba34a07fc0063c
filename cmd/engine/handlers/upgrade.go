package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beehive/membership/cmd/engine/container"
	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/cmd/engine/service"
	"github.com/beehive/membership/common/bootstrap"
)

// UpgradeHandler handles upgrade validation requests
type UpgradeHandler struct {
	components   *bootstrap.Components
	levelService *service.LevelService
}

// NewUpgradeHandler creates a new upgrade handler
func NewUpgradeHandler(c *container.Container) *UpgradeHandler {
	return &UpgradeHandler{
		components:   c.Components,
		levelService: c.LevelService,
	}
}

// ValidateUpgrade checks whether a wallet may buy a target level.
// POST /api/v1/upgrades/validate
func (h *UpgradeHandler) ValidateUpgrade(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Wallet      string `json:"wallet"`
		TargetLevel int    `json:"target_level"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
	}
	if req.Wallet == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "wallet is required",
		})
	}

	wallet := models.NormalizeWallet(req.Wallet)
	err := h.levelService.ValidateUpgrade(ctx, wallet, req.TargetLevel)

	var rejected *service.UpgradeRejectedError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"valid":        true,
			"wallet":       wallet,
			"target_level": req.TargetLevel,
		})
	case errors.As(err, &rejected):
		body := map[string]interface{}{
			"valid":        false,
			"wallet":       wallet,
			"target_level": req.TargetLevel,
			"reason":       string(rejected.Reason),
		}
		if rejected.Reason == service.ReasonMissingPrerequisiteLevel {
			body["missing_level"] = rejected.Level
		}
		if rejected.Reason == service.ReasonInsufficientDirectReferrals {
			body["current_referrals"] = rejected.Current
			body["required_referrals"] = rejected.Required
		}
		return c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, service.ErrMemberNotFound):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "member not found",
		})
	default:
		h.components.Logger.Error("upgrade validation failed", "wallet", wallet, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "validation failed",
		})
	}
}
