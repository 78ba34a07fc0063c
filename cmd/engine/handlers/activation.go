package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beehive/membership/cmd/engine/container"
	"github.com/beehive/membership/cmd/engine/service"
	"github.com/beehive/membership/common/bootstrap"
	"github.com/beehive/membership/common/levels"
)

// ActivationHandler handles activation events from the payment rail
type ActivationHandler struct {
	components        *bootstrap.Components
	activationService *service.ActivationService
}

// NewActivationHandler creates a new activation handler
func NewActivationHandler(c *container.Container) *ActivationHandler {
	return &ActivationHandler{
		components:        c.Components,
		activationService: c.ActivationService,
	}
}

// Activate processes one accepted activation event. Payment is verified
// upstream; this endpoint trusts the caller.
// POST /api/v1/activations
func (h *ActivationHandler) Activate(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Wallet          string `json:"wallet"`
		Level           int    `json:"level"`
		PaymentProofRef string `json:"payment_proof_ref"`
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

	h.components.Logger.Info("activation received",
		"wallet", req.Wallet,
		"level", req.Level,
		"payment_proof", req.PaymentProofRef)

	result, err := h.activationService.OnActivation(ctx, req.Wallet, req.Level)

	var rejected *service.UpgradeRejectedError
	switch {
	case err == nil:
		status := http.StatusCreated
		if result.AlreadyProcessed {
			status = http.StatusOK
		}
		return c.JSON(status, map[string]interface{}{
			"activation":        result,
			"total_price_cents": levels.TotalPriceCents(req.Level),
		})
	case errors.As(err, &rejected):
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "activation rejected",
			"reason": string(rejected.Reason),
		})
	case errors.Is(err, service.ErrMemberNotFound):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "member not found",
		})
	default:
		h.components.Logger.Error("activation failed", "wallet", req.Wallet, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "activation failed",
		})
	}
}
