package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/beehive/membership/cmd/engine/container"
	"github.com/beehive/membership/cmd/engine/models"
	"github.com/beehive/membership/cmd/engine/service"
	"github.com/beehive/membership/common/bootstrap"
)

// RewardHandler handles reward claims and history
type RewardHandler struct {
	components       *bootstrap.Components
	lifecycleService *service.LifecycleService
	queryService     *service.QueryService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(c *container.Container) *RewardHandler {
	return &RewardHandler{
		components:       c.Components,
		lifecycleService: c.LifecycleService,
		queryService:     c.QueryService,
	}
}

// Claim settles a claimable reward for its recipient.
// POST /api/v1/rewards/:id/claim
func (h *RewardHandler) Claim(c echo.Context) error {
	ctx := c.Request().Context()

	rewardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid reward id",
		})
	}

	var req struct {
		Wallet string `json:"wallet"`
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

	result, err := h.lifecycleService.Claim(ctx, rewardID, req.Wallet)

	var transition *models.InvalidStateTransitionError
	switch {
	case err == nil:
		body := map[string]interface{}{
			"outcome": string(result.Outcome),
		}
		if result.Outcome == service.OutcomeClaimed {
			body["amount_cents"] = result.AmountCents
		} else {
			body["required_level"] = result.RequiredLevel
			body["remaining_seconds"] = int64(result.RemainingTime / time.Second)
			body["message"] = result.Message
		}
		return c.JSON(http.StatusOK, body)
	case errors.Is(err, service.ErrNotFoundOrForbidden):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "reward not found",
		})
	case errors.Is(err, service.ErrAlreadyClaimed):
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error": "reward already claimed",
		})
	case errors.As(err, &transition):
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error": transition.Error(),
		})
	default:
		h.components.Logger.Error("claim failed", "reward_id", rewardID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "claim failed",
		})
	}
}

// ListRewards returns a wallet's reward history, newest first.
// GET /api/v1/rewards?wallet=0x...&status=claimable
func (h *RewardHandler) ListRewards(c echo.Context) error {
	ctx := c.Request().Context()

	wallet := c.QueryParam("wallet")
	if wallet == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "wallet query parameter is required",
		})
	}

	status := models.RewardStatus(c.QueryParam("status"))
	if status != "" && !validStatusFilter(status) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid status filter",
		})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error": "invalid limit",
			})
		}
		limit = parsed
	}

	rewards, err := h.queryService.ListRewards(ctx, wallet, status, limit)
	if err != nil {
		h.components.Logger.Error("reward listing failed", "wallet", wallet, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "reward listing failed",
		})
	}
	if rewards == nil {
		rewards = []models.LayerReward{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"wallet":  models.NormalizeWallet(wallet),
		"rewards": rewards,
	})
}

func validStatusFilter(status models.RewardStatus) bool {
	switch status {
	case models.StatusPending, models.StatusClaimable, models.StatusClaimed,
		models.StatusExpired, models.StatusRolledUp:
		return true
	}
	return false
}
