package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beehive/membership/cmd/engine/container"
	"github.com/beehive/membership/cmd/engine/service"
	"github.com/beehive/membership/common/bootstrap"
)

// BalanceHandler serves balance lookups
type BalanceHandler struct {
	components   *bootstrap.Components
	queryService *service.QueryService
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(c *container.Container) *BalanceHandler {
	return &BalanceHandler{
		components:   c.Components,
		queryService: c.QueryService,
	}
}

// GetBalance returns a wallet's balance, zeroed if the wallet is new.
// GET /api/v1/balances/:wallet
func (h *BalanceHandler) GetBalance(c echo.Context) error {
	ctx := c.Request().Context()

	wallet := c.Param("wallet")
	if wallet == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "wallet is required",
		})
	}

	balance, err := h.queryService.GetBalance(ctx, wallet)
	if err != nil {
		h.components.Logger.Error("balance lookup failed", "wallet", wallet, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "balance lookup failed",
		})
	}

	return c.JSON(http.StatusOK, balance)
}
