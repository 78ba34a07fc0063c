package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beehive/membership/cmd/engine/container"
	"github.com/beehive/membership/cmd/engine/handlers"
	"github.com/beehive/membership/common/middleware"
	"github.com/beehive/membership/common/ratelimit"
)

// Register wires all engine routes onto the echo instance.
func Register(e *echo.Echo, c *container.Container) {
	upgradeHandler := handlers.NewUpgradeHandler(c)
	activationHandler := handlers.NewActivationHandler(c)
	rewardHandler := handlers.NewRewardHandler(c)
	balanceHandler := handlers.NewBalanceHandler(c)
	maintenanceHandler := handlers.NewMaintenanceHandler(c)

	limits := c.Components.Config.Rewards

	api := e.Group("/api/v1")
	{
		api.POST("/upgrades/validate", upgradeHandler.ValidateUpgrade)

		activations := api.Group("/activations")
		if c.RateLimiter != nil {
			activations.Use(middleware.WalletRateLimitMiddleware(c.RateLimiter, ratelimit.OpActivation, limits.ActivationRateLimit))
		}
		activations.POST("", activationHandler.Activate)

		rewards := api.Group("/rewards")
		rewards.GET("", rewardHandler.ListRewards)
		claim := rewards.Group("/:id/claim")
		if c.RateLimiter != nil {
			claim.Use(middleware.WalletRateLimitMiddleware(c.RateLimiter, ratelimit.OpClaim, limits.ClaimRateLimit))
		}
		claim.POST("", rewardHandler.Claim)

		api.GET("/balances/:wallet", balanceHandler.GetBalance)
		api.POST("/maintenance/sweep", maintenanceHandler.Sweep)
	}

	e.GET("/health", func(ec echo.Context) error {
		if err := c.Components.Health(ec.Request().Context()); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return ec.JSON(http.StatusOK, map[string]interface{}{
			"status": "ok",
		})
	})
}
