package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beehive/membership/common/ratelimit"
)

// isInternalRequest checks if the request is from an internal service.
// Internal services set X-Internal-Service header to bypass rate limits.
func isInternalRequest(c echo.Context) bool {
	internalHeader := c.Request().Header.Get("X-Internal-Service")
	if internalHeader == "" {
		return false
	}

	// Verify against shared secret (prevents spoofing)
	expectedSecret := os.Getenv("INTERNAL_SERVICE_SECRET")
	if expectedSecret == "" {
		expectedSecret = "default-internal-secret-change-in-prod" // Fallback for dev
	}

	return internalHeader == expectedSecret
}

// walletFromRequest pulls the wallet the request acts on behalf of.
// Mutating endpoints carry it in the body, so handlers re-bind; for rate
// limiting the header or query param is enough.
func walletFromRequest(c echo.Context) string {
	if w := c.Request().Header.Get("X-Wallet-Address"); w != "" {
		return strings.ToLower(w)
	}
	if w := c.QueryParam("wallet"); w != "" {
		return strings.ToLower(w)
	}
	if w := c.Param("wallet"); w != "" {
		return strings.ToLower(w)
	}
	return ""
}

// WalletRateLimitMiddleware checks per-wallet rate limits for an operation.
// Skips rate limiting for internal service-to-service calls and fails open
// when Redis is unavailable.
func WalletRateLimitMiddleware(rateLimiter *ratelimit.RateLimiter, op ratelimit.Operation, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isInternalRequest(c) {
				return next(c)
			}

			wallet := walletFromRequest(c)
			if wallet == "" {
				// No wallet to key on; the handler will reject malformed
				// requests anyway.
				return next(c)
			}

			result, err := rateLimiter.CheckWalletLimit(c.Request().Context(), wallet, op, limit)
			if err != nil {
				// On error, allow request (fail open for availability)
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "rate_limit_exceeded",
					"message": "Too many requests for this wallet. Please wait before trying again.",
					"details": map[string]interface{}{
						"wallet":              wallet,
						"operation":           string(op),
						"limit":               result.Limit,
						"window":              "60 seconds",
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
