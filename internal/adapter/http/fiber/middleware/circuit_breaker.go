package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/outlet-kpi/pkg/config"
)

// CircuitBreaker sheds load while handlers keep failing with server errors.
// Client errors (bad uploads, unknown sessions) do not count as failures.
func CircuitBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	cb := circuitbreaker.New("outlet-kpi-api", cfg, log)

	return func(c *fiber.Ctx) error {
		var handlerErr error
		_, err := cb.Execute(func() (interface{}, error) {
			handlerErr = c.Next()
			if handlerErr != nil && StatusFor(handlerErr) >= fiber.StatusInternalServerError {
				return nil, handlerErr
			}
			return nil, nil
		})

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}

		return handlerErr
	}
}
