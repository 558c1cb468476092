package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/camara/internal/logger"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports liveness and database reachability.
func HealthHandler(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Msg("Database ping failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unavailable",
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
	}
}
