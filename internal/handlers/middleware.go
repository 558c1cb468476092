package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/camara/internal/logger"
	"github.com/rs/zerolog"
)

// RequestLogger writes one access log line per request and makes a
// request-scoped logger available through the user context.
func RequestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLog := base.With().Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext(), reqLog))

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := reqLog.Info()
		if status >= fiber.StatusInternalServerError {
			event = reqLog.Error()
		} else if status >= fiber.StatusBadRequest {
			event = reqLog.Warn()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
		return nil
	}
}
