package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/camara/internal/apperr"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler maps handler errors to JSON responses. Client errors carry
// their message; anything unclassified is logged and reported as a bare 500.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			status := fiber.StatusInternalServerError
			switch appErr.Kind {
			case apperr.KindNotFound:
				status = fiber.StatusNotFound
			case apperr.KindBadRequest:
				status = fiber.StatusBadRequest
			}
			if status != fiber.StatusInternalServerError {
				return c.Status(status).JSON(errorResponse{Error: appErr.Message})
			}
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(errorResponse{Error: fiberErr.Message})
		}

		logger.Error().
			Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("Request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal server error"})
	}
}
