package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrSchema):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConfiguration):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrRowLimit):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrSessionNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		} else {
			log.Debug("Request rejected", zap.Int("status", code), zap.Error(err), zap.String("path", c.Path()))
		}

		body := fiber.Map{"error": err.Error()}
		var (
			mce *domain.MissingColumnError
			ce  *domain.ConfigurationError
			rle *domain.RowLimitError
		)
		switch {
		case errors.As(err, &mce):
			body["kind"] = mce.Kind
			body["source"] = mce.Source
			body["column"] = mce.Column
			body["headers"] = mce.Headers
		case errors.As(err, &ce):
			body["field"] = ce.Field
			body["value"] = ce.Value
		case errors.As(err, &rle):
			body["source"] = rle.Source
			body["limit"] = rle.Limit
		}

		return c.Status(code).JSON(body)
	}
}
