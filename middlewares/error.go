package middlewares

import (
	"errors"
	"log"

	"montoit-backend/signature"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			// fe.Field() is struct field name; you can map to json tag if you prefer
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Signature workflow errors
	switch {
	case errors.Is(err, signature.ErrMandateNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "mandate not found"})
	case errors.Is(err, signature.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "not a signing party of this mandate"})
	case errors.Is(err, signature.ErrOTPRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": signature.ErrOTPRequired.Error()})
	}
	var rejected *signature.RejectedError
	if errors.As(err, &rejected) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "certified signature rejected",
			"code":    rejected.Code,
			"detail":  rejected.Message,
		})
	}
	var storage *signature.StorageError
	if errors.As(err, &storage) {
		log.Printf("storage error: %v", storage)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "persistence unavailable, nothing was signed"})
	}
	var provider *signature.ProviderError
	if errors.As(err, &provider) {
		// Fallback disabled by configuration and provider unreachable.
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "certified signature provider unavailable"})
	}

	// 4) Unknown errors (500)
	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
