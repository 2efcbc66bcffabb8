package handlers

import (
	"errors"
	"log"
	"strings"

	"sweetshop/internal/services"
	"sweetshop/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service or validation failure onto the HTTP error
// taxonomy. Unexpected errors are logged and reported without detail.
func respondError(c *fiber.Ctx, action string, err error) error {
	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fieldErrs,
		})
	case errors.Is(err, services.ErrNotFound):
		return message(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrInsufficientStock):
		return message(c, fiber.StatusBadRequest, "Insufficient stock")
	case errors.Is(err, services.ErrInvalidArgument):
		return message(c, fiber.StatusBadRequest, capitalize(strings.TrimPrefix(err.Error(), services.ErrInvalidArgument.Error()+": ")))
	case errors.Is(err, services.ErrEmptySearch):
		return message(c, fiber.StatusBadRequest, "Please provide at least one search filter")
	case errors.Is(err, services.ErrEmailTaken):
		return message(c, fiber.StatusBadRequest, "Email already in use")
	case errors.Is(err, services.ErrInvalidCredentials):
		return message(c, fiber.StatusBadRequest, "Invalid credentials")
	default:
		log.Printf("Error %s: %v", action, err)
		return message(c, fiber.StatusInternalServerError, "Server error")
	}
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
