package middleware

import (
	"log"
	"strings"

	"sweetshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Keys under which the authenticated identity is stored in Fiber locals.
const (
	LocalUserID  = "user_id"
	LocalIsAdmin = "is_admin"
)

// TokenValidator is the part of AuthService the gate depends on.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, no token",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, invalid token",
			})
		}

		c.Locals(LocalUserID, claims.ID)
		c.Locals(LocalIsAdmin, claims.IsAdmin)
		return c.Next()
	}
}

// AdminOnly rejects requests whose token does not carry the admin flag. It
// must run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin, _ := c.Locals(LocalIsAdmin).(bool); !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin only",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated account id, or "" before AuthRequired ran.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
