package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"inmuebles_console/internal/gate"
	"inmuebles_console/pkg/utils/jwt"
)

// AuthMiddleware validates the bearer token and stores the claims in locals.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := jwt.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

// RequireAuthorized blocks dashboard routes until the access gate has let
// the session through.
func RequireAuthorized(g *gate.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !g.Authorized() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied",
			})
		}
		return c.Next()
	}
}
