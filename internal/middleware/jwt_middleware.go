package middleware

import (
	"strings"

	"catalogo/internal/services"
	"catalogo/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired rejects requests without a valid bearer token and stores the
// token claims in the request locals.
func AuthRequired(authService *services.AuthService, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return unauthorized(c, "Authorization header is required")
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("rejected bearer token")
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals("user_id", claims["user_id"])
		c.Locals("username", claims["username"])
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
	})
}
