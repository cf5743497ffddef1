package middleware

import (
	"strings"

	"expense-ingest/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OwnerIDKey is the fiber.Locals key holding the authenticated owner id (int64).
const OwnerIDKey = "ownerID"

func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if token == "" {
			logger.Warn("Missing authorization token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(OwnerIDKey, claims.OwnerID)

		return c.Next()
	}
}
