package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// RequestContext derives every request's user context from base, so that
// cancelling base stops in-flight handlers at their next context check.
func RequestContext(base context.Context) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(base)
		defer cancel()

		c.SetUserContext(ctx)
		return c.Next()
	}
}
