// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuth authenticates an EventSource request from the `token` query parameter,
// since browsers cannot set headers on EventSource.
//
// Usage:
//
//	app.Get("/api/notifications/stream", middleware.SSEAuth(authSvc), handler)
func SSEAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			token = bearerToken(c)
		}
		if token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "missing_fields",
				"message": "missing token in query",
			})
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			log.Printf("[SSEAuth] ❌ validation failed for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "unauthorized",
				"message": "Unauthorized",
			})
		}

		c.Locals(principalKey, Principal{UserID: claims.Subject, Username: claims.Username})
		log.Printf("[SSEAuth] ✅ authenticated user %s", claims.Subject)
		return c.Next()
	}
}
