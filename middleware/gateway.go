// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
)

func isServiceToken(token, expected string) bool {
	return expected != "" && subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

// RequireService only lets internal callers through. It also works on routes
// mounted without Authenticate by checking X-Service-Token itself.
func RequireService(serviceToken string) fiber.Handler {
	if serviceToken == "" {
		log.Fatal("❌ SERVICE_TOKEN is not set, internal endpoints cannot authenticate callers")
	}

	return func(c *fiber.Ctx) error {
		if p, ok := PrincipalFrom(c); ok && p.Service {
			return c.Next()
		}
		if isServiceToken(c.Get("X-Service-Token"), serviceToken) {
			c.Locals(principalKey, Principal{Service: true})
			return c.Next()
		}
		log.Printf("❌ [SERVICE_AUTH] rejected internal call to %s", c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "forbidden",
			"message": "internal endpoint",
		})
	}
}
