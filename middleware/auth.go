// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// Principal is the request-scoped caller: a signed-in user or an internal service.
type Principal struct {
	UserID   string
	Username string
	Service  bool
}

// TokenParser validates a bearer token.
type TokenParser interface {
	ParseToken(raw string) (*services.Claims, error)
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return strings.TrimSpace(token)
}

// Authenticate attaches a Principal when the request carries the service token
// (X-Service-Token or bearer) or a valid user JWT.
// Requests without a token pass through anonymously; an invalid token is rejected.
func Authenticate(parser TokenParser, serviceToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isServiceToken(c.Get("X-Service-Token"), serviceToken) {
			c.Locals(principalKey, Principal{Service: true})
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		if isServiceToken(token, serviceToken) {
			c.Locals(principalKey, Principal{Service: true})
			return c.Next()
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			log.Printf("🚫 [AUTH] invalid token for %s (prefix: %.10s...)", c.Path(), token)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "unauthorized",
				"message": "invalid or expired token",
			})
		}
		c.Locals(principalKey, Principal{UserID: claims.Subject, Username: claims.Username})
		return c.Next()
	}
}

// PrincipalFrom returns the caller attached by Authenticate or SSEAuth.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// CanActAs reports whether the caller may act on behalf of userID.
func CanActAs(c *fiber.Ctx, userID string) bool {
	p, ok := PrincipalFrom(c)
	if !ok {
		return false
	}
	return p.Service || (userID != "" && p.UserID == userID)
}

// RequireUser rejects anonymous requests.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFrom(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "unauthorized",
				"message": "authentication required",
			})
		}
		return c.Next()
	}
}
