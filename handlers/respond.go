// handlers/respond.go
package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"skillsprint/middleware"
	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
)

var (
	errUnauthorized = &services.Error{Code: "unauthorized", Message: "authentication required"}
	errForbidden    = &services.Error{Code: "forbidden", Message: "not allowed to act on behalf of this user"}
	errBadBody      = &services.Error{Code: "invalid_body", Message: "request body could not be parsed"}
)

var statusByCode = map[string]int{
	"invalid_amount":       fiber.StatusBadRequest,
	"invalid_time":         fiber.StatusBadRequest,
	"invalid_answer":       fiber.StatusBadRequest,
	"invalid_file":         fiber.StatusBadRequest,
	"invalid_body":         fiber.StatusBadRequest,
	"missing_fields":       fiber.StatusBadRequest,
	"already_full":         fiber.StatusConflict,
	"not_in_progress":      fiber.StatusConflict,
	"already_submitted":    fiber.StatusConflict,
	"self_join":            fiber.StatusConflict,
	"username_taken":       fiber.StatusConflict,
	"email_taken":          fiber.StatusConflict,
	"player_not_in_battle": fiber.StatusForbidden,
	"forbidden":            fiber.StatusForbidden,
	"invalid_credentials":  fiber.StatusUnauthorized,
	"unauthorized":         fiber.StatusUnauthorized,
	"storage_failure":      fiber.StatusServiceUnavailable,
}

// statusFor maps a domain error code to its HTTP status.
func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	if strings.HasSuffix(code, "_not_found") {
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// respondError writes {"success": false, "error": code, "message": text}.
func respondError(c *fiber.Ctx, err error) error {
	// storage_failure is checked first: a wrapped driver error carries both
	if errors.Is(err, services.ErrStorageFailure) {
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   services.ErrStorageFailure.Code,
			"message": services.ErrStorageFailure.Message,
		})
	}
	var domainErr *services.Error
	if errors.As(err, &domainErr) {
		return c.Status(statusFor(domainErr.Code)).JSON(fiber.Map{
			"success": false,
			"error":   domainErr.Code,
			"message": err.Error(),
		})
	}
	log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal_error",
		"message": "internal server error",
	})
}

func invalidAction(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid action"})
}

// requireActor fails unless the caller is userID or an internal service.
func requireActor(c *fiber.Ctx, userID string) error {
	if _, ok := middleware.PrincipalFrom(c); !ok {
		return errUnauthorized
	}
	if userID == "" {
		return services.ErrMissingFields
	}
	if !middleware.CanActAs(c, userID) {
		return errForbidden
	}
	return nil
}

func requireService(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return errUnauthorized
	}
	if !p.Service {
		return errForbidden
	}
	return nil
}

// actorID is the body's id, falling back to the signed-in user's own id.
func actorID(c *fiber.Ctx, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if p, ok := middleware.PrincipalFrom(c); ok {
		return p.UserID
	}
	return ""
}

func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		return errBadBody
	}
	return nil
}

func queryLimit(c *fiber.Ctx, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
