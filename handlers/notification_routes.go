// handlers/notification_routes.go
package handlers

import (
	"skillsprint/middleware"
	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
)

type createNotificationRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func SetupNotificationRoutes(app *fiber.App, notifications *services.NotificationService, auth middleware.TokenParser, serviceToken string) {
	// Registered before the list route so "stream" is never read as a list query.
	app.Get("/api/notifications/stream", middleware.SSEAuth(auth), func(c *fiber.Ctx) error {
		p, _ := middleware.PrincipalFrom(c)
		return notifications.Stream(c, p.UserID)
	})

	app.Get("/api/notifications", middleware.RequireUser(), func(c *fiber.Ctx) error {
		userID := actorID(c, c.Query("user_id"))
		if err := requireActor(c, userID); err != nil {
			return respondError(c, err)
		}
		list, err := notifications.List(c.UserContext(), userID, queryLimit(c, 20), c.QueryBool("unread"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "notifications": list})
	})

	app.Post("/api/notifications", middleware.RequireService(serviceToken), func(c *fiber.Ctx) error {
		var req createNotificationRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		n, err := notifications.Create(c.UserContext(), req.UserID, req.Type, req.Message)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "notification": n})
	})

	app.Post("/api/notifications/:id/read", middleware.RequireUser(), func(c *fiber.Ctx) error {
		p, _ := middleware.PrincipalFrom(c)
		userID := p.UserID
		if p.Service {
			userID = c.Query("user_id")
		}
		if err := notifications.MarkRead(c.UserContext(), userID, c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	})
}
