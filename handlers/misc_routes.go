// handlers/misc_routes.go
package handlers

import (
	"time"

	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type calculateXPRequest struct {
	UserID    string `json:"user_id" form:"user_id"`
	BaseXP    int64  `json:"base_xp" form:"base_xp"`
	BonusType string `json:"bonus_type" form:"bonus_type"`
}

func SetupStreakRoutes(app *fiber.App, streaks *services.StreakService) {
	app.Get("/api/streak/calendar", func(c *fiber.Ctx) error {
		userID := actorID(c, c.Query("user_id"))
		if err := requireActor(c, userID); err != nil {
			return respondError(c, err)
		}
		now := services.Now()
		month := c.QueryInt("month", int(now.Month()))
		year := c.QueryInt("year", now.Year())
		days, err := streaks.Calendar(c.UserContext(), userID, year, time.Month(month))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "year": year, "month": month, "days": days})
	})
}

func SetupXPRoutes(app *fiber.App, bonus *services.BonusService) {
	app.Post("/api/xp/calculate", func(c *fiber.Ctx) error {
		var req calculateXPRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		req.UserID = actorID(c, req.UserID)
		if err := requireActor(c, req.UserID); err != nil {
			return respondError(c, err)
		}
		res, err := bonus.Calculate(c.UserContext(), req.UserID, req.BaseXP, req.BonusType)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "result": res})
	})
}

func SetupHealthRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "database": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})
}
