// handlers/user_routes.go
package handlers

import (
	"skillsprint/middleware"
	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
)

// UserServices groups what the /api/users endpoints call into.
type UserServices struct {
	Auth        *services.AuthService
	Progression *services.ProgressionService
	Streaks     *services.StreakService
	Badges      *services.BadgeService
	Avatars     *services.AvatarService
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type updateXPRequest struct {
	UserID    string `json:"user_id" form:"user_id"`
	XPGained  int64  `json:"xp_gained" form:"xp_gained"`
	Source    string `json:"source" form:"source"`
	Reference string `json:"reference" form:"reference"`
}

type userIDRequest struct {
	UserID  string `json:"user_id" form:"user_id"`
	BadgeID string `json:"badge_id" form:"badge_id"`
}

func SetupUserRoutes(app *fiber.App, svc UserServices) {
	app.Post("/api/users", func(c *fiber.Ctx) error {
		switch c.Query("action") {
		case "register":
			var req services.RegisterInput
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			user, token, err := svc.Auth.Register(c.UserContext(), req)
			if err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"success": true,
				"message": "Registration successful",
				"user_id": user.ID,
				"token":   token,
				"user":    user,
			})

		case "login":
			var req loginRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			identifier := req.Email
			if identifier == "" {
				identifier = req.Username
			}
			user, token, err := svc.Auth.Login(c.UserContext(), identifier, req.Password)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "token": token, "user": user})

		case "update_xp":
			if err := requireService(c); err != nil {
				return respondError(c, err)
			}
			var req updateXPRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			grant, err := svc.Progression.GrantXP(c.UserContext(), req.UserID, req.XPGained, req.Source, req.Reference)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{
				"success":      true,
				"xp_gained":    grant.XPGained,
				"level_up":     grant.LevelUp,
				"new_level":    grant.NewLevel,
				"new_total_xp": grant.NewTotalXP,
				"current_xp":   grant.CurrentXP,
				"xp_for_next":  grant.XPForNextLevel,
			})

		case "update_streak":
			var req userIDRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			req.UserID = actorID(c, req.UserID)
			if err := requireActor(c, req.UserID); err != nil {
				return respondError(c, err)
			}
			res, err := svc.Streaks.UpdateStreak(c.UserContext(), req.UserID)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{
				"success":        true,
				"streak_count":   res.StreakCount,
				"longest_streak": res.LongestStreak,
				"extended":       res.Extended,
			})

		case "unlock_badge":
			var req userIDRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			req.UserID = actorID(c, req.UserID)
			if err := requireActor(c, req.UserID); err != nil {
				return respondError(c, err)
			}
			unlocked, err := svc.Badges.UnlockBadge(c.UserContext(), req.UserID, req.BadgeID)
			if err != nil {
				return respondError(c, err)
			}
			msg := "Badge unlocked"
			if !unlocked {
				msg = "Badge already unlocked"
			}
			return c.JSON(fiber.Map{"success": true, "unlocked": unlocked, "message": msg})
		}
		return invalidAction(c)
	})

	app.Get("/api/users", func(c *fiber.Ctx) error {
		switch c.Query("action") {
		case "profile":
			userID := actorID(c, c.Query("user_id"))
			user, err := svc.Auth.Profile(c.UserContext(), userID)
			if err != nil {
				return respondError(c, err)
			}
			if !middleware.CanActAs(c, userID) {
				return c.JSON(fiber.Map{"success": true, "user": user.Public()})
			}
			return c.JSON(fiber.Map{"success": true, "user": user})

		case "badges":
			list, err := svc.Badges.UserBadges(c.UserContext(), actorID(c, c.Query("user_id")))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "badges": list})
		}
		return invalidAction(c)
	})

	app.Post("/api/users/avatar", middleware.RequireUser(), func(c *fiber.Ctx) error {
		userID := actorID(c, c.FormValue("user_id"))
		if err := requireActor(c, userID); err != nil {
			return respondError(c, err)
		}
		fh, err := c.FormFile("avatar")
		if err != nil {
			return respondError(c, services.ErrMissingFields)
		}
		url, err := svc.Avatars.Upload(c.UserContext(), userID, fh)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "avatar_url": url})
	})
}
