// handlers/leaderboard_routes.go
package handlers

import (
	"skillsprint/middleware"
	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, lb *services.LeaderboardService, serviceToken string) {
	app.Get("/api/leaderboard", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		limit := queryLimit(c, 50)
		switch c.Query("action", "global") {
		case "global":
			rows, err := lb.Global(ctx, limit)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "leaderboard": rows})

		case "weekly":
			rows, err := lb.Weekly(ctx, limit)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "leaderboard": rows})

		case "user_rank":
			rank, err := lb.UserRank(ctx, actorID(c, c.Query("user_id")))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "rank": rank.Rank, "user_rank": rank})

		case "friends":
			rows, err := lb.Friends(ctx, actorID(c, c.Query("user_id")), limit)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "leaderboard": rows})

		case "top_challengers":
			rows, err := lb.TopChallengers(ctx, limit)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "leaderboard": rows})

		case "top_winners":
			rows, err := lb.TopWinners(ctx, limit)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "leaderboard": rows})

		case "snapshot":
			rows, err := lb.Snapshot(ctx, limit)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "leaderboard": rows})
		}
		return invalidAction(c)
	})

	app.Post("/api/leaderboard/refresh", middleware.RequireService(serviceToken), func(c *fiber.Ctx) error {
		n, err := lb.RefreshSnapshot(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "entries": n})
	})
}
