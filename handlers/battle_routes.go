// handlers/battle_routes.go
package handlers

import (
	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
)

type createBattleRequest struct {
	Player1ID   string `json:"player1_id" form:"player1_id"`
	ChallengeID string `json:"challenge_id" form:"challenge_id"`
}

type joinBattleRequest struct {
	BattleID  string `json:"battle_id" form:"battle_id"`
	Player2ID string `json:"player2_id" form:"player2_id"`
}

type submitTimeRequest struct {
	BattleID  string `json:"battle_id" form:"battle_id"`
	PlayerID  string `json:"player_id" form:"player_id"`
	TimeTaken int    `json:"time_taken" form:"time_taken"`
}

func SetupBattleRoutes(app *fiber.App, battles *services.BattleService) {
	app.Post("/api/battles", func(c *fiber.Ctx) error {
		switch c.Query("action") {
		case "create":
			var req createBattleRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			req.Player1ID = actorID(c, req.Player1ID)
			if err := requireActor(c, req.Player1ID); err != nil {
				return respondError(c, err)
			}
			battle, err := battles.Create(c.UserContext(), req.Player1ID, req.ChallengeID)
			if err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"success":   true,
				"battle_id": battle.ID,
				"battle":    battle,
			})

		case "join":
			var req joinBattleRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			req.Player2ID = actorID(c, req.Player2ID)
			if err := requireActor(c, req.Player2ID); err != nil {
				return respondError(c, err)
			}
			if err := battles.Join(c.UserContext(), req.BattleID, req.Player2ID); err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "message": "Joined battle successfully"})

		case "submit":
			var req submitTimeRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			req.PlayerID = actorID(c, req.PlayerID)
			if err := requireActor(c, req.PlayerID); err != nil {
				return respondError(c, err)
			}
			res, err := battles.SubmitTime(c.UserContext(), req.BattleID, req.PlayerID, req.TimeTaken)
			if err != nil {
				return respondError(c, err)
			}
			if !res.Completed {
				return c.JSON(fiber.Map{
					"success": true,
					"message": "Time recorded, waiting for opponent",
					"battle":  res.Battle,
				})
			}
			return c.JSON(fiber.Map{
				"success":   true,
				"message":   "Battle completed",
				"winner_id": res.WinnerID,
				"xp_reward": services.BattleXPReward,
				"battle":    res.Battle,
				"grant":     res.Grant,
			})
		}
		return invalidAction(c)
	})

	app.Get("/api/battles", func(c *fiber.Ctx) error {
		switch c.Query("action") {
		case "get":
			view, err := battles.Get(c.UserContext(), c.Query("id"))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "battle": view})

		case "available":
			list, err := battles.Available(c.UserContext(), queryLimit(c, 20))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "battles": list})

		case "history":
			list, err := battles.History(c.UserContext(), actorID(c, c.Query("user_id")))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "history": list})
		}
		return invalidAction(c)
	})
}
