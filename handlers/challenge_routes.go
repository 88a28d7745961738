// handlers/challenge_routes.go
package handlers

import (
	"encoding/json"

	"skillsprint/models"
	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
)

type submitChallengeRequest struct {
	UserID      string `json:"user_id" form:"user_id"`
	ChallengeID string `json:"challenge_id" form:"challenge_id"`
	Solution    string `json:"solution" form:"solution"`
	TimeTaken   int    `json:"time_taken" form:"time_taken"`
}

type createChallengeRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Difficulty   string          `json:"difficulty"`
	XPReward     int64           `json:"xp_reward"`
	CodeTemplate string          `json:"code_template"`
	TestCases    json.RawMessage `json:"test_cases"`
	Solution     string          `json:"solution"`
}

func SetupChallengeRoutes(app *fiber.App, challenges *services.ChallengeService) {
	app.Get("/api/challenges", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		switch c.Query("action", "all") {
		case "all":
			list, err := challenges.List(ctx, services.ChallengeFilter{
				Category:   c.Query("category"),
				Difficulty: c.Query("difficulty"),
			})
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "challenges": list})

		case "get":
			ch, err := challenges.Get(ctx, c.Query("id"))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "challenge": ch})

		case "daily":
			list, err := challenges.Daily(ctx)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "daily_challenges": list})

		case "progress":
			userID := actorID(c, c.Query("user_id"))
			if err := requireActor(c, userID); err != nil {
				return respondError(c, err)
			}
			progress, err := challenges.Progress(ctx, userID, c.Query("challenge_id"))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "progress": progress})

		case "completed":
			list, err := challenges.Completed(ctx, actorID(c, c.Query("user_id")))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "completed": list})
		}
		return invalidAction(c)
	})

	app.Post("/api/challenges", func(c *fiber.Ctx) error {
		switch c.Query("action") {
		case "submit":
			var req submitChallengeRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			req.UserID = actorID(c, req.UserID)
			if err := requireActor(c, req.UserID); err != nil {
				return respondError(c, err)
			}
			res, err := challenges.Submit(c.UserContext(), services.ChallengeSubmission{
				UserID:      req.UserID,
				ChallengeID: req.ChallengeID,
				Solution:    req.Solution,
				TimeTaken:   req.TimeTaken,
			})
			if err != nil {
				return respondError(c, err)
			}
			msg := "Challenge completed!"
			if !res.FirstCompletion {
				msg = "Solution accepted (already completed, no XP awarded)"
			}
			return c.JSON(fiber.Map{
				"success":   true,
				"message":   msg,
				"xp_earned": res.XPEarned,
				"result":    res,
			})

		case "create":
			if err := requireService(c); err != nil {
				return respondError(c, err)
			}
			var req createChallengeRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			ch := models.Challenge{
				Title:        req.Title,
				Description:  req.Description,
				Category:     req.Category,
				Difficulty:   req.Difficulty,
				XPReward:     req.XPReward,
				CodeTemplate: req.CodeTemplate,
				TestCases:    []byte(req.TestCases),
				Solution:     req.Solution,
			}
			if len(ch.TestCases) == 0 {
				ch.TestCases = []byte("[]")
			}
			if err := challenges.Create(c.UserContext(), &ch); err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "challenge": ch})
		}
		return invalidAction(c)
	})
}
