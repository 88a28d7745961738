// handlers/quiz_routes.go
package handlers

import (
	"skillsprint/models"
	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
)

type submitQuizRequest struct {
	UserID     string `json:"user_id" form:"user_id"`
	QuestionID string `json:"question_id" form:"question_id"`
	Answer     string `json:"answer" form:"answer"`
}

type createQuestionRequest struct {
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
	Explanation   string `json:"explanation"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
}

func SetupQuizRoutes(app *fiber.App, quiz *services.QuizService) {
	app.Get("/api/quiz", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		switch c.Query("action") {
		case "random":
			q, err := quiz.Random(ctx, services.QuizFilter{
				Category:   c.Query("category"),
				Difficulty: c.Query("difficulty"),
			})
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "question": q})

		case "categories":
			list, err := quiz.Categories(ctx)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "categories": list})

		case "by_category":
			list, err := quiz.ByCategory(ctx, c.Query("category"), queryLimit(c, 10))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "questions": list})

		case "stats":
			stats, err := quiz.Stats(ctx, actorID(c, c.Query("user_id")))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "stats": stats})
		}
		return invalidAction(c)
	})

	app.Post("/api/quiz", func(c *fiber.Ctx) error {
		switch c.Query("action") {
		case "submit":
			var req submitQuizRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			req.UserID = actorID(c, req.UserID)
			if err := requireActor(c, req.UserID); err != nil {
				return respondError(c, err)
			}
			res, err := quiz.Submit(c.UserContext(), req.UserID, req.QuestionID, req.Answer)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{
				"success":        true,
				"is_correct":     res.IsCorrect,
				"correct_answer": res.CorrectAnswer,
				"explanation":    res.Explanation,
				"xp_earned":      res.XPEarned,
				"grant":          res.Grant,
			})

		case "create":
			if err := requireService(c); err != nil {
				return respondError(c, err)
			}
			var req createQuestionRequest
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
			q := models.QuizQuestion{
				Question:      req.Question,
				OptionA:       req.OptionA,
				OptionB:       req.OptionB,
				OptionC:       req.OptionC,
				OptionD:       req.OptionD,
				CorrectOption: req.CorrectOption,
				Explanation:   req.Explanation,
				Category:      req.Category,
				Difficulty:    req.Difficulty,
			}
			if err := quiz.Create(c.UserContext(), &q); err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "question_id": q.ID})
		}
		return invalidAction(c)
	})
}
