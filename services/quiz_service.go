// services/quiz_service.go
package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"skillsprint/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuizService struct {
	DB *gorm.DB
}

func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{DB: db}
}

type QuizFilter struct {
	Category   string
	Difficulty string
}

func (f QuizFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", strings.ToLower(f.Difficulty))
	}
	return q
}

// Random picks one question matching the filter. The correct option is never serialized.
func (s *QuizService) Random(ctx context.Context, f QuizFilter) (*models.QuizQuestion, error) {
	db := s.DB.WithContext(ctx)
	var total int64
	if err := f.apply(db.Model(&models.QuizQuestion{})).Count(&total).Error; err != nil {
		return nil, storageFailure("count questions", err)
	}
	if total == 0 {
		return nil, ErrQuestionNotFound
	}
	var q models.QuizQuestion
	if err := f.apply(db).Order("id").Offset(rand.IntN(int(total))).Limit(1).Find(&q).Error; err != nil {
		return nil, storageFailure("pick question", err)
	}
	if q.ID == "" {
		return nil, ErrQuestionNotFound
	}
	return &q, nil
}

type QuizCategory struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

func (s *QuizService) Categories(ctx context.Context) ([]QuizCategory, error) {
	var out []QuizCategory
	err := s.DB.WithContext(ctx).Model(&models.QuizQuestion{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category").
		Scan(&out).Error
	if err != nil {
		return nil, storageFailure("list quiz categories", err)
	}
	return out, nil
}

func (s *QuizService) ByCategory(ctx context.Context, category string, limit int) ([]models.QuizQuestion, error) {
	if category == "" {
		return nil, ErrMissingFields
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out []models.QuizQuestion
	if err := s.DB.WithContext(ctx).Where("category = ?", category).Order("created_at").Limit(limit).Find(&out).Error; err != nil {
		return nil, storageFailure("list questions", err)
	}
	return out, nil
}

func (s *QuizService) Create(ctx context.Context, q *models.QuizQuestion) error {
	q.CorrectOption = strings.ToUpper(strings.TrimSpace(q.CorrectOption))
	if q.Question == "" || q.OptionA == "" || q.OptionB == "" {
		return ErrMissingFields
	}
	if !validOption(q.CorrectOption) {
		return ErrInvalidAnswer
	}
	q.Difficulty = strings.ToLower(q.Difficulty)
	if err := s.DB.WithContext(ctx).Create(q).Error; err != nil {
		return storageFailure("create question", err)
	}
	return nil
}

type QuizResult struct {
	IsCorrect     bool     `json:"is_correct"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	XPEarned      int64    `json:"xp_earned"`
	Grant         *XPGrant `json:"grant,omitempty"`
}

// Submit records an answer and grants QuizCorrectXP when it is right.
func (s *QuizService) Submit(ctx context.Context, userID, questionID, answer string) (*QuizResult, error) {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if userID == "" || questionID == "" || answer == "" {
		return nil, ErrMissingFields
	}
	if !validOption(answer) {
		return nil, ErrInvalidAnswer
	}

	var out *QuizResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		var q models.QuizQuestion
		if err := tx.Where("id = ?", questionID).First(&q).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionNotFound
			}
			return storageFailure("load question", err)
		}

		correct := answer == q.CorrectOption
		var xp int64
		if correct {
			xp = QuizCorrectXP
		}
		attempt := models.QuizAttempt{UserID: userID, QuestionID: q.ID, SelectedOption: answer, IsCorrect: correct, XPEarned: xp}
		if err := tx.Create(&attempt).Error; err != nil {
			return storageFailure("record quiz attempt", err)
		}

		out = &QuizResult{IsCorrect: correct, CorrectAnswer: q.CorrectOption, Explanation: q.Explanation, XPEarned: xp}
		if !correct {
			return nil
		}
		grant, err := grantXPTx(tx, userID, xp, models.XPSourceQuiz, q.ID)
		if err != nil {
			return err
		}
		out.Grant = grant
		return nil
	})
	if err != nil {
		return nil, txError("submit quiz answer", err)
	}
	return out, nil
}

type QuizStats struct {
	TotalAttempts  int64           `json:"total_attempts"`
	CorrectAnswers int64           `json:"correct_answers"`
	Accuracy       decimal.Decimal `json:"accuracy"` // percent, one decimal place
	TotalXPEarned  int64           `json:"total_xp_earned"`
}

func (s *QuizService) Stats(ctx context.Context, userID string) (*QuizStats, error) {
	var row struct {
		Total   int64
		Correct int64
		XP      int64
	}
	err := s.DB.WithContext(ctx).Model(&models.QuizAttempt{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct,
			COALESCE(SUM(xp_earned), 0) AS xp`).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, storageFailure("load quiz stats", err)
	}
	stats := &QuizStats{TotalAttempts: row.Total, CorrectAnswers: row.Correct, TotalXPEarned: row.XP, Accuracy: decimal.Zero}
	if row.Total > 0 {
		stats.Accuracy = decimal.NewFromInt(row.Correct).Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(row.Total)).Round(1)
	}
	return stats, nil
}

func validOption(o string) bool {
	switch o {
	case "A", "B", "C", "D":
		return true
	}
	return false
}
