// services/challenge_service.go
package services

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"strings"

	"skillsprint/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyMultiplier is the XP multiplier given to the day's picks.
var DailyMultiplier = decimal.RequireFromString("1.5")

type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

type ChallengeFilter struct {
	Category   string
	Difficulty string
}

func (s *ChallengeService) List(ctx context.Context, f ChallengeFilter) ([]models.Challenge, error) {
	q := s.DB.WithContext(ctx)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", strings.ToLower(f.Difficulty))
	}
	var out []models.Challenge
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, storageFailure("list challenges", err)
	}
	return out, nil
}

func (s *ChallengeService) Get(ctx context.Context, id string) (*models.Challenge, error) {
	var c models.Challenge
	if err := s.DB.WithContext(ctx).Where("id = ? OR slug = ?", id, id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, storageFailure("load challenge", err)
	}
	return &c, nil
}

// Create stores a new challenge. The slug is derived from the title when empty.
func (s *ChallengeService) Create(ctx context.Context, c *models.Challenge) error {
	if c.Title == "" {
		return ErrMissingFields
	}
	if c.XPReward < 0 || c.XPReward > MaxGrantXP {
		return ErrInvalidAmount
	}
	c.Difficulty = strings.ToLower(c.Difficulty)
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return storageFailure("create challenge", err)
	}
	return nil
}

// Daily returns today's picks with their multiplier.
func (s *ChallengeService) Daily(ctx context.Context) ([]models.DailyChallenge, error) {
	var out []models.DailyChallenge
	err := s.DB.WithContext(ctx).
		Preload("Challenge").
		Where("date_assigned = ?", Now().Format(dayLayout)).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, storageFailure("load daily challenges", err)
	}
	return out, nil
}

// AssignDaily picks count random challenges for date. A date that already has picks is left alone.
func (s *ChallengeService) AssignDaily(ctx context.Context, date string, count int, multiplier decimal.Decimal) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	assigned := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.DailyChallenge{}).Where("date_assigned = ?", date).Count(&existing).Error; err != nil {
			return storageFailure("check daily challenges", err)
		}
		if existing > 0 {
			return nil
		}

		var ids []string
		if err := tx.Model(&models.Challenge{}).Order("id").Pluck("id", &ids).Error; err != nil {
			return storageFailure("load challenge ids", err)
		}
		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		if len(ids) > count {
			ids = ids[:count]
		}
		if len(ids) == 0 {
			return nil
		}

		picks := make([]models.DailyChallenge, 0, len(ids))
		for _, id := range ids {
			picks = append(picks, models.DailyChallenge{ChallengeID: id, DateAssigned: date, XPMultiplier: multiplier})
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&picks)
		if res.Error != nil {
			return storageFailure("assign daily challenges", res.Error)
		}
		assigned = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, txError("assign daily challenges", err)
	}
	return assigned, nil
}

// Progress returns the user's record for one challenge, or nil if never attempted.
func (s *ChallengeService) Progress(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	var uc models.UserChallenge
	err := s.DB.WithContext(ctx).Where("user_id = ? AND challenge_id = ?", userID, challengeID).First(&uc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageFailure("load challenge progress", err)
	}
	return &uc, nil
}

// Completed lists the user's completed challenges, most recent first.
func (s *ChallengeService) Completed(ctx context.Context, userID string) ([]models.UserChallenge, error) {
	var out []models.UserChallenge
	err := s.DB.WithContext(ctx).
		Preload("Challenge").
		Where("user_id = ? AND status = ?", userID, models.UserChallengeCompleted).
		Order("completed_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, storageFailure("load completed challenges", err)
	}
	return out, nil
}

type ChallengeSubmission struct {
	UserID      string
	ChallengeID string
	Solution    string
	TimeTaken   int // seconds
}

type ChallengeResult struct {
	FirstCompletion bool                 `json:"first_completion"`
	XPEarned        int64                `json:"xp_earned"`
	Multiplier      decimal.Decimal      `json:"multiplier"`
	Progress        models.UserChallenge `json:"progress"`
	Grant           *XPGrant             `json:"grant,omitempty"`
	Streak          *StreakResult        `json:"streak,omitempty"`
	// BadgesUnlocked is set on repeat submissions; first completions report badges on Grant.
	BadgesUnlocked  []string             `json:"badges_unlocked,omitempty"`
}

// Submit records an accepted solution. Only the first completion pays XP and counts
// toward the streak; later ones update attempts and best time.
func (s *ChallengeService) Submit(ctx context.Context, sub ChallengeSubmission) (*ChallengeResult, error) {
	if sub.UserID == "" || sub.ChallengeID == "" || strings.TrimSpace(sub.Solution) == "" {
		return nil, ErrMissingFields
	}
	if sub.TimeTaken <= 0 {
		return nil, ErrInvalidTime
	}

	var out *ChallengeResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, sub.UserID)
		if err != nil {
			return err
		}
		var challenge models.Challenge
		if err := tx.Where("id = ?", sub.ChallengeID).First(&challenge).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return storageFailure("load challenge", err)
		}

		var uc models.UserChallenge
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND challenge_id = ?", sub.UserID, sub.ChallengeID).
			First(&uc).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			uc = models.UserChallenge{UserID: sub.UserID, ChallengeID: sub.ChallengeID, Status: models.UserChallengeInProgress}
			if err := tx.Create(&uc).Error; err != nil {
				return storageFailure("create challenge progress", err)
			}
		case err != nil:
			return storageFailure("lock challenge progress", err)
		}

		uc.Attempts++
		if uc.BestTime == nil || sub.TimeTaken < *uc.BestTime {
			t := sub.TimeTaken
			uc.BestTime = &t
		}
		out = &ChallengeResult{Multiplier: decimal.NewFromInt(1)}

		if uc.Status == models.UserChallengeCompleted {
			if err := tx.Model(&uc).Updates(map[string]interface{}{"attempts": uc.Attempts, "best_time": uc.BestTime}).Error; err != nil {
				return storageFailure("save challenge progress", err)
			}
			out.Progress = uc
			// A lower best time can complete the fast solve count.
			badges, err := awardBadgesTx(tx, user)
			if err != nil {
				return err
			}
			out.BadgesUnlocked = badges
			return nil
		}

		multiplier, err := dailyMultiplierTx(tx, challenge.ID)
		if err != nil {
			return err
		}
		xp := decimal.NewFromInt(challenge.XPReward).Mul(multiplier).Floor().IntPart()
		if xp > MaxGrantXP {
			xp = MaxGrantXP
		}

		now := tx.NowFunc()
		uc.Status = models.UserChallengeCompleted
		uc.XPEarned = xp
		uc.CompletedAt = &now
		if err := tx.Model(&uc).Updates(map[string]interface{}{
			"status":       uc.Status,
			"attempts":     uc.Attempts,
			"best_time":    uc.BestTime,
			"xp_earned":    uc.XPEarned,
			"completed_at": now,
		}).Error; err != nil {
			return storageFailure("save challenge progress", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", sub.UserID).
			UpdateColumn("total_challenges_completed", gorm.Expr("total_challenges_completed + ?", 1)).Error; err != nil {
			return storageFailure("count challenge completion", err)
		}

		grant, err := grantXPTx(tx, sub.UserID, xp, models.XPSourceChallenge, challenge.ID)
		if err != nil {
			return err
		}
		streak, err := updateStreakTx(tx, sub.UserID, true)
		if err != nil {
			return err
		}

		out.FirstCompletion = true
		out.XPEarned = xp
		out.Multiplier = multiplier
		out.Progress = uc
		out.Grant = grant
		out.Streak = streak
		log.Printf("✅ [CHALLENGE] %s completed %s in %ds (+%d XP, x%s)", sub.UserID, challenge.ID, sub.TimeTaken, xp, multiplier)
		return nil
	})
	if err != nil {
		return nil, txError("submit challenge", err)
	}
	return out, nil
}

// dailyMultiplierTx is today's multiplier for the challenge, or 1.
func dailyMultiplierTx(tx *gorm.DB, challengeID string) (decimal.Decimal, error) {
	var daily models.DailyChallenge
	err := tx.Where("challenge_id = ? AND date_assigned = ?", challengeID, Now().Format(dayLayout)).First(&daily).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.NewFromInt(1), nil
	}
	if err != nil {
		return decimal.Zero, storageFailure("load daily multiplier", err)
	}
	return daily.XPMultiplier, nil
}
