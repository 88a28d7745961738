// services/streak.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"skillsprint/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Now is the service clock. Calendar days are UTC.
var Now = func() time.Time { return time.Now().UTC() }

const dayLayout = "2006-01-02"

// StreakMilestones are the streak lengths that send a notification.
var StreakMilestones = []int{3, 7, 14, 30, 50, 100}

type StreakResult struct {
	StreakCount    int      `json:"streak_count"`
	LongestStreak  int      `json:"longest_streak"`
	Extended       bool     `json:"extended"` // false when today was already counted
	BadgesUnlocked []string `json:"badges_unlocked,omitempty"`
}

type StreakService struct {
	DB *gorm.DB
}

func NewStreakService(db *gorm.DB) *StreakService {
	return &StreakService{DB: db}
}

// UpdateStreak counts today for the user. Calling it again on the same day changes nothing.
func (s *StreakService) UpdateStreak(ctx context.Context, userID string) (*StreakResult, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	var out *StreakResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := updateStreakTx(tx, userID, false)
		out = r
		return err
	})
	if err != nil {
		return nil, txError("update streak", err)
	}
	return out, nil
}

func updateStreakTx(tx *gorm.DB, userID string, completedChallenge bool) (*StreakResult, error) {
	user, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	now := Now()
	today := now.Format(dayLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dayLayout)

	day := models.StreakDay{UserID: userID, Date: today, CompletedChallenge: completedChallenge}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&day)
	if res.Error != nil {
		return nil, storageFailure("insert streak day", res.Error)
	}
	if res.RowsAffected == 0 {
		if completedChallenge {
			if err := tx.Model(&models.StreakDay{}).
				Where("user_id = ? AND date = ?", userID, today).
				Update("completed_challenge", true).Error; err != nil {
				return nil, storageFailure("mark streak day", err)
			}
		}
		return &StreakResult{StreakCount: user.StreakCount, LongestStreak: user.LongestStreak}, nil
	}

	var prev int64
	if err := tx.Model(&models.StreakDay{}).Where("user_id = ? AND date = ?", userID, yesterday).Count(&prev).Error; err != nil {
		return nil, storageFailure("check yesterday", err)
	}
	streak := 1
	if prev > 0 {
		streak = user.StreakCount + 1
	}
	longest := user.LongestStreak
	if streak > longest {
		longest = streak
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"streak_count":   streak,
		"longest_streak": longest,
	}).Error; err != nil {
		return nil, storageFailure("save streak", err)
	}
	user.StreakCount = streak
	user.LongestStreak = longest

	for _, m := range StreakMilestones {
		if streak == m {
			if err := notifyTx(tx, userID, models.NotificationStreakMilestone, streakMessage(streak)); err != nil {
				return nil, err
			}
			log.Printf("🔥 [STREAK] %s hit %d days", userID, streak)
		}
	}

	badges, err := awardBadgesTx(tx, user)
	if err != nil {
		return nil, err
	}
	return &StreakResult{StreakCount: streak, LongestStreak: longest, Extended: true, BadgesUnlocked: badges}, nil
}

// Calendar returns the active days of one month.
func (s *StreakService) Calendar(ctx context.Context, userID string, year int, month time.Month) ([]models.StreakDay, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", ErrMissingFields, month)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var days []models.StreakDay
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start.Format(dayLayout), end.Format(dayLayout)).
		Order("date ASC").
		Find(&days).Error
	if err != nil {
		return nil, storageFailure("load calendar", err)
	}
	return days, nil
}
