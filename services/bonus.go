// services/bonus.go
package services

import (
	"context"
	"errors"

	"skillsprint/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BonusStreak = "streak_bonus"
	BonusLevel  = "level_bonus"
	BonusDaily  = "daily_multiplier"
)

var fivePercent = decimal.RequireFromString("0.05")

type BonusResult struct {
	BaseXP     int64           `json:"base_xp"`
	BonusType  string          `json:"bonus_type"`
	Multiplier decimal.Decimal `json:"multiplier"`
	TotalXP    int64           `json:"total_xp"`
}

type BonusService struct {
	DB *gorm.DB
}

func NewBonusService(db *gorm.DB) *BonusService {
	return &BonusService{DB: db}
}

// Calculate previews the XP a base amount is worth for the user. Nothing is granted.
func (s *BonusService) Calculate(ctx context.Context, userID string, base int64, bonusType string) (*BonusResult, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	if base < 0 {
		return nil, ErrInvalidAmount
	}
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageFailure("load user", err)
	}

	multiplier := decimal.NewFromInt(1)
	switch bonusType {
	case BonusStreak:
		multiplier = multiplier.Add(fivePercent.Mul(decimal.NewFromInt(int64(user.StreakCount))))
	case BonusLevel:
		if user.Level > 1 {
			multiplier = multiplier.Add(fivePercent.Mul(decimal.NewFromInt(int64(user.Level - 1))))
		}
	case BonusDaily:
		var daily models.DailyChallenge
		err := s.DB.WithContext(ctx).Where("date_assigned = ?", Now().Format(dayLayout)).
			Order("xp_multiplier DESC").First(&daily).Error
		switch {
		case err == nil:
			multiplier = daily.XPMultiplier
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, storageFailure("load daily multiplier", err)
		}
	}

	total := decimal.NewFromInt(base).Mul(multiplier).Floor().IntPart()
	return &BonusResult{BaseXP: base, BonusType: bonusType, Multiplier: multiplier, TotalXP: total}, nil
}
