package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BadgeThreshold is the stat a badge is earned on. A zero field is not checked.
type BadgeThreshold struct {
	BattlesWon          int64 `json:"battles_won,omitempty"`
	ChallengesCompleted int64 `json:"challenges_completed,omitempty"`
	StreakDays          int   `json:"streak_days,omitempty"`
	Level               int   `json:"level,omitempty"`
	// FastSolves counts completed challenges with best_time under FastSolveSeconds.
	FastSolves       int64 `json:"fast_solves,omitempty"`
	FastSolveSeconds int   `json:"fast_solve_seconds,omitempty"`
}

// BadgeType: static catalog row, seeded at startup
type BadgeType struct {
	ID          string                             `gorm:"primaryKey;size:36" json:"id"`
	Code        string                             `gorm:"size:40;uniqueIndex;not null" json:"code"` // e.g., "FAST_SOLVER"
	Name        string                             `gorm:"size:80;not null" json:"name"`
	Description string                             `gorm:"type:text" json:"description"`
	IconURL     string                             `gorm:"type:text" json:"icon_url"`
	Rarity      string                             `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	Threshold   datatypes.JSONType[BadgeThreshold] `json:"threshold"`
	CreatedAt   time.Time                          `gorm:"autoCreateTime" json:"-"`
}

func (b *BadgeType) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// UserBadge: awarded instance, at most one per user and badge
type UserBadge struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeTypeID string    `gorm:"size:36;not null;uniqueIndex:idx_user_badge" json:"badge_type_id"`
	AwardedAt   time.Time `gorm:"autoCreateTime" json:"awarded_at"`

	BadgeType BadgeType `gorm:"foreignKey:BadgeTypeID" json:"badge"`
}

func (u *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func threshold(t BadgeThreshold) datatypes.JSONType[BadgeThreshold] {
	return datatypes.NewJSONType(t)
}

// DefaultBadges is the built-in catalog.
func DefaultBadges() []BadgeType {
	return []BadgeType{
		{
			Code:        "FAST_SOLVER",
			Name:        "Fast Solver",
			Description: "Complete 5 challenges in under 2 minutes",
			IconURL:     "⚡",
			Rarity:      "rare",
			Threshold:   threshold(BadgeThreshold{FastSolves: 5, FastSolveSeconds: 120}),
		},
		{
			Code:        "STREAK_7",
			Name:        "7-Day Streak",
			Description: "Maintain a 7-day coding streak",
			IconURL:     "🔥",
			Rarity:      "common",
			Threshold:   threshold(BadgeThreshold{StreakDays: 7}),
		},
		{
			Code:        "CODING_BEAST",
			Name:        "Coding Beast",
			Description: "Win 10 battles",
			IconURL:     "🦁",
			Rarity:      "epic",
			Threshold:   threshold(BadgeThreshold{BattlesWon: 10}),
		},
		{
			Code:        "CODE_WIZARD",
			Name:        "Code Wizard",
			Description: "Complete 50 challenges",
			IconURL:     "🧙",
			Rarity:      "legendary",
			Threshold:   threshold(BadgeThreshold{ChallengesCompleted: 50}),
		},
		{
			Code:        "BATTLE_MASTER",
			Name:        "Battle Master",
			Description: "Win 25 battles",
			IconURL:     "⚔️",
			Rarity:      "legendary",
			Threshold:   threshold(BadgeThreshold{BattlesWon: 25}),
		},
		{
			Code:        "FIRST_VICTORY",
			Name:        "First Victory",
			Description: "Win your first battle",
			IconURL:     "🏆",
			Rarity:      "common",
			Threshold:   threshold(BadgeThreshold{BattlesWon: 1}),
		},
	}
}
