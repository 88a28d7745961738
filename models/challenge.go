package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Challenge struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	Slug         string         `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Title        string         `gorm:"size:150;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"size:50;index" json:"category"`
	Difficulty   string         `gorm:"size:16;index" json:"difficulty"` // easy, medium, hard
	XPReward     int64          `gorm:"column:xp_reward;not null;default:100" json:"xp_reward"`
	CodeTemplate string         `gorm:"type:text" json:"code_template"`
	TestCases    datatypes.JSON `json:"test_cases"`
	Solution     string         `gorm:"type:text" json:"-"`
	Timestamps
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.Title) + "-" + c.ID[:8]
	}
	return nil
}

// DailyChallenge marks a challenge as one of the day's picks.
type DailyChallenge struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	ChallengeID  string          `gorm:"size:36;not null;uniqueIndex:idx_daily_day_challenge" json:"challenge_id"`
	DateAssigned string          `gorm:"size:10;not null;uniqueIndex:idx_daily_day_challenge;index" json:"date_assigned"` // YYYY-MM-DD, UTC
	XPMultiplier decimal.Decimal `gorm:"type:decimal(4,2);not null" json:"xp_multiplier"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Challenge Challenge `gorm:"foreignKey:ChallengeID" json:"challenge"`
}

func (d *DailyChallenge) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

const (
	UserChallengeInProgress = "in_progress"
	UserChallengeCompleted  = "completed"
)

// UserChallenge tracks one user's attempts at one challenge.
type UserChallenge struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;not null;uniqueIndex:idx_user_challenge" json:"user_id"`
	ChallengeID string     `gorm:"size:36;not null;uniqueIndex:idx_user_challenge;index" json:"challenge_id"`
	Status      string     `gorm:"size:16;not null;default:'in_progress'" json:"status"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	BestTime    *int       `json:"best_time"` // seconds
	XPEarned    int64      `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	CompletedAt *time.Time `json:"completed_at"`
	Timestamps

	Challenge *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
}

func (u *UserChallenge) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
