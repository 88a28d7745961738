package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Starting values for a fresh account.
const (
	StartingLevel          = 1
	StartingXPForNextLevel = 100
)

// User is the player account together with its denormalized progression counters.
type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Username     string `gorm:"size:50;not null" json:"username"`
	UsernameKey  string `gorm:"size:64;uniqueIndex;not null" json:"-"` // transliterated, lower-cased username
	Email        string `gorm:"size:120;uniqueIndex;not null" json:"email,omitempty"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	AvatarURL    string `gorm:"type:text" json:"avatar_url"`

	// Core progression
	Level          int   `gorm:"column:level;not null;default:1" json:"level"`
	TotalXP        int64 `gorm:"column:total_xp;not null;default:0;index" json:"total_xp"`
	CurrentXP      int64 `gorm:"column:current_xp;not null;default:0" json:"current_xp"`
	XPForNextLevel int64 `gorm:"column:xp_for_next_level;not null;default:100" json:"xp_for_next_level"`

	// Activity counters
	StreakCount              int   `gorm:"column:streak_count;not null;default:0" json:"streak_count"`
	LongestStreak            int   `gorm:"column:longest_streak;not null;default:0" json:"longest_streak"`
	TotalChallengesCompleted int64 `gorm:"column:total_challenges_completed;not null;default:0" json:"total_challenges_completed"`
	TotalBattlesWon          int64 `gorm:"column:total_battles_won;not null;default:0" json:"total_battles_won"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Level == 0 {
		u.Level = StartingLevel
	}
	if u.XPForNextLevel == 0 {
		u.XPForNextLevel = StartingXPForNextLevel
	}
	return nil
}

// PublicUser is the profile shape other players are allowed to see.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Level     int    `json:"level"`
	TotalXP   int64  `json:"total_xp"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL, Level: u.Level, TotalXP: u.TotalXP}
}

// XP sources recorded on the ledger.
const (
	XPSourceBattle    = "battle"
	XPSourceChallenge = "challenge"
	XPSourceQuiz      = "quiz"
	XPSourceManual    = "manual"
)

// XPEvent is one non-zero XP grant. The weekly leaderboard sums these.
type XPEvent struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;not null;index:idx_xp_events_user_time" json:"user_id"`
	Amount     int64     `gorm:"not null" json:"amount"`
	Source     string    `gorm:"size:24;not null;index" json:"source"`
	Reference  string    `gorm:"size:64" json:"reference,omitempty"` // battle/challenge/question id
	LevelAfter int       `gorm:"not null" json:"level_after"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_xp_events_user_time" json:"created_at"`
}

func (e *XPEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
