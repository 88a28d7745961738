package models

import "time"

// StreakDay is one active day in a user's streak calendar.
type StreakDay struct {
	ID                 uint      `gorm:"primaryKey" json:"-"`
	UserID             string    `gorm:"size:36;not null;uniqueIndex:idx_streak_user_date" json:"-"`
	Date               string    `gorm:"size:10;not null;uniqueIndex:idx_streak_user_date" json:"date"` // YYYY-MM-DD, UTC
	CompletedChallenge bool      `gorm:"not null;default:false" json:"completed_challenge"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"-"`
}

func (StreakDay) TableName() string { return "streak_calendar" }
