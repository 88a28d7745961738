package models

import "time"

// LeaderboardEntry is one row of the periodically refreshed global snapshot.
type LeaderboardEntry struct {
	UserID              string    `gorm:"primaryKey;size:36" json:"user_id"`
	Rank                int       `gorm:"column:position;not null;index" json:"rank"`
	Username            string    `gorm:"size:50" json:"username"`
	AvatarURL           string    `gorm:"type:text" json:"avatar_url"`
	Level               int       `json:"level"`
	TotalXP             int64     `gorm:"column:total_xp" json:"total_xp"`
	ChallengesCompleted int64     `json:"challenges_completed"`
	BattlesWon          int64     `json:"battles_won"`
	RefreshedAt         time.Time `json:"refreshed_at"`
}

// RankedUser is a computed leaderboard row.
type RankedUser struct {
	Rank                int    `gorm:"-" json:"rank"`
	ID                  string `gorm:"column:id" json:"id"`
	Username            string `gorm:"column:username" json:"username"`
	AvatarURL           string `gorm:"column:avatar_url" json:"avatar_url"`
	Level               int    `gorm:"column:level" json:"level"`
	TotalXP             int64  `gorm:"column:total_xp" json:"total_xp"`
	ChallengesCompleted int64  `gorm:"column:challenges_completed" json:"total_challenges_completed"`
	BattlesWon          int64  `gorm:"column:battles_won" json:"total_battles_won"`
	WeeklyXP            int64  `gorm:"column:weekly_xp" json:"weekly_xp,omitempty"`
	StreakCount         int    `gorm:"column:streak_count" json:"streak_count,omitempty"`
	Label               string `gorm:"-" json:"label,omitempty"`
}
