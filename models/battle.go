package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BattleStatus string

const (
	BattleStatusWaiting    BattleStatus = "waiting"
	BattleStatusInProgress BattleStatus = "in_progress"
	BattleStatusCompleted  BattleStatus = "completed"
)

// Battle is a two-player timed race on one challenge. Lower time wins.
type Battle struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	Player1ID   string       `gorm:"column:player1_id;size:36;not null;index" json:"player1_id"`
	Player2ID   *string      `gorm:"column:player2_id;size:36;index" json:"player2_id"`
	ChallengeID string       `gorm:"column:challenge_id;size:36;not null;index" json:"challenge_id"`
	Status      BattleStatus `gorm:"size:16;not null;default:'waiting';index" json:"status"`

	Player1Time        *int       `gorm:"column:player1_time" json:"player1_time"`
	Player2Time        *int       `gorm:"column:player2_time" json:"player2_time"`
	Player1SubmittedAt *time.Time `gorm:"column:player1_submitted_at" json:"-"`
	Player2SubmittedAt *time.Time `gorm:"column:player2_submitted_at" json:"-"`

	WinnerID    *string    `gorm:"column:winner_id;size:36;index" json:"winner_id"`
	XPReward    int        `gorm:"column:xp_reward;not null;default:0" json:"xp_reward"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

func (b *Battle) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Slot returns 1 or 2 for a participant and 0 for anyone else.
func (b *Battle) Slot(playerID string) int {
	switch {
	case playerID == "":
		return 0
	case playerID == b.Player1ID:
		return 1
	case b.Player2ID != nil && playerID == *b.Player2ID:
		return 2
	}
	return 0
}

// BothSubmitted reports whether both elapsed times are recorded.
func (b *Battle) BothSubmitted() bool {
	return b.Player1Time != nil && b.Player2Time != nil
}
