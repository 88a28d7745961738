// services/leveling.go
package services

import (
	"math"

	"skillsprint/models"
)

const (
	// LevelStep is added to the threshold on every level-up.
	LevelStep int64 = 50
	// BaseXPForNextLevel is the level 1 → 2 threshold.
	BaseXPForNextLevel int64 = models.StartingXPForNextLevel
	// MaxGrantXP caps a single grant. It keeps the level loop short under the row lock.
	MaxGrantXP int64 = 1_000_000
)

const (
	// BattleXPReward is paid to the winner of a resolved battle.
	BattleXPReward int64 = 150
	// QuizCorrectXP is paid for each correct quiz answer.
	QuizCorrectXP int64 = 50
)

// LevelState is the progression tuple stored on every user.
type LevelState struct {
	Level          int   `json:"level"`
	TotalXP        int64 `json:"total_xp"`
	CurrentXP      int64 `json:"current_xp"`
	XPForNextLevel int64 `json:"xp_for_next_level"`
}

// LevelResult is the state after a grant and how many levels it crossed.
type LevelResult struct {
	LevelState
	LevelsGained int `json:"levels_gained"`
}

func (r LevelResult) LeveledUp() bool { return r.LevelsGained > 0 }

// ApplyXP adds amount to both XP counters and then levels up as many times as the
// carry-over allows. Afterwards CurrentXP < XPForNextLevel.
// Amounts above MaxGrantXP, or that would overflow TotalXP, are rejected.
func ApplyXP(state LevelState, amount int64) (LevelResult, error) {
	if amount < 0 || amount > MaxGrantXP || amount > math.MaxInt64-state.TotalXP {
		return LevelResult{LevelState: state}, ErrInvalidAmount
	}
	if state.XPForNextLevel <= 0 {
		return LevelResult{LevelState: state}, ErrCorruptProgress
	}

	next := state
	next.TotalXP += amount
	next.CurrentXP += amount

	gained := 0
	for next.CurrentXP >= next.XPForNextLevel {
		next.CurrentXP -= next.XPForNextLevel
		next.Level++
		next.XPForNextLevel += LevelStep
		gained++
	}
	return LevelResult{LevelState: next, LevelsGained: gained}, nil
}

func levelStateOf(u *models.User) LevelState {
	return LevelState{
		Level:          u.Level,
		TotalXP:        u.TotalXP,
		CurrentXP:      u.CurrentXP,
		XPForNextLevel: u.XPForNextLevel,
	}
}
