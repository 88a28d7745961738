// services/progression.go
package services

import (
	"context"
	"errors"
	"log"

	"skillsprint/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPGrant is what a caller learns after XP was applied to a user.
type XPGrant struct {
	UserID         string   `json:"user_id"`
	XPGained       int64    `json:"xp_gained"`
	LevelUp        bool     `json:"level_up"`
	LevelsGained   int      `json:"levels_gained"`
	NewLevel       int      `json:"new_level"`
	NewTotalXP     int64    `json:"new_total_xp"`
	CurrentXP      int64    `json:"current_xp"`
	XPForNextLevel int64    `json:"xp_for_next_level"`
	BadgesUnlocked []string `json:"badges_unlocked,omitempty"`
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// GrantXP applies amount to the user inside one transaction holding the user row lock.
// A zero amount writes no xp event but still runs the badge pass.
func (s *ProgressionService) GrantXP(ctx context.Context, userID string, amount int64, source, reference string) (*XPGrant, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	if source == "" {
		source = models.XPSourceManual
	}

	var grant *XPGrant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := grantXPTx(tx, userID, amount, source, reference)
		grant = g
		return err
	})
	if err != nil {
		return nil, txError("grant xp", err)
	}
	return grant, nil
}

// Progress returns the stored level tuple for a user.
func (s *ProgressionService) Progress(ctx context.Context, userID string) (*LevelState, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageFailure("load progress", err)
	}
	state := levelStateOf(&user)
	return &state, nil
}

// lockUser reads a user row with FOR UPDATE so concurrent grants queue behind each other.
func lockUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageFailure("lock user", err)
	}
	return &user, nil
}

// grantXPTx is the shared grant step. Every XP source calls it inside its own transaction.
func grantXPTx(tx *gorm.DB, userID string, amount int64, source, reference string) (*XPGrant, error) {
	user, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	result, err := ApplyXP(levelStateOf(user), amount)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		// Counters bumped earlier in the transaction may still unlock a badge.
		badges, err := awardBadgesTx(tx, user)
		if err != nil {
			return nil, err
		}
		return newXPGrant(userID, 0, result, badges), nil
	}

	updates := map[string]interface{}{
		"level":             result.Level,
		"total_xp":          result.TotalXP,
		"current_xp":        result.CurrentXP,
		"xp_for_next_level": result.XPForNextLevel,
	}
	if result.LeveledUp() {
		now := tx.NowFunc()
		updates["last_level_up_at"] = now
		user.LastLevelUpAt = &now
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, storageFailure("save progress", err)
	}
	user.Level = result.Level
	user.TotalXP = result.TotalXP
	user.CurrentXP = result.CurrentXP
	user.XPForNextLevel = result.XPForNextLevel

	event := models.XPEvent{
		UserID:     userID,
		Amount:     amount,
		Source:     source,
		Reference:  reference,
		LevelAfter: result.Level,
	}
	if err := tx.Create(&event).Error; err != nil {
		return nil, storageFailure("record xp event", err)
	}

	if result.LeveledUp() {
		if err := notifyTx(tx, userID, models.NotificationLevelUp, levelUpMessage(result.Level, result.TotalXP)); err != nil {
			return nil, err
		}
		log.Printf("🆙 [XP] %s reached level %d (+%d levels, total_xp=%d)", userID, result.Level, result.LevelsGained, result.TotalXP)
	}

	badges, err := awardBadgesTx(tx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("🎮 [XP] %s +%d (%s %s) → lvl=%d current=%d/%d", userID, amount, source, reference,
		result.Level, result.CurrentXP, result.XPForNextLevel)
	return newXPGrant(userID, amount, result, badges), nil
}

func newXPGrant(userID string, amount int64, r LevelResult, badges []string) *XPGrant {
	return &XPGrant{
		UserID:         userID,
		XPGained:       amount,
		LevelUp:        r.LeveledUp(),
		LevelsGained:   r.LevelsGained,
		NewLevel:       r.Level,
		NewTotalXP:     r.TotalXP,
		CurrentXP:      r.CurrentXP,
		XPForNextLevel: r.XPForNextLevel,
		BadgesUnlocked: badges,
	}
}
