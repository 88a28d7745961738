// services/badge.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"skillsprint/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// BadgeStatus is a catalog badge plus when (if ever) the user unlocked it.
type BadgeStatus struct {
	models.BadgeType
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at"`
}

// UserBadges lists the whole catalog with the user's unlock times.
func (s *BadgeService) UserBadges(ctx context.Context, userID string) ([]BadgeStatus, error) {
	db := s.DB.WithContext(ctx)
	var catalog []models.BadgeType
	if err := db.Order("created_at ASC, code ASC").Find(&catalog).Error; err != nil {
		return nil, storageFailure("list badges", err)
	}
	var owned []models.UserBadge
	if err := db.Where("user_id = ?", userID).Find(&owned).Error; err != nil {
		return nil, storageFailure("list user badges", err)
	}
	awardedAt := make(map[string]time.Time, len(owned))
	for _, ub := range owned {
		awardedAt[ub.BadgeTypeID] = ub.AwardedAt
	}

	out := make([]BadgeStatus, 0, len(catalog))
	for _, bt := range catalog {
		st := BadgeStatus{BadgeType: bt}
		if at, ok := awardedAt[bt.ID]; ok {
			at := at
			st.Unlocked = true
			st.UnlockedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// UnlockBadge awards a badge by id or code. Unlocking an owned badge is a no-op
// and reports false.
func (s *BadgeService) UnlockBadge(ctx context.Context, userID, badge string) (bool, error) {
	if userID == "" || badge == "" {
		return false, ErrMissingFields
	}
	var unlocked bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		var bt models.BadgeType
		if err := tx.Where("id = ? OR code = ?", badge, badge).First(&bt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBadgeNotFound
			}
			return storageFailure("load badge", err)
		}
		var err error
		unlocked, err = awardBadgeTx(tx, userID, bt)
		return err
	})
	if err != nil {
		return false, txError("unlock badge", err)
	}
	return unlocked, nil
}

func awardBadgeTx(tx *gorm.DB, userID string, bt models.BadgeType) (bool, error) {
	ub := models.UserBadge{UserID: userID, BadgeTypeID: bt.ID}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ub)
	if res.Error != nil {
		return false, storageFailure("award badge", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := notifyTx(tx, userID, models.NotificationBadgeUnlock, badgeMessage(bt.Name)); err != nil {
		return false, err
	}
	log.Printf("🎖️ [BADGE] %s → %s", bt.Code, userID)
	return true, nil
}

// awardBadgesTx checks every catalog badge the user does not own yet against the
// counters on user and returns the names of the newly unlocked ones.
func awardBadgesTx(tx *gorm.DB, user *models.User) ([]string, error) {
	var catalog []models.BadgeType
	if err := tx.Find(&catalog).Error; err != nil {
		return nil, storageFailure("load badge catalog", err)
	}
	var ownedIDs []string
	if err := tx.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Pluck("badge_type_id", &ownedIDs).Error; err != nil {
		return nil, storageFailure("load user badges", err)
	}
	owned := make(map[string]bool, len(ownedIDs))
	for _, id := range ownedIDs {
		owned[id] = true
	}

	var unlocked []string
	for _, bt := range catalog {
		if owned[bt.ID] {
			continue
		}
		ok, err := meetsThreshold(tx, user, bt.Threshold.Data())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		awarded, err := awardBadgeTx(tx, user.ID, bt)
		if err != nil {
			return nil, err
		}
		if awarded {
			unlocked = append(unlocked, bt.Name)
		}
	}
	return unlocked, nil
}

func meetsThreshold(tx *gorm.DB, user *models.User, t models.BadgeThreshold) (bool, error) {
	if t == (models.BadgeThreshold{}) {
		return false, nil // manual-only badge
	}
	if t.BattlesWon > 0 && user.TotalBattlesWon < t.BattlesWon {
		return false, nil
	}
	if t.ChallengesCompleted > 0 && user.TotalChallengesCompleted < t.ChallengesCompleted {
		return false, nil
	}
	if t.StreakDays > 0 && user.StreakCount < t.StreakDays {
		return false, nil
	}
	if t.Level > 0 && user.Level < t.Level {
		return false, nil
	}
	if t.FastSolves > 0 {
		var fast int64
		err := tx.Model(&models.UserChallenge{}).
			Where("user_id = ? AND status = ? AND best_time IS NOT NULL AND best_time < ?",
				user.ID, models.UserChallengeCompleted, t.FastSolveSeconds).
			Count(&fast).Error
		if err != nil {
			return false, storageFailure("count fast solves", err)
		}
		if fast < t.FastSolves {
			return false, nil
		}
	}
	return true, nil
}
