// services/battle_service.go
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

// TieBreak decides who wins when both elapsed times are equal.
type TieBreak string

const (
	// TieBreakFirstSubmission gives the win to whoever submitted first.
	TieBreakFirstSubmission TieBreak = "first_submission"
	// TieBreakPlayer2 always favours player 2.
	TieBreakPlayer2 TieBreak = "player2"
)

type BattleService struct {
	DB       *gorm.DB
	TieBreak TieBreak
}

func NewBattleService(db *gorm.DB, tieBreak TieBreak) *BattleService {
	if tieBreak == "" {
		tieBreak = TieBreakFirstSubmission
	}
	return &BattleService{DB: db, TieBreak: tieBreak}
}

// SubmitResult reports either a recorded time or a finished battle.
type SubmitResult struct {
	Completed bool          `json:"completed"`
	WinnerID  string        `json:"winner_id,omitempty"`
	Battle    models.Battle `json:"battle"`
	Grant     *XPGrant      `json:"grant,omitempty"`
}

// Create opens a battle in the waiting state.
func (s *BattleService) Create(ctx context.Context, player1ID, challengeID string) (*models.Battle, error) {
	if player1ID == "" || challengeID == "" {
		return nil, ErrMissingFields
	}
	battle := models.Battle{
		Player1ID:   player1ID,
		ChallengeID: challengeID,
		Status:      models.BattleStatusWaiting,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.User{}, player1ID, ErrUserNotFound); err != nil {
			return err
		}
		if err := mustExist(tx, &models.Challenge{}, challengeID, ErrChallengeNotFound); err != nil {
			return err
		}
		if err := tx.Create(&battle).Error; err != nil {
			return storageFailure("create battle", err)
		}
		return nil
	})
	if err != nil {
		return nil, txError("create battle", err)
	}
	log.Printf("⚔️ [BATTLE] %s created by %s (challenge %s)", battle.ID, player1ID, challengeID)
	return &battle, nil
}

// Join claims the empty player 2 slot. The claim is a single conditional UPDATE so
// exactly one of several concurrent joiners wins.
func (s *BattleService) Join(ctx context.Context, battleID, player2ID string) error {
	if battleID == "" || player2ID == "" {
		return ErrMissingFields
	}
	db := s.DB.WithContext(ctx)
	if err := mustExist(db, &models.User{}, player2ID, ErrUserNotFound); err != nil {
		return err
	}

	res := db.Model(&models.Battle{}).
		Where("id = ? AND player2_id IS NULL AND status = ? AND player1_id <> ?",
			battleID, models.BattleStatusWaiting, player2ID).
		Updates(map[string]interface{}{
			"player2_id": player2ID,
			"status":     models.BattleStatusInProgress,
		})
	if res.Error != nil {
		return storageFailure("join battle", res.Error)
	}
	if res.RowsAffected == 1 {
		log.Printf("🤝 [BATTLE] %s joined %s", player2ID, battleID)
		return nil
	}

	var battle models.Battle
	if err := db.Where("id = ?", battleID).First(&battle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBattleNotFound
		}
		return storageFailure("load battle", err)
	}
	if battle.Player1ID == player2ID && battle.Status == models.BattleStatusWaiting {
		return ErrSelfJoin
	}
	return ErrAlreadyFull
}

// SubmitTime records a player's elapsed seconds. The submission that completes the
// pair resolves the battle and pays the winner in the same transaction.
func (s *BattleService) SubmitTime(ctx context.Context, battleID, playerID string, seconds int) (*SubmitResult, error) {
	if battleID == "" || playerID == "" {
		return nil, ErrMissingFields
	}
	if seconds <= 0 {
		return nil, ErrInvalidTime
	}

	var out *SubmitResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var battle models.Battle
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", battleID).First(&battle).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBattleNotFound
		}
		if err != nil {
			return storageFailure("lock battle", err)
		}

		if battle.Status != models.BattleStatusInProgress {
			return ErrNotInProgress
		}
		now := tx.NowFunc()
		updates := map[string]interface{}{}
		switch battle.Slot(playerID) {
		case 1:
			if battle.Player1Time != nil {
				return ErrAlreadySubmitted
			}
			battle.Player1Time, battle.Player1SubmittedAt = &seconds, &now
			updates["player1_time"], updates["player1_submitted_at"] = seconds, now
		case 2:
			if battle.Player2Time != nil {
				return ErrAlreadySubmitted
			}
			battle.Player2Time, battle.Player2SubmittedAt = &seconds, &now
			updates["player2_time"], updates["player2_submitted_at"] = seconds, now
		default:
			return ErrPlayerNotInBattle
		}

		var winnerID, loserID string
		if battle.BothSubmitted() {
			winnerID = s.pickWinner(&battle)
			loserID = battle.Player1ID
			if winnerID == battle.Player1ID {
				loserID = *battle.Player2ID
			}
			battle.Status = models.BattleStatusCompleted
			battle.WinnerID = &winnerID
			battle.XPReward = int(BattleXPReward)
			battle.CompletedAt = &now
			updates["status"] = models.BattleStatusCompleted
			updates["winner_id"] = winnerID
			updates["xp_reward"] = BattleXPReward
			updates["completed_at"] = now
		}

		if err := tx.Model(&models.Battle{}).Where("id = ?", battle.ID).Updates(updates).Error; err != nil {
			return storageFailure("save battle", err)
		}

		out = &SubmitResult{Battle: battle}
		if winnerID == "" {
			return nil
		}

		if err := tx.Model(&models.User{}).Where("id = ?", winnerID).
			UpdateColumn("total_battles_won", gorm.Expr("total_battles_won + ?", 1)).Error; err != nil {
			return storageFailure("count battle win", err)
		}
		grant, err := grantXPTx(tx, winnerID, BattleXPReward, models.XPSourceBattle, battle.ID)
		if err != nil {
			return err
		}
		if err := notifyTx(tx, winnerID, models.NotificationBattle, battleWonMessage(BattleXPReward)); err != nil {
			return err
		}
		if err := notifyTx(tx, loserID, models.NotificationBattle, battleLostMessage()); err != nil {
			return err
		}

		out.Completed = true
		out.WinnerID = winnerID
		out.Grant = grant
		log.Printf("🏁 [BATTLE] %s completed: winner=%s (%ds vs %ds)", battle.ID, winnerID,
			*battle.Player1Time, *battle.Player2Time)
		return nil
	})
	if err != nil {
		return nil, txError("submit battle time", err)
	}
	return out, nil
}

// pickWinner expects both times to be present.
func (s *BattleService) pickWinner(b *models.Battle) string {
	t1, t2 := *b.Player1Time, *b.Player2Time
	switch {
	case t1 < t2:
		return b.Player1ID
	case t2 < t1:
		return *b.Player2ID
	}
	if s.TieBreak == TieBreakPlayer2 {
		return *b.Player2ID
	}
	if b.Player2SubmittedAt != nil && b.Player1SubmittedAt != nil && b.Player2SubmittedAt.Before(*b.Player1SubmittedAt) {
		return *b.Player2ID
	}
	return b.Player1ID
}

// BattleView is a battle with both players' display fields.
type BattleView struct {
	models.Battle
	Player1Name         string `json:"player1_name"`
	Player1Avatar       string `json:"player1_avatar"`
	Player2Name         string `json:"player2_name"`
	Player2Avatar       string `json:"player2_avatar"`
	ChallengeTitle      string `json:"challenge_title"`
	ChallengeDifficulty string `json:"challenge_difficulty"`
}

func (s *BattleService) Get(ctx context.Context, battleID string) (*BattleView, error) {
	var views []BattleView
	err := s.DB.WithContext(ctx).Table("battles AS b").
		Select(`b.*,
			COALESCE(u1.username, '') AS player1_name, COALESCE(u1.avatar_url, '') AS player1_avatar,
			COALESCE(u2.username, '') AS player2_name, COALESCE(u2.avatar_url, '') AS player2_avatar,
			COALESCE(c.title, '') AS challenge_title, COALESCE(c.difficulty, '') AS challenge_difficulty`).
		Joins("LEFT JOIN users u1 ON u1.id = b.player1_id").
		Joins("LEFT JOIN users u2 ON u2.id = b.player2_id").
		Joins("LEFT JOIN challenges c ON c.id = b.challenge_id").
		Where("b.id = ?", battleID).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, storageFailure("load battle", err)
	}
	if len(views) == 0 {
		return nil, ErrBattleNotFound
	}
	return &views[0], nil
}

// AvailableBattle is an open battle as listed in the lobby.
type AvailableBattle struct {
	ID                  string    `json:"id"`
	ChallengeID         string    `json:"challenge_id"`
	ChallengeTitle      string    `json:"challenge_title"`
	ChallengeDifficulty string    `json:"challenge_difficulty"`
	CreatorID           string    `json:"creator_id"`
	CreatorName         string    `json:"creator_name"`
	CreatorAvatar       string    `json:"creator_avatar"`
	CreatorLevel        int       `json:"creator_level"`
	CreatedAt           time.Time `json:"created_at"`
}

// Available lists waiting battles, newest first.
func (s *BattleService) Available(ctx context.Context, limit int) ([]AvailableBattle, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	var out []AvailableBattle
	err := s.DB.WithContext(ctx).Table("battles AS b").
		Select(`b.id, b.challenge_id, b.created_at,
			c.title AS challenge_title, c.difficulty AS challenge_difficulty,
			u.id AS creator_id, u.username AS creator_name, u.avatar_url AS creator_avatar, u.level AS creator_level`).
		Joins("JOIN challenges c ON c.id = b.challenge_id").
		Joins("JOIN users u ON u.id = b.player1_id").
		Where("b.status = ?", models.BattleStatusWaiting).
		Order("b.created_at DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, storageFailure("list available battles", err)
	}
	return out, nil
}

// BattleHistoryEntry is one finished battle seen from the given user's side.
type BattleHistoryEntry struct {
	ID             string     `json:"id"`
	ChallengeTitle string     `json:"challenge_title"`
	OpponentID     string     `json:"opponent_id"`
	OpponentName   string     `json:"opponent_name"`
	MyTime         *int       `json:"my_time"`
	OpponentTime   *int       `json:"opponent_time"`
	Result         string     `json:"result"` // Won, Lost
	XPReward       int        `json:"xp_reward"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// History returns the user's last ten completed battles.
func (s *BattleService) History(ctx context.Context, userID string) ([]BattleHistoryEntry, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	var battles []models.Battle
	err := s.DB.WithContext(ctx).
		Where("status = ? AND (player1_id = ? OR player2_id = ?)", models.BattleStatusCompleted, userID, userID).
		Order("completed_at DESC").
		Limit(10).
		Find(&battles).Error
	if err != nil {
		return nil, storageFailure("load battle history", err)
	}
	if len(battles) == 0 {
		return []BattleHistoryEntry{}, nil
	}

	userIDs := make([]string, 0, len(battles))
	challengeIDs := make([]string, 0, len(battles))
	for _, b := range battles {
		userIDs = append(userIDs, b.Player1ID)
		if b.Player2ID != nil {
			userIDs = append(userIDs, *b.Player2ID)
		}
		challengeIDs = append(challengeIDs, b.ChallengeID)
	}
	names, err := s.usernames(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	var challenges []models.Challenge
	if err := s.DB.WithContext(ctx).Select("id", "title").Where("id IN ?", challengeIDs).Find(&challenges).Error; err != nil {
		return nil, storageFailure("load challenge titles", err)
	}
	titles := make(map[string]string, len(challenges))
	for _, c := range challenges {
		titles[c.ID] = c.Title
	}

	out := make([]BattleHistoryEntry, 0, len(battles))
	for _, b := range battles {
		e := BattleHistoryEntry{
			ID:             b.ID,
			ChallengeTitle: titles[b.ChallengeID],
			XPReward:       b.XPReward,
			CompletedAt:    b.CompletedAt,
			Result:         "Lost",
		}
		if b.Slot(userID) == 1 {
			e.MyTime, e.OpponentTime = b.Player1Time, b.Player2Time
			if b.Player2ID != nil {
				e.OpponentID = *b.Player2ID
			}
		} else {
			e.MyTime, e.OpponentTime = b.Player2Time, b.Player1Time
			e.OpponentID = b.Player1ID
		}
		e.OpponentName = names[e.OpponentID]
		if b.WinnerID != nil && *b.WinnerID == userID {
			e.Result = "Won"
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *BattleService) usernames(ctx context.Context, ids []string) (map[string]string, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, storageFailure("load usernames", err)
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

// mustExist returns notFound unless a row with the id exists in model's table.
func mustExist(tx *gorm.DB, model interface{}, id string, notFound error) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return storageFailure("check existence", err)
	}
	if count == 0 {
		return notFound
	}
	return nil
}
