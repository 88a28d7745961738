// services/leaderboard_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"skillsprint/models"

	"gorm.io/gorm"
)

type LeaderboardService struct {
	DB    *gorm.DB
	Cache *LeaderboardCache
}

func NewLeaderboardService(db *gorm.DB, cache *LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{DB: db, Cache: cache}
}

const rankedColumns = `id, username, avatar_url, level, total_xp, streak_count,
	total_challenges_completed AS challenges_completed, total_battles_won AS battles_won`

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}

func assignRanks(rows []models.RankedUser) []models.RankedUser {
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func (s *LeaderboardService) ordered(ctx context.Context, order string, limit int) ([]models.RankedUser, error) {
	var rows []models.RankedUser
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Select(rankedColumns).
		Order(order).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, storageFailure("load leaderboard", err)
	}
	return assignRanks(rows), nil
}

// Global ranks every user by lifetime XP.
func (s *LeaderboardService) Global(ctx context.Context, limit int) ([]models.RankedUser, error) {
	limit = clampLimit(limit)
	return cachedList(ctx, s.Cache, fmt.Sprintf("global:%d", limit), func() ([]models.RankedUser, error) {
		return s.ordered(ctx, "total_xp DESC, created_at ASC", limit)
	})
}

func (s *LeaderboardService) TopChallengers(ctx context.Context, limit int) ([]models.RankedUser, error) {
	limit = clampLimit(limit)
	return cachedList(ctx, s.Cache, fmt.Sprintf("challengers:%d", limit), func() ([]models.RankedUser, error) {
		return s.ordered(ctx, "total_challenges_completed DESC, total_xp DESC", limit)
	})
}

func (s *LeaderboardService) TopWinners(ctx context.Context, limit int) ([]models.RankedUser, error) {
	limit = clampLimit(limit)
	return cachedList(ctx, s.Cache, fmt.Sprintf("winners:%d", limit), func() ([]models.RankedUser, error) {
		return s.ordered(ctx, "total_battles_won DESC, total_xp DESC", limit)
	})
}

// WeekBounds returns Monday 00:00 UTC of t's week and the following Monday.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 7)
}

// Weekly ranks users by XP earned during the current week.
func (s *LeaderboardService) Weekly(ctx context.Context, limit int) ([]models.RankedUser, error) {
	limit = clampLimit(limit)
	start, end := WeekBounds(Now())
	key := fmt.Sprintf("weekly:%s:%d", start.Format(dayLayout), limit)
	return cachedList(ctx, s.Cache, key, func() ([]models.RankedUser, error) {
		var rows []models.RankedUser
		err := s.DB.WithContext(ctx).Table("xp_events AS e").
			Select(`u.id, u.username, u.avatar_url, u.level, u.total_xp,
				u.total_challenges_completed AS challenges_completed, u.total_battles_won AS battles_won,
				SUM(e.amount) AS weekly_xp`).
			Joins("JOIN users u ON u.id = e.user_id").
			Where("e.created_at >= ? AND e.created_at < ?", start, end).
			Group("u.id, u.username, u.avatar_url, u.level, u.total_xp, u.total_challenges_completed, u.total_battles_won").
			Order("weekly_xp DESC, u.total_xp DESC").
			Limit(limit).
			Scan(&rows).Error
		if err != nil {
			return nil, storageFailure("load weekly leaderboard", err)
		}
		return assignRanks(rows), nil
	})
}

// Friends is the global board with the caller's own row labelled.
func (s *LeaderboardService) Friends(ctx context.Context, userID string, limit int) ([]models.RankedUser, error) {
	rows, err := s.Global(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.RankedUser, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].ID == userID {
			out[i].Label = "YOU"
		}
	}
	return out, nil
}

type UserRank struct {
	UserID  string `json:"user_id"`
	Rank    int64  `json:"rank"`
	TotalXP int64  `json:"total_xp"`
	Level   int    `json:"level"`
	Source  string `json:"source"` // redis, sql
}

// UserRank reads the rank from the Redis index when present and counts in SQL otherwise.
func (s *LeaderboardService) UserRank(ctx context.Context, userID string) (*UserRank, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	state, err := NewProgressionService(s.DB).Progress(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &UserRank{UserID: userID, TotalXP: state.TotalXP, Level: state.Level}
	if rank, ok := s.Cache.Rank(ctx, userID); ok {
		out.Rank, out.Source = rank, "redis"
		return out, nil
	}

	var ahead int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("total_xp > ?", state.TotalXP).Count(&ahead).Error; err != nil {
		return nil, storageFailure("count users ahead", err)
	}
	out.Rank, out.Source = ahead+1, "sql"
	return out, nil
}

// Snapshot reads the table written by RefreshSnapshot.
func (s *LeaderboardService) Snapshot(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = clampLimit(limit)
	var out []models.LeaderboardEntry
	if err := s.DB.WithContext(ctx).Order("position ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, storageFailure("load leaderboard snapshot", err)
	}
	return out, nil
}

// RefreshSnapshot rebuilds the snapshot table from users and drops cached responses.
func (s *LeaderboardService) RefreshSnapshot(ctx context.Context) (int, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Order("total_xp DESC, created_at ASC").Find(&users).Error; err != nil {
		return 0, storageFailure("load users for snapshot", err)
	}
	now := s.DB.NowFunc()
	entries := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, models.LeaderboardEntry{
			UserID:              u.ID,
			Rank:                i + 1,
			Username:            u.Username,
			AvatarURL:           u.AvatarURL,
			Level:               u.Level,
			TotalXP:             u.TotalXP,
			ChallengesCompleted: u.TotalChallengesCompleted,
			BattlesWon:          u.TotalBattlesWon,
			RefreshedAt:         now,
		})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.LeaderboardEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(&entries, 200).Error
	})
	if err != nil {
		return 0, storageFailure("refresh leaderboard snapshot", err)
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		log.Printf("⚠️  [LB] cache invalidation failed: %v", err)
	}
	return len(entries), nil
}
