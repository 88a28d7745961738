// workers/leaderboard_sync_worker.go
package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"skillsprint/models"
	"skillsprint/services"

	"gorm.io/gorm"
)

// LeaderboardSync copies changed user counters into the Redis rank index.
type LeaderboardSync struct {
	DB    *gorm.DB
	Cache *services.LeaderboardCache
	// BatchSize caps how many users are read per query.
	BatchSize int
	// Overlap re-reads the tail of the previous window. A row stamped before the
	// cursor but committed after the last query is still picked up.
	Overlap time.Duration
}

const defaultSyncOverlap = 10 * time.Second

func NewLeaderboardSync(db *gorm.DB, cache *services.LeaderboardCache) *LeaderboardSync {
	return &LeaderboardSync{DB: db, Cache: cache, BatchSize: 500, Overlap: defaultSyncOverlap}
}

// windowStart is where the next query begins. The rank index writes are idempotent,
// so users inside the overlap are simply written again.
func (w *LeaderboardSync) windowStart(lastSync time.Time) time.Time {
	if lastSync.IsZero() || w.Overlap <= 0 {
		return lastSync
	}
	return lastSync.Add(-w.Overlap)
}

// ChangedUsers pages through users updated after since.
func (w *LeaderboardSync) ChangedUsers(ctx context.Context, since time.Time) ([]models.User, error) {
	batch := w.BatchSize
	if batch <= 0 {
		batch = 500
	}
	var out []models.User
	for offset := 0; ; offset += batch {
		var page []models.User
		err := w.DB.WithContext(ctx).
			Select("id", "total_xp", "total_battles_won", "total_challenges_completed", "updated_at").
			Where("updated_at > ?", since.UTC()).
			Order("updated_at ASC, id ASC").
			Offset(offset).Limit(batch).
			Find(&page).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load changed users: %w", err)
		}
		out = append(out, page...)
		if len(page) < batch {
			return out, nil
		}
	}
}

// SyncOnce pushes every user changed after since and returns how many were written.
func (w *LeaderboardSync) SyncOnce(ctx context.Context, since time.Time) (int, error) {
	users, err := w.ChangedUsers(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}
	if err := w.Cache.SyncUsers(ctx, users); err != nil {
		return 0, fmt.Errorf("failed to write rank index: %w", err)
	}
	return len(users), nil
}

// PollLeaderboard runs SyncOnce every interval until ctx is cancelled. The first pass
// covers every user; a failed window is retried on the next tick.
func PollLeaderboard(ctx context.Context, w *LeaderboardSync, interval time.Duration) {
	log.Println("🔄 [LB-SYNC] starting leaderboard sync")
	var lastSync time.Time

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 [LB-SYNC] stopped")
			return
		case <-ticker.C:
			// taken before the query so rows updated mid-sync are picked up next time
			started := time.Now().UTC()

			since := w.windowStart(lastSync)
			n, err := w.SyncOnce(ctx, since)
			if err != nil {
				log.Printf("❌ [LB-SYNC] sync since %s failed: %v", since.Format(time.RFC3339), err)
				continue
			}

			lastSync = started
			if n > 0 {
				log.Printf("✅ [LB-SYNC] indexed %d user(s)", n)
			}
		}
	}
}
