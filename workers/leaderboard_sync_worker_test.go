package workers

import (
	"context"
	"testing"
	"time"

	"skillsprint/config"
	"skillsprint/database"
	"skillsprint/models"
	"skillsprint/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLeaderboardSyncOnce(t *testing.T) {
	db, err := database.Open(config.Config{DBDriver: "sqlite", DatabaseURL: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	before := time.Now().UTC().Add(-time.Minute)
	users := []models.User{
		{Username: "a", UsernameKey: "a", Email: "a@x.io", PasswordHash: "x", TotalXP: 300, TotalBattlesWon: 2},
		{Username: "b", UsernameKey: "b", Email: "b@x.io", PasswordHash: "x", TotalXP: 900, TotalChallengesCompleted: 7},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatal(err)
	}

	w := NewLeaderboardSync(db, services.NewLeaderboardCache(client, time.Minute))
	w.BatchSize = 1 // force paging
	n, err := w.SyncOnce(ctx, before)
	if err != nil || n != 2 {
		t.Fatalf("SyncOnce = %d, %v", n, err)
	}

	if score, _ := mr.ZScore(services.RankKeyXP, users[1].ID); score != 900 {
		t.Errorf("xp score = %v", score)
	}
	if score, _ := mr.ZScore(services.RankKeyBattles, users[0].ID); score != 2 {
		t.Errorf("battles score = %v", score)
	}
	if rank, ok := w.Cache.Rank(ctx, users[0].ID); !ok || rank != 2 {
		t.Errorf("rank = %d, %v", rank, ok)
	}

	n, err = w.SyncOnce(ctx, time.Now().UTC().Add(time.Minute))
	if err != nil || n != 0 {
		t.Errorf("empty window = %d, %v", n, err)
	}
}

func TestPollLeaderboardStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		PollLeaderboard(ctx, &LeaderboardSync{}, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestLeaderboardSyncPicksUpLateCommits(t *testing.T) {
	db, err := database.Open(config.Config{DBDriver: "sqlite", DatabaseURL: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	w := NewLeaderboardSync(db, services.NewLeaderboardCache(client, time.Minute))
	cursor := time.Now().UTC()

	// stamped two seconds before the cursor, visible only after the previous pass ran
	late := models.User{Username: "late", UsernameKey: "late", Email: "late@x.io", PasswordHash: "x", TotalXP: 420}
	if err := db.Create(&late).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", late.ID).UpdateColumn("updated_at", cursor.Add(-2*time.Second)).Error; err != nil {
		t.Fatal(err)
	}

	if n, err := w.SyncOnce(ctx, cursor); err != nil || n != 0 {
		t.Fatalf("strict window = %d, %v", n, err)
	}
	since := w.windowStart(cursor)
	if !since.Before(cursor.Add(-2 * time.Second)) {
		t.Fatalf("window start %s does not cover the late row", since)
	}
	n, err := w.SyncOnce(ctx, since)
	if err != nil || n != 1 {
		t.Fatalf("SyncOnce = %d, %v", n, err)
	}
	if score, _ := mr.ZScore(services.RankKeyXP, late.ID); score != 420 {
		t.Errorf("xp score = %v", score)
	}

	if got := w.windowStart(time.Time{}); !got.IsZero() {
		t.Errorf("first pass start = %s, want zero", got)
	}
}
