package services

import (
	"context"
	"testing"
	"time"

	"skillsprint/models"
)

func TestSchedulerJobs(t *testing.T) {
	db := newTestDB(t)
	for _, title := range []string{"One", "Two", "Three", "Four"} {
		createChallenge(t, db, title, 10)
	}
	createUser(t, db, "ranked")
	setNow(t, time.Date(2026, 7, 1, 0, 0, 5, 0, time.UTC))

	lb := NewLeaderboardService(db, nil)
	s := NewScheduler(lb, NewChallengeService(db), time.Minute, 3)

	s.RotateDailyChallenges()
	s.RotateDailyChallenges()
	if n := countRows(t, db, &models.DailyChallenge{}, "date_assigned = ?", "2026-07-01"); n != 3 {
		t.Errorf("daily picks = %d, want 3", n)
	}

	s.RefreshLeaderboard()
	snap, err := lb.Snapshot(context.Background(), 10)
	if err != nil || len(snap) != 1 {
		t.Errorf("snapshot = %+v, %v", snap, err)
	}
}
