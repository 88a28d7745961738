package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillsprint/models"

	"github.com/shopspring/decimal"
)

func TestChallengeSubmitFirstCompletionOnly(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "solver")
	ch := createChallenge(t, db, "Reverse List", 100)
	svc := NewChallengeService(db)
	ctx := context.Background()
	setNow(t, time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))

	res, err := svc.Submit(ctx, ChallengeSubmission{UserID: user.ID, ChallengeID: ch.ID, Solution: "code", TimeTaken: 90})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.FirstCompletion || res.XPEarned != 100 || res.Streak == nil || res.Streak.StreakCount != 1 {
		t.Errorf("first result = %+v", res)
	}

	res, err = svc.Submit(ctx, ChallengeSubmission{UserID: user.ID, ChallengeID: ch.ID, Solution: "code", TimeTaken: 60})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if res.FirstCompletion || res.XPEarned != 0 {
		t.Errorf("second result = %+v", res)
	}
	if res.Progress.Attempts != 2 || res.Progress.BestTime == nil || *res.Progress.BestTime != 60 {
		t.Errorf("progress = %+v", res.Progress)
	}

	got := reloadUser(t, db, user.ID)
	if got.TotalXP != 100 || got.TotalChallengesCompleted != 1 {
		t.Errorf("user total_xp %d completed %d", got.TotalXP, got.TotalChallengesCompleted)
	}
	var day models.StreakDay
	if err := db.Where("user_id = ?", user.ID).First(&day).Error; err != nil || !day.CompletedChallenge {
		t.Errorf("streak day = %+v, err %v", day, err)
	}

	completed, err := svc.Completed(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 1 || completed[0].Challenge == nil || completed[0].Challenge.Title != "Reverse List" {
		t.Errorf("completed = %+v", completed)
	}
}

func TestChallengeSubmitDailyMultiplier(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "daily")
	ch := createChallenge(t, db, "FizzBuzz", 75)
	svc := NewChallengeService(db)
	ctx := context.Background()
	setNow(t, time.Date(2026, 5, 5, 8, 0, 0, 0, time.UTC))

	n, err := svc.AssignDaily(ctx, "2026-05-05", 3, DailyMultiplier)
	if err != nil || n != 1 {
		t.Fatalf("AssignDaily = %d, %v", n, err)
	}
	if n, err := svc.AssignDaily(ctx, "2026-05-05", 3, DailyMultiplier); err != nil || n != 0 {
		t.Errorf("second AssignDaily = %d, %v", n, err)
	}

	daily, err := svc.Daily(ctx)
	if err != nil || len(daily) != 1 || daily[0].Challenge.ID != ch.ID {
		t.Fatalf("Daily = %+v, %v", daily, err)
	}

	res, err := svc.Submit(ctx, ChallengeSubmission{UserID: user.ID, ChallengeID: ch.ID, Solution: "x", TimeTaken: 30})
	if err != nil {
		t.Fatal(err)
	}
	// 75 * 1.5 = 112.5, floored
	if res.XPEarned != 112 || !res.Multiplier.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("xp %d multiplier %s", res.XPEarned, res.Multiplier)
	}
}

func TestChallengeSubmitValidation(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "val")
	ch := createChallenge(t, db, "Valid", 10)
	svc := NewChallengeService(db)
	ctx := context.Background()

	tests := []struct {
		name string
		sub  ChallengeSubmission
		want error
	}{
		{"empty solution", ChallengeSubmission{UserID: user.ID, ChallengeID: ch.ID, Solution: "  ", TimeTaken: 5}, ErrMissingFields},
		{"zero time", ChallengeSubmission{UserID: user.ID, ChallengeID: ch.ID, Solution: "x"}, ErrInvalidTime},
		{"unknown challenge", ChallengeSubmission{UserID: user.ID, ChallengeID: "nope", Solution: "x", TimeTaken: 5}, ErrChallengeNotFound},
		{"unknown user", ChallengeSubmission{UserID: "nope", ChallengeID: ch.ID, Solution: "x", TimeTaken: 5}, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, tt.sub); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestChallengeGetByIDOrSlug(t *testing.T) {
	db := newTestDB(t)
	ch := createChallenge(t, db, "Hello World", 10)
	svc := NewChallengeService(db)

	got, err := svc.Get(context.Background(), ch.Slug)
	if err != nil {
		t.Fatalf("Get by slug: %v", err)
	}
	if got.ID != ch.ID {
		t.Errorf("got %s, want %s", got.ID, ch.ID)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("err = %v", err)
	}
}
