package services

import (
	"context"
	"errors"
	"testing"

	"skillsprint/models"
)

func TestUnlockBadge(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "collector")
	svc := NewBadgeService(db)
	ctx := context.Background()

	ok, err := svc.UnlockBadge(ctx, user.ID, "CODE_WIZARD")
	if err != nil || !ok {
		t.Fatalf("first unlock = %v, %v", ok, err)
	}
	ok, err = svc.UnlockBadge(ctx, user.ID, "CODE_WIZARD")
	if err != nil || ok {
		t.Errorf("second unlock = %v, %v", ok, err)
	}
	if _, err := svc.UnlockBadge(ctx, user.ID, "NOPE"); !errors.Is(err, ErrBadgeNotFound) {
		t.Errorf("unknown badge: err = %v", err)
	}
	if _, err := svc.UnlockBadge(ctx, "missing", "CODE_WIZARD"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}

	statuses, err := svc.UserBadges(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(statuses) != len(models.DefaultBadges()) {
		t.Fatalf("catalog size %d", len(statuses))
	}
	for _, st := range statuses {
		if st.Unlocked != (st.Code == "CODE_WIZARD") {
			t.Errorf("%s unlocked = %v", st.Code, st.Unlocked)
		}
	}
	if n := countRows(t, db, &models.Notification{}, "user_id = ? AND type = ?", user.ID, models.NotificationBadgeUnlock); n != 1 {
		t.Errorf("badge notifications = %d", n)
	}
}

func TestFastSolverBadge(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "speedy")
	svc := NewChallengeService(db)
	ctx := context.Background()

	var last *ChallengeResult
	for i := 0; i < 5; i++ {
		ch := createChallenge(t, db, "Quick", 10)
		res, err := svc.Submit(ctx, ChallengeSubmission{UserID: user.ID, ChallengeID: ch.ID, Solution: "x", TimeTaken: 60})
		if err != nil {
			t.Fatal(err)
		}
		last = res
	}
	found := false
	for _, b := range last.Grant.BadgesUnlocked {
		if b == "Fast Solver" {
			found = true
		}
	}
	if !found {
		t.Errorf("badges after five fast solves = %v", last.Grant.BadgesUnlocked)
	}
}

func hasBadge(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func TestFastSolverBadgeOnImprovedBestTime(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "improver")
	svc := NewChallengeService(db)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		ch := createChallenge(t, db, "Quick", 10)
		if _, err := svc.Submit(ctx, ChallengeSubmission{UserID: user.ID, ChallengeID: ch.ID, Solution: "x", TimeTaken: 60}); err != nil {
			t.Fatal(err)
		}
	}
	slow := createChallenge(t, db, "Slow", 10)
	first, err := svc.Submit(ctx, ChallengeSubmission{UserID: user.ID, ChallengeID: slow.ID, Solution: "x", TimeTaken: 300})
	if err != nil {
		t.Fatal(err)
	}
	if hasBadge(first.Grant.BadgesUnlocked, "Fast Solver") {
		t.Fatalf("unlocked with only four fast solves")
	}

	again, err := svc.Submit(ctx, ChallengeSubmission{UserID: user.ID, ChallengeID: slow.ID, Solution: "x", TimeTaken: 90})
	if err != nil {
		t.Fatal(err)
	}
	if again.FirstCompletion || again.Grant != nil {
		t.Errorf("repeat submission paid out: %+v", again)
	}
	if !hasBadge(again.BadgesUnlocked, "Fast Solver") {
		t.Errorf("badges after improving best time = %v", again.BadgesUnlocked)
	}
	if n := countRows(t, db, &models.UserBadge{}, "user_id = ?", user.ID); n != 1 {
		t.Errorf("user badges = %d, want 1", n)
	}
}

func TestZeroXPCompletionStillAwardsBadges(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "wizard")
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("total_challenges_completed", 49).Error; err != nil {
		t.Fatal(err)
	}
	ch := createChallenge(t, db, "Warmup", 0)

	res, err := NewChallengeService(db).Submit(context.Background(), ChallengeSubmission{UserID: user.ID, ChallengeID: ch.ID, Solution: "x", TimeTaken: 500})
	if err != nil {
		t.Fatal(err)
	}
	if res.XPEarned != 0 || res.Grant == nil {
		t.Fatalf("result = %+v", res)
	}
	if !hasBadge(res.Grant.BadgesUnlocked, "Code Wizard") {
		t.Errorf("badges after 50th completion = %v", res.Grant.BadgesUnlocked)
	}
	if n := countRows(t, db, &models.XPEvent{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("xp events = %d for a zero grant", n)
	}
}
