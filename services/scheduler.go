// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/shopspring/decimal"
)

// Scheduler runs the periodic leaderboard refresh and the daily challenge rotation.
type Scheduler struct {
	Leaderboard     *LeaderboardService
	Challenges      *ChallengeService
	RefreshInterval time.Duration
	DailyCount      int
	Multiplier      decimal.Decimal

	sched gocron.Scheduler
}

func NewScheduler(lb *LeaderboardService, ch *ChallengeService, refresh time.Duration, dailyCount int) *Scheduler {
	return &Scheduler{
		Leaderboard:     lb,
		Challenges:      ch,
		RefreshInterval: refresh,
		DailyCount:      dailyCount,
		Multiplier:      DailyMultiplier,
	}
}

func (s *Scheduler) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	// Snapshot refresh
	if _, err := sched.NewJob(
		gocron.DurationJob(s.RefreshInterval),
		gocron.NewTask(s.RefreshLeaderboard),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		return fmt.Errorf("schedule leaderboard refresh: %w", err)
	}

	// Daily rotation at 00:00:05 UTC
	if _, err := sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 5))),
		gocron.NewTask(s.RotateDailyChallenges),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("schedule daily challenges: %w", err)
	}

	s.sched = sched
	sched.Start()
	// Cover a start after midnight.
	go s.RotateDailyChallenges()
	log.Printf("⏰ [SCHED] started (leaderboard every %s, %d daily challenges)", s.RefreshInterval, s.DailyCount)
	return nil
}

func (s *Scheduler) Stop() {
	if s.sched == nil {
		return
	}
	if err := s.sched.Shutdown(); err != nil {
		log.Printf("⚠️  [SCHED] shutdown: %v", err)
	}
}

func (s *Scheduler) RefreshLeaderboard() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := s.Leaderboard.RefreshSnapshot(ctx)
	if err != nil {
		log.Printf("❌ [SCHED] leaderboard refresh failed: %v", err)
		return
	}
	log.Printf("📊 [SCHED] leaderboard snapshot refreshed (%d users)", n)
}

func (s *Scheduler) RotateDailyChallenges() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	date := Now().Format(dayLayout)
	n, err := s.Challenges.AssignDaily(ctx, date, s.DailyCount, s.Multiplier)
	if err != nil {
		log.Printf("❌ [SCHED] daily challenge rotation failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("📅 [SCHED] assigned %d daily challenges for %s (x%s)", n, date, s.Multiplier)
	}
}
