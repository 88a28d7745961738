package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"skillsprint/config"
	"skillsprint/database"
	"skillsprint/handlers"
	"skillsprint/middleware"
	"skillsprint/services"
	"skillsprint/utils"
	"skillsprint/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}
	if err := database.SeedBadges(db); err != nil {
		log.Fatal(err)
	}

	rdb, err := database.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var store services.ObjectStore
	if cfg.R2.Enabled() {
		store, err = utils.NewR2Store(ctx, utils.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client: ", err)
		}
		log.Printf("✅ [AVATAR] uploads go to R2 bucket %s", cfg.R2.Bucket)
	} else {
		store, err = utils.NewLocalStore(cfg.UploadDir, "/uploads")
		if err != nil {
			log.Fatal("failed to ensure upload dir: ", err)
		}
		log.Printf("⚠️  [AVATAR] R2 not configured, storing uploads in %s", cfg.UploadDir)
	}

	lbCache := services.NewLeaderboardCache(rdb, cfg.LeaderboardCacheTTL)

	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL)
	progressionService := services.NewProgressionService(db)
	battleService := services.NewBattleService(db, services.TieBreak(cfg.BattleTieBreak))
	challengeService := services.NewChallengeService(db)
	quizService := services.NewQuizService(db)
	streakService := services.NewStreakService(db)
	badgeService := services.NewBadgeService(db)
	bonusService := services.NewBonusService(db)
	notificationService := services.NewNotificationService(db)
	leaderboardService := services.NewLeaderboardService(db, lbCache)
	avatarService := services.NewAvatarService(db, store)

	scheduler := services.NewScheduler(leaderboardService, challengeService, cfg.LeaderboardRefreshInterval, cfg.DailyChallengeCount)
	if err := scheduler.Start(); err != nil {
		log.Fatal(err)
	}
	defer scheduler.Stop()

	if rdb != nil {
		go workers.PollLeaderboard(ctx, workers.NewLeaderboardSync(db, lbCache), cfg.LeaderboardSyncInterval)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 4 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Service-Token, Cache-Control",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.Authenticate(authService, cfg.ServiceToken))

	handlers.SetupHealthRoutes(app, db)
	handlers.SetupBattleRoutes(app, battleService)
	handlers.SetupUserRoutes(app, handlers.UserServices{
		Auth:        authService,
		Progression: progressionService,
		Streaks:     streakService,
		Badges:      badgeService,
		Avatars:     avatarService,
	})
	handlers.SetupChallengeRoutes(app, challengeService)
	handlers.SetupQuizRoutes(app, quizService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService, cfg.ServiceToken)
	handlers.SetupNotificationRoutes(app, notificationService, authService, cfg.ServiceToken)
	handlers.SetupStreakRoutes(app, streakService)
	handlers.SetupXPRoutes(app, bonusService)

	app.Static("/uploads", cfg.UploadDir)

	go func() {
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost%s", cfg.ListenAddr())
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))
	log.Printf("✅ Battle tie-break: %s", cfg.BattleTieBreak)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
