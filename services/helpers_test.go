package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"skillsprint/config"
	"skillsprint/database"
	"skillsprint/models"

	"gorm.io/gorm"
)

// newTestDB opens a fresh in-memory database with the schema and badge catalog.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Config{DBDriver: "sqlite", DatabaseURL: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedBadges(db); err != nil {
		t.Fatalf("seed badges: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

var userSeq atomic.Int64

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	u := models.User{
		Username:     name,
		UsernameKey:  fmt.Sprintf("%s-%d", name, n),
		Email:        fmt.Sprintf("%s-%d@example.com", name, n),
		PasswordHash: "x",
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return &u
}

func createChallenge(t *testing.T, db *gorm.DB, title string, xp int64) *models.Challenge {
	t.Helper()
	c := models.Challenge{Title: title, Difficulty: "easy", Category: "arrays", XPReward: xp, TestCases: []byte("[]")}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create challenge %s: %v", title, err)
	}
	return &c
}

func reloadUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return u
}

// setNow pins the service clock for the rest of the test.
func setNow(t *testing.T, ts time.Time) {
	t.Helper()
	prev := Now
	Now = func() time.Time { return ts.UTC() }
	t.Cleanup(func() { Now = prev })
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
