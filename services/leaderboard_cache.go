// services/leaderboard_cache.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"skillsprint/models"

	"github.com/redis/go-redis/v9"
)

// Sorted-set keys maintained by the leaderboard sync worker.
const (
	RankKeyXP         = "leaderboard:xp"
	RankKeyBattles    = "leaderboard:battles"
	RankKeyChallenges = "leaderboard:challenges"

	cachePrefix = "leaderboard:cache:"
)

// LeaderboardCache is the Redis side of the leaderboards. A nil *LeaderboardCache or
// a nil Client turns every method into a miss.
type LeaderboardCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{Client: client, TTL: ttl}
}

func (c *LeaderboardCache) enabled() bool {
	return c != nil && c.Client != nil
}

func (c *LeaderboardCache) get(ctx context.Context, key string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}
	raw, err := c.Client.Get(ctx, cachePrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️  [LB-CACHE] get %s: %v", key, err)
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *LeaderboardCache) set(ctx context.Context, key string, value interface{}) {
	if !c.enabled() || c.TTL <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, cachePrefix+key, raw, c.TTL).Err(); err != nil {
		log.Printf("⚠️  [LB-CACHE] set %s: %v", key, err)
	}
}

// Invalidate drops every cached leaderboard response.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	iter := c.Client.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

// SyncUsers writes the users' counters into the rank sorted sets.
func (c *LeaderboardCache) SyncUsers(ctx context.Context, users []models.User) error {
	if !c.enabled() || len(users) == 0 {
		return nil
	}
	pipe := c.Client.TxPipeline()
	for _, u := range users {
		pipe.ZAdd(ctx, RankKeyXP, redis.Z{Score: float64(u.TotalXP), Member: u.ID})
		pipe.ZAdd(ctx, RankKeyBattles, redis.Z{Score: float64(u.TotalBattlesWon), Member: u.ID})
		pipe.ZAdd(ctx, RankKeyChallenges, redis.Z{Score: float64(u.TotalChallengesCompleted), Member: u.ID})
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Rank is the 1-based XP rank from the sorted set. ok is false when the user is
// not indexed yet or Redis is unavailable.
func (c *LeaderboardCache) Rank(ctx context.Context, userID string) (rank int64, ok bool) {
	if !c.enabled() {
		return 0, false
	}
	r, err := c.Client.ZRevRank(ctx, RankKeyXP, userID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️  [LB-CACHE] rank %s: %v", userID, err)
		}
		return 0, false
	}
	return r + 1, true
}

// cachedList serves key from Redis when present and fills it from load otherwise.
func cachedList[T any](ctx context.Context, c *LeaderboardCache, key string, load func() ([]T, error)) ([]T, error) {
	var out []T
	if c.get(ctx, key, &out) {
		return out, nil
	}
	out, err := load()
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, out)
	return out, nil
}
