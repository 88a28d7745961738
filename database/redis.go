// database/redis.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenRedis parses a redis:// URL and pings the server. An empty URL returns (nil, nil).
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		log.Println("⚠️  [REDIS] REDIS_URL not set, leaderboard cache disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = 50
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ [REDIS] connection established")
	return client, nil
}
