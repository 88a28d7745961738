// config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the whole runtime configuration, read once at startup.
type Config struct {
	Port           string   `env:"PORT" envDefault:"5200"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	DBDriver       string `env:"DB_DRIVER" envDefault:"postgres"` // postgres, mysql, sqlite
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`

	RedisURL string `env:"REDIS_URL"` // empty = no cache layer

	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"72h"`
	ServiceToken string        `env:"SERVICE_TOKEN"`

	LeaderboardRefreshInterval time.Duration `env:"LEADERBOARD_REFRESH_INTERVAL" envDefault:"5m"`
	LeaderboardCacheTTL        time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"15s"`
	LeaderboardSyncInterval    time.Duration `env:"LEADERBOARD_SYNC_INTERVAL" envDefault:"10s"`
	DailyChallengeCount        int           `env:"DAILY_CHALLENGE_COUNT" envDefault:"3"`

	BattleTieBreak string `env:"BATTLE_TIE_BREAK" envDefault:"first_submission"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`
	R2        R2Config
}

// R2Config holds Cloudflare R2 credentials. Avatars fall back to local disk when Bucket is empty.
type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

// Enabled reports whether enough R2 settings are present to upload.
func (r R2Config) Enabled() bool {
	return r.Bucket != "" && r.AccountID != "" && r.AccessKeyID != ""
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  [CONFIG] could not read .env: %v", err)
	} else if err != nil {
		log.Println("⚠️  [CONFIG] No .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate names every missing or malformed setting in one error.
func (c Config) Validate() error {
	var missing []string
	switch c.DBDriver {
	case "postgres", "mysql":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case "sqlite":
		// DATABASE_URL defaults to a local file
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres, mysql or sqlite)", c.DBDriver)
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.ServiceToken == "" {
		missing = append(missing, "SERVICE_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	switch c.BattleTieBreak {
	case "first_submission", "player2":
	default:
		return fmt.Errorf("unsupported BATTLE_TIE_BREAK %q", c.BattleTieBreak)
	}
	if c.DailyChallengeCount < 0 {
		return fmt.Errorf("DAILY_CHALLENGE_COUNT must be >= 0")
	}
	return nil
}

// ListenAddr is the address handed to fiber's Listen.
func (c Config) ListenAddr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
