package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/skillsprint")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVICE_TOKEN", "svc")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ListenAddr() != ":5200" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %#v", cfg.AllowedOrigins)
	}
	if cfg.TokenTTL != 72*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.BattleTieBreak != "first_submission" {
		t.Errorf("BattleTieBreak = %q", cfg.BattleTieBreak)
	}
	if cfg.R2.Enabled() {
		t.Errorf("R2 should be disabled without a bucket")
	}
}

func TestParseMissingRequired(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SERVICE_TOKEN", "")

	_, err := Parse()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "SERVICE_TOKEN"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: "sqlite", JWTSecret: "s", ServiceToken: "t", BattleTieBreak: "player2"}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"sqlite without url", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, true},
		{"unknown tie break", func(c *Config) { c.BattleTieBreak = "coin_flip" }, true},
		{"negative daily count", func(c *Config) { c.DailyChallengeCount = -1 }, true},
		{"mysql needs url", func(c *Config) { c.DBDriver = "mysql" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
