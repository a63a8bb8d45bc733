package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
quiz:
  ttl: 5m
  time_limit: 3m
  timezone: Asia/Kolkata
auth:
  secret: from-file-secret-value
  bcrypt_cost: 4
leaderboard:
  size: 20
  debounce: 250ms
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Leaderboard.Size != 20 || cfg.Auth.BcryptCost != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := TTLDuration(cfg.Quiz.TimeLimit, time.Minute); got != 3*time.Minute {
		t.Fatalf("expected 3m time limit, got %v", got)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Kolkata" {
		t.Fatalf("expected Asia/Kolkata, got %v %v", loc, err)
	}
}

func TestLoadPrefersSecretFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  secret: from-file-secret-value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTH_SECRET", "from-env-secret-value")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.Secret != "from-env-secret-value" {
		t.Fatalf("expected env secret, got %q", cfg.Auth.Secret)
	}
}

func TestTTLDurationFallsBack(t *testing.T) {
	if got := TTLDuration("", time.Second); got != time.Second {
		t.Fatalf("empty: got %v", got)
	}
	if got := TTLDuration("soon", time.Second); got != time.Second {
		t.Fatalf("garbage: got %v", got)
	}
}
