package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/park285/cardchess/internal/cards"
)

var keys = []string{
	"LISTEN_ADDR", "ALLOWED_ORIGINS", "INSTANCE_ID", "REDIS_URL", "DATABASE_URL",
	"RESULT_WEBHOOK_URL", "CARD_DRAW_INTERVAL", "DISABLED_CARDS", "CARD_SEED",
	"CARD_CATALOG_DIR", "PING_INTERVAL_SEC",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":3000" || cfg.CardDrawInterval != 2 || cfg.PingInterval != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CardSeed != nil || len(cfg.DisabledCards) != 0 || cfg.InstanceID == "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", "127.0.0.1:8080")
	t.Setenv("ALLOWED_ORIGINS", "localhost:5173, example.com ,")
	t.Setenv("INSTANCE_ID", "node-a")
	t.Setenv("CARD_DRAW_INTERVAL", "3")
	t.Setenv("DISABLED_CARDS", "2, topsy_turvy")
	t.Setenv("CARD_SEED", "42")
	t.Setenv("PING_INTERVAL_SEC", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:8080" || cfg.InstanceID != "node-a" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "example.com" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.CardDrawInterval != 3 || cfg.PingInterval != 5*time.Second {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.DisabledCards) != 2 || cfg.DisabledCards[0] != cards.Polymorph || cfg.DisabledCards[1] != cards.TopsyTurvy {
		t.Fatalf("disabled = %v", cfg.DisabledCards)
	}
	if cfg.CardSeed == nil || *cfg.CardSeed != 42 {
		t.Fatalf("seed = %v", cfg.CardSeed)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LISTEN_ADDR", "3000"},
		{"LISTEN_ADDR", ":http-ish"},
		{"LISTEN_ADDR", ":70000"},
		{"CARD_DRAW_INTERVAL", "0"},
		{"DISABLED_CARDS", "fireball"},
		{"CARD_SEED", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("INSTANCE_ID")
	t.Setenv("REDIS_URL", "redis://set-by-shell:6379/0")
	path := filepath.Join(t.TempDir(), ".env")
	body := "REDIS_URL=redis://from-file:6379/0\nINSTANCE_ID=from-file\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("INSTANCE_ID") })

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("REDIS_URL"); got != "redis://set-by-shell:6379/0" {
		t.Fatalf("REDIS_URL overridden: %q", got)
	}
	if got := os.Getenv("INSTANCE_ID"); got != "from-file" {
		t.Fatalf("INSTANCE_ID = %q", got)
	}
}
