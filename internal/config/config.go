package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/cardchess/internal/cards"
)

type AppConfig struct {
	ListenAddr     string
	AllowedOrigins []string
	InstanceID     string

	RedisURL         string
	DatabaseURL      string
	ResultWebhookURL string

	CardDrawInterval int
	DisabledCards    []cards.Type
	CardSeed         *uint64
	CardCatalogDir   string

	PingInterval time.Duration
}

// LoadDotEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:       ":3000",
		CardDrawInterval: 2,
		PingInterval:     15 * time.Second,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if err := validateAddr(cfg.ListenAddr); err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	cfg.InstanceID = strings.TrimSpace(os.Getenv("INSTANCE_ID"))
	if cfg.InstanceID == "" {
		if h, err := os.Hostname(); err == nil && h != "" {
			cfg.InstanceID = h
		} else {
			cfg.InstanceID = "local"
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.ResultWebhookURL = strings.TrimSpace(os.Getenv("RESULT_WEBHOOK_URL"))
	cfg.CardCatalogDir = strings.TrimSpace(os.Getenv("CARD_CATALOG_DIR"))

	if v := strings.TrimSpace(os.Getenv("CARD_DRAW_INTERVAL")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CARD_DRAW_INTERVAL must be a positive integer: %q", v)
		}
		cfg.CardDrawInterval = n
	}

	for _, s := range splitList(os.Getenv("DISABLED_CARDS")) {
		t, err := cards.ParseType(s)
		if err != nil {
			return nil, fmt.Errorf("DISABLED_CARDS: %w", err)
		}
		cfg.DisabledCards = append(cfg.DisabledCards, t)
	}

	if v := strings.TrimSpace(os.Getenv("CARD_SEED")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("CARD_SEED: %w", err)
		}
		cfg.CardSeed = &n
	}

	if v := strings.TrimSpace(os.Getenv("PING_INTERVAL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PingInterval = time.Duration(n) * time.Second
		}
	}

	return cfg, nil
}

func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid LISTEN_ADDR %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return errors.New("invalid LISTEN_ADDR port: " + port)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
