package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/cardchess/internal/cards"
	appcfg "github.com/park285/cardchess/internal/config"
	"github.com/park285/cardchess/internal/lobby"
	"github.com/park285/cardchess/internal/match"
	"github.com/park285/cardchess/internal/msgcat"
	"github.com/park285/cardchess/internal/notify"
	"github.com/park285/cardchess/internal/obslog"
	"github.com/park285/cardchess/internal/repository"
	"github.com/park285/cardchess/internal/server"
	"go.uber.org/zap"
)

func main() {
	if err := appcfg.LoadDotEnv(); err != nil {
		log.Fatalf("dotenv error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pairer, err := newPairer(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("lobby_init_failed", zap.Error(err))
	}

	var repo *repository.Repository
	if cfg.DatabaseURL != "" {
		repo, err = repository.NewRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("repository_init_failed", zap.Error(err))
		}
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = repo.EnsureSchema(sctx)
		scancel()
		if err != nil {
			logger.Fatal("schema_init_failed", zap.Error(err))
		}
	}

	catalog, err := msgcat.New(cfg.CardCatalogDir)
	if err != nil {
		logger.Fatal("catalog_init_failed", zap.Error(err))
	}

	var notifier server.ResultNotifier
	if c := notify.NewClient(cfg.ResultWebhookURL); c != nil {
		notifier = c
	}
	var store server.ResultStore
	if repo != nil {
		store = repo
	}

	srv, err := server.New(server.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		PingInterval:   cfg.PingInterval,
		MatchOptions:   matchOptions(cfg),
	}, server.Deps{
		Pairer:   pairer,
		Catalog:  catalog,
		Store:    store,
		Notifier: notifier,
	})
	if err != nil {
		logger.Fatal("server_init_failed", zap.Error(err))
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server_listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("instance", cfg.InstanceID),
			zap.Int("draw_interval", cfg.CardDrawInterval),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server_listen_failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("server_shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = srv.Close()
	_ = repo.Close()
}

func newPairer(ctx context.Context, cfg *appcfg.AppConfig) (lobby.Pairer, error) {
	if cfg.RedisURL == "" {
		return lobby.NewMemoryPairer(), nil
	}
	return lobby.NewRedisPairer(ctx, cfg.RedisURL, cfg.InstanceID)
}

// matchOptions gives every room its own draw pool. With CARD_SEED set all
// rooms draw the same sequence.
func matchOptions(cfg *appcfg.AppConfig) func() match.Options {
	return func() match.Options {
		var pool *cards.Pool
		if cfg.CardSeed != nil {
			pool = cards.NewPool(cards.Seeded(*cfg.CardSeed), cfg.DisabledCards)
		} else {
			pool = cards.NewPool(nil, cfg.DisabledCards)
		}
		return match.Options{DrawInterval: cfg.CardDrawInterval, Pool: pool}
	}
}
