package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/holychess/anarchess/internal/config"
	"github.com/holychess/anarchess/internal/notify"
	"github.com/holychess/anarchess/internal/obslog"
	"github.com/holychess/anarchess/internal/rating"
	"github.com/holychess/anarchess/internal/session"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.L().Sync()

	store, rdb, err := session.NewRedisStoreFromURL(cfg.RedisURL)
	if err != nil {
		obslog.L().Fatal("redis init error", zap.Error(err))
	}
	defer rdb.Close()

	deps := session.Deps{
		Store:    store,
		Notifier: notify.NewRedisNotifier(rdb),
		Now:      time.Now,
	}

	if cfg.DatabaseURL != "" {
		repo, err := rating.NewRepository(cfg.DatabaseURL)
		if err != nil {
			obslog.L().Fatal("postgres init error", zap.Error(err))
		}
		defer repo.Close()
		deps.Finalizer = repo
	} else {
		obslog.L().Warn("no DATABASE_URL configured, games will not be archived or rated")
	}

	mgr := session.NewManager(
		session.Config{
			AbortMoveThreshold: cfg.AbortMoveThreshold,
			DrawCooldownMoves:  cfg.DrawCooldownMoves,
		},
		deps,
		session.ManagerOptions{MaxConcurrentGames: cfg.MaxConcurrentGames},
	)

	obslog.L().Info("anarchess server up",
		zap.Int("abort_move_threshold", cfg.AbortMoveThreshold),
		zap.Int("draw_cooldown_moves", cfg.DrawCooldownMoves),
		zap.Int("max_concurrent_games", cfg.MaxConcurrentGames),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	obslog.L().Info("shutting down", zap.String("signal", s.String()))
	mgr.Shutdown()
}
