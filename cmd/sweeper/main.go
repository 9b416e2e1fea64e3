package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/split-ledger/internal/achievement"
	"github.com/nimasrn/split-ledger/internal/bootstrap"
	"github.com/nimasrn/split-ledger/internal/config"
	"github.com/nimasrn/split-ledger/internal/idempotency"
	"github.com/nimasrn/split-ledger/pkg/logger"
)

// sweeper runs the month_end achievement check for every user on the last
// day of each month. --once sweeps immediately and exits.
func main() {
	if err := config.Load(bootstrap.EnvPath(os.Args)); err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()

	db, err := bootstrap.Database(cfg)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	redisAdap, err := bootstrap.Redis(cfg, "sweeper")
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}
	if err := bootstrap.Metrics(cfg); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	notifier, closeNotifier, err := bootstrap.Notifier(cfg, redisAdap)
	if err != nil {
		logger.Error("failed creating notifier", "error", err)
		return
	}
	defer closeNotifier() //nolint

	stores := bootstrap.NewStores(db)
	engine := bootstrap.Engine(cfg, stores, redisAdap, notifier)
	sweeper := achievement.NewSweeper(stores.Profiles, engine, cfg.SweepWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if bootstrap.HasFlag(os.Args, "--once") {
		start := time.Now()
		n, err := sweeper.RunMonthlyAchievementSweep(ctx)
		if err != nil {
			logger.Error("sweep failed", "error", err)
			return
		}
		logger.Info("sweep finished", "users", n, "duration", time.Since(start))
		return
	}

	claimer := idempotency.NewService(redisAdap, idempotency.DefaultConfig())
	scheduler := achievement.NewScheduler(sweeper, claimer, cfg.SweepInterval)
	logger.Info("sweep scheduler started", "interval", cfg.SweepInterval)
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("sweep scheduler stopped", "error", err)
	}
}
