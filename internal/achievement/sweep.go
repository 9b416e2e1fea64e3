package achievement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/prom"
	"github.com/nimasrn/split-ledger/pkg/worker"
)

type ProfileLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

type Checker interface {
	CheckAchievements(ctx context.Context, userID string, trigger model.Trigger)
}

// Sweeper runs the month_end check for every known user.
type Sweeper struct {
	profiles ProfileLister
	checker  Checker
	workers  int
	log      logger.Logger
}

func NewSweeper(profiles ProfileLister, checker Checker, workers int) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	return &Sweeper{
		profiles: profiles,
		checker:  checker,
		workers:  workers,
		log:      logger.With("component", "achievement_sweep"),
	}
}

// RunMonthlyAchievementSweep returns how many users were checked. Failures of
// a single user are logged by the checker and do not stop the sweep.
func (s *Sweeper) RunMonthlyAchievementSweep(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { prom.SweepDuration(time.Since(start).Seconds()) }()

	ids, err := s.profiles.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pool := worker.NewWorkerManager(s.workers*2, s.workers, nil)
	var wg sync.WaitGroup
	pool.SetWorker(func(_ int, job interface{}) {
		defer wg.Done()
		s.checker.CheckAchievements(ctx, job.(string), model.TriggerMonthEnd)
	})
	go pool.Start() //nolint
	defer pool.Exit()

	swept := 0
	for _, id := range ids {
		wg.Add(1)
		if err := pool.EnqueueContext(ctx, id); err != nil {
			wg.Done()
			wg.Wait()
			return swept, fmt.Errorf("sweep interrupted after %d users: %w", swept, err)
		}
		swept++
	}
	wg.Wait()

	s.log.Info("Monthly achievement sweep finished", "users", swept, "duration", time.Since(start))
	return swept, nil
}

// IsLastDayOfMonth reports whether t falls on the last calendar day of its month.
func IsLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

// SweepMarker is the once-per-month key shared by every sweeper instance.
func SweepMarker(t time.Time) string {
	return "sweep:done:" + t.Format("2006-01")
}

type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type SweepRunner interface {
	RunMonthlyAchievementSweep(ctx context.Context) (int, error)
}

// Scheduler triggers the sweep on the last day of each month, once across
// all instances sharing the claimer.
type Scheduler struct {
	sweeper  SweepRunner
	claimer  Claimer
	interval time.Duration
	now      func() time.Time
	log      logger.Logger
}

func NewScheduler(sweeper SweepRunner, claimer Claimer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		sweeper:  sweeper,
		claimer:  claimer,
		interval: interval,
		now:      time.Now,
		log:      logger.With("component", "sweep_scheduler"),
	}
}

// Tick sweeps when today is the last day of the month and no instance has
// swept this month yet. It reports whether a sweep ran.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	now := s.now()
	if !IsLastDayOfMonth(now) {
		return false, nil
	}

	first, err := s.claimer.Claim(ctx, SweepMarker(now), 40*24*time.Hour)
	if err != nil {
		return false, fmt.Errorf("claim sweep marker: %w", err)
	}
	if !first {
		s.log.Debug("Sweep already done this month", "marker", SweepMarker(now))
		return false, nil
	}

	if _, err := s.sweeper.RunMonthlyAchievementSweep(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Tick(ctx); err != nil {
		s.log.Error("Scheduled sweep failed", "error", err)
	}
}
