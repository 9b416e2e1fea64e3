// Package achievement evaluates the achievement catalog against a user's
// activity and records new unlocks exactly once per (user, achievement).
package achievement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/split-ledger/internal/idempotency"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/prom"
	"golang.org/x/sync/errgroup"
)

type Repository interface {
	ListByTrigger(ctx context.Context, trigger model.Trigger) ([]model.Achievement, error)
	ListUnlockedIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	Unlock(ctx context.Context, userID, achievementID string) (*model.UserAchievement, error)
}

type Conditions interface {
	Evaluate(ctx context.Context, userID string, c model.Condition) (bool, error)
}

// Locker serializes unlocks of one (user, achievement) pair.
type Locker interface {
	Acquire(ctx context.Context, key string) (*idempotency.Lease, error)
	MarkSuccess(ctx context.Context, l *idempotency.Lease) error
	Release(ctx context.Context, l *idempotency.Lease) error
}

type Notifier interface {
	Notify(ctx context.Context, n model.AchievementUnlocked) error
}

type Config struct {
	// Workers bounds concurrent condition evaluations within one check.
	Workers int
}

type Engine struct {
	repo       Repository
	conditions Conditions
	locker     Locker
	notifier   Notifier
	workers    int
	log        logger.Logger
}

func NewEngine(repo Repository, conditions Conditions, locker Locker, notifier Notifier, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Engine{
		repo:       repo,
		conditions: conditions,
		locker:     locker,
		notifier:   notifier,
		workers:    cfg.Workers,
		log:        logger.With("component", "achievement_engine"),
	}
}

// Result lists what one check did.
type Result struct {
	Evaluated int
	Unlocked  []model.UserAchievement
	Failed    int
}

// CheckAchievements runs Check and only logs its failure.
func (e *Engine) CheckAchievements(ctx context.Context, userID string, trigger model.Trigger) {
	if _, err := e.Check(ctx, userID, trigger); err != nil {
		e.log.Error("Achievement check failed", "user_id", userID, "trigger", trigger, "error", err)
	}
}

// Check evaluates every achievement bound to trigger that the user has not
// unlocked yet. Only failures to load the catalog or the existing unlocks are
// returned; a failing achievement is logged and skipped.
func (e *Engine) Check(ctx context.Context, userID string, trigger model.Trigger) (*Result, error) {
	start := time.Now()
	defer func() {
		prom.AchievementCheckDuration(time.Since(start).Seconds(), string(trigger))
	}()

	if !trigger.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownTrigger, trigger)
	}

	achievements, err := e.repo.ListByTrigger(ctx, trigger)
	if err != nil {
		prom.AchievementUnlockFailed("load_catalog")
		return nil, fmt.Errorf("load achievements for %s: %w", trigger, err)
	}
	if len(achievements) == 0 {
		return &Result{}, nil
	}

	unlocked, err := e.repo.ListUnlockedIDs(ctx, userID)
	if err != nil {
		prom.AchievementUnlockFailed("load_unlocked")
		return nil, fmt.Errorf("load unlocked achievements: %w", err)
	}

	res := &Result{}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.workers)

	for _, a := range achievements {
		if _, done := unlocked[a.ID]; done {
			continue
		}
		g.Go(func() error {
			ua, err := e.evaluate(ctx, userID, trigger, a)

			mu.Lock()
			defer mu.Unlock()
			res.Evaluated++
			if err != nil {
				res.Failed++
			} else if ua != nil {
				res.Unlocked = append(res.Unlocked, *ua)
			}
			return nil
		})
	}
	_ = g.Wait()

	e.log.Debug("Achievement check finished",
		"user_id", userID,
		"trigger", trigger,
		"evaluated", res.Evaluated,
		"unlocked", len(res.Unlocked),
		"failed", res.Failed)

	return res, nil
}

func (e *Engine) evaluate(ctx context.Context, userID string, trigger model.Trigger, a model.Achievement) (*model.UserAchievement, error) {
	met, err := e.conditions.Evaluate(ctx, userID, a.Condition)
	if err != nil {
		prom.AchievementUnlockFailed("evaluate")
		e.log.Error("Failed to evaluate achievement condition",
			"user_id", userID, "achievement_id", a.ID, "trigger", trigger, "error", err)
		return nil, err
	}
	prom.AchievementEvaluated(string(trigger), met)
	if !met {
		return nil, nil
	}
	return e.unlock(ctx, userID, trigger, a)
}

func (e *Engine) unlock(ctx context.Context, userID string, trigger model.Trigger, a model.Achievement) (*model.UserAchievement, error) {
	key := LockKey(userID, a.ID)
	lease, err := e.locker.Acquire(ctx, key)
	switch {
	case err == nil:
		defer e.locker.Release(ctx, lease) //nolint
	// only the bare lock sentinel means contention; a wrapped store error falls
	// through to the default case and relies on the unique index
	case errors.Is(err, idempotency.ErrAlreadyProcessed), err == idempotency.ErrLockAcquireFailed:
		// another check owns or already finished this pair
		e.log.Debug("Unlock handled elsewhere", "user_id", userID, "achievement_id", a.ID, "reason", err)
		return nil, nil
	default:
		// without the lock the unique index still rejects a second row
		e.log.Warn("Unlock lock unavailable, continuing", "user_id", userID, "achievement_id", a.ID, "error", err)
	}

	ua, err := e.repo.Unlock(ctx, userID, a.ID)
	if errors.Is(err, repository.ErrAlreadyUnlocked) {
		e.log.Debug("Achievement already unlocked", "user_id", userID, "achievement_id", a.ID)
		if lease != nil {
			_ = e.locker.MarkSuccess(ctx, lease)
		}
		return nil, nil
	}
	if err != nil {
		prom.AchievementUnlockFailed("persist")
		e.log.Error("Failed to persist achievement unlock",
			"user_id", userID, "achievement_id", a.ID, "trigger", trigger, "error", err)
		return nil, err
	}
	if lease != nil {
		_ = e.locker.MarkSuccess(ctx, lease)
	}

	prom.AchievementUnlocked(a.ID)
	e.log.Info("Achievement unlocked", "user_id", userID, "achievement_id", a.ID, "trigger", trigger)

	achievement := a
	ua.Achievement = &achievement
	e.notify(ctx, model.AchievementUnlocked{
		UserID:      userID,
		Trigger:     trigger,
		Achievement: a,
		UnlockedAt:  ua.UnlockedAt,
	})
	return ua, nil
}

func (e *Engine) notify(ctx context.Context, n model.AchievementUnlocked) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.log.Error("Failed to deliver unlock notification",
			"user_id", n.UserID, "achievement_id", n.Achievement.ID, "error", err)
	}
}

// LockKey names the idempotency key of one (user, achievement) pair.
func LockKey(userID, achievementID string) string {
	return "achievement:" + userID + ":" + achievementID
}
