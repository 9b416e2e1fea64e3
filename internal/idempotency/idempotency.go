// Package idempotency guards work that must happen once per key using Redis
// markers: a short lock while the work runs, a long-lived processed marker
// after it succeeded and a retry counter in between.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/redis"
)

var (
	ErrAlreadyProcessed   = errors.New("already processed")
	ErrLockAcquireFailed  = errors.New("failed to acquire processing lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type Config struct {
	LockTTL      time.Duration
	ProcessedTTL time.Duration
	MaxRetries   int

	RetryKeyPrefix     string
	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultConfig() Config {
	return Config{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "retry:",
		LockKeyPrefix:      "lock:",
		ProcessedKeyPrefix: "processed:",
	}
}

// Store is the subset of the redis adapter the guard needs.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
	Exist(ctx context.Context, key string) (int64, error)
}

type Service struct {
	store  Store
	config Config
}

func NewService(store Store, config Config) *Service {
	def := DefaultConfig()
	if config.LockTTL <= 0 {
		config.LockTTL = def.LockTTL
	}
	if config.ProcessedTTL <= 0 {
		config.ProcessedTTL = def.ProcessedTTL
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.RetryKeyPrefix == "" {
		config.RetryKeyPrefix = def.RetryKeyPrefix
	}
	if config.LockKeyPrefix == "" {
		config.LockKeyPrefix = def.LockKeyPrefix
	}
	if config.ProcessedKeyPrefix == "" {
		config.ProcessedKeyPrefix = def.ProcessedKeyPrefix
	}
	return &Service{store: store, config: config}
}

// Lease is held between a successful Acquire and the matching
// MarkSuccess, MarkFailure or Release.
type Lease struct {
	Key        string
	RetryCount int
	IsRetry    bool
	held       bool
}

func (l *Lease) Held() bool {
	return l != nil && l.held
}

// Acquire takes the processing lock for key. It fails with ErrAlreadyProcessed
// when key was marked processed, ErrMaxRetriesExceeded when it failed too often
// and ErrLockAcquireFailed when another worker holds the lock.
func (s *Service) Acquire(ctx context.Context, key string) (*Lease, error) {
	exists, err := s.store.Exist(ctx, s.config.ProcessedKeyPrefix+key)
	if err != nil {
		// a failed check must not block the work, duplicates are tolerated downstream
		logger.Warn("Failed to check processed status", "key", key, "error", err)
	} else if exists > 0 {
		logger.Debug("Key already processed, skipping", "key", key)
		return nil, ErrAlreadyProcessed
	}

	retryCount, err := s.RetryCount(ctx, key)
	if err != nil {
		logger.Warn("Failed to read retry counter", "key", key, "error", err)
	}
	if retryCount >= s.config.MaxRetries {
		logger.Error("Max retries exceeded", "key", key, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: key=%s, retries=%d", ErrMaxRetriesExceeded, key, retryCount)
	}

	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.store.SetNX(ctx, s.config.LockKeyPrefix+key, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("Failed to acquire lock", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		logger.Debug("Lock already held by another worker", "key", key)
		return nil, ErrLockAcquireFailed
	}

	logger.Debug("Processing lock acquired", "key", key, "retry_count", retryCount, "lock_ttl", s.config.LockTTL)

	return &Lease{
		Key:        key,
		RetryCount: retryCount,
		IsRetry:    retryCount > 0,
		held:       true,
	}, nil
}

// MarkSuccess sets the processed marker and drops the lock and retry counter.
func (s *Service) MarkSuccess(ctx context.Context, l *Lease) error {
	if err := s.store.Set(ctx, s.config.ProcessedKeyPrefix+l.Key, []byte("1"), s.config.ProcessedTTL); err != nil {
		logger.Error("Failed to mark key as processed", "key", l.Key, "error", err)
		return fmt.Errorf("failed to mark as processed: %w", err)
	}

	if err := s.store.Del(ctx, s.config.LockKeyPrefix+l.Key, s.config.RetryKeyPrefix+l.Key); err != nil {
		logger.Warn("Failed to cleanup lock and retry counter", "key", l.Key, "error", err)
	}
	l.held = false
	return nil
}

// MarkFailure bumps the retry counter and releases the lock so the work can be retried.
func (s *Service) MarkFailure(ctx context.Context, l *Lease, reason error) error {
	next := l.RetryCount + 1
	if err := s.store.Set(ctx, s.config.RetryKeyPrefix+l.Key, []byte(strconv.Itoa(next)), s.config.ProcessedTTL); err != nil {
		logger.Error("Failed to increment retry counter", "key", l.Key, "error", err)
	}

	if err := s.Release(ctx, l); err != nil {
		return err
	}

	logger.Warn("Processing failed, will retry",
		"key", l.Key,
		"retry_count", next,
		"max_retries", s.config.MaxRetries,
		"reason", reason)
	return nil
}

// Release drops the lock without recording an outcome.
func (s *Service) Release(ctx context.Context, l *Lease) error {
	if !l.Held() {
		return nil
	}
	if err := s.store.Del(ctx, s.config.LockKeyPrefix+l.Key); err != nil {
		logger.Warn("Failed to release lock", "key", l.Key, "error", err)
		return err
	}
	l.held = false
	return nil
}

func (s *Service) RetryCount(ctx context.Context, key string) (int, error) {
	b, err := s.store.Get(ctx, s.config.RetryKeyPrefix+key)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *Service) IsProcessed(ctx context.Context, key string) (bool, error) {
	exists, err := s.store.Exist(ctx, s.config.ProcessedKeyPrefix+key)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Claim sets the processed marker for key with ttl if it is not set yet and
// reports whether this caller was first.
func (s *Service) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.config.ProcessedTTL
	}
	return s.store.SetNX(ctx, s.config.ProcessedKeyPrefix+key, []byte("1"), ttl)
}

// Run executes fn under the lock for key. It returns the Acquire error when the
// lock is not obtained, ErrAlreadyProcessed included, and marks the outcome
// of fn otherwise.
func (s *Service) Run(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lease, err := s.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer s.Release(ctx, lease) //nolint

	if err := fn(ctx); err != nil {
		_ = s.MarkFailure(ctx, lease, err)
		return err
	}
	return s.MarkSuccess(ctx, lease)
}
