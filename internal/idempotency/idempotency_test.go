package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/split-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*miniredis.Miniredis, *Service) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, NewService(adapter, DefaultConfig())
}

func TestService_Acquire_FirstAttempt(t *testing.T) {
	mr, s := setupService(t)
	ctx := context.Background()

	lease, err := s.Acquire(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, lease.Held())
	assert.False(t, lease.IsRetry)
	assert.Equal(t, 0, lease.RetryCount)
	assert.True(t, mr.Exists("lock:evt-1"))
}

func TestService_Acquire_Concurrent(t *testing.T) {
	_, s := setupService(t)
	ctx := context.Background()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Acquire(ctx, "evt-2"); err == nil {
				atomic.AddInt32(&wins, 1)
			} else {
				assert.ErrorIs(t, err, ErrLockAcquireFailed)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestService_MarkSuccess(t *testing.T) {
	mr, s := setupService(t)
	ctx := context.Background()

	lease, err := s.Acquire(ctx, "evt-3")
	require.NoError(t, err)
	require.NoError(t, s.MarkSuccess(ctx, lease))

	assert.False(t, mr.Exists("lock:evt-3"))
	processed, err := s.IsProcessed(ctx, "evt-3")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = s.Acquire(ctx, "evt-3")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestService_MarkFailure_AllowsRetry(t *testing.T) {
	mr, s := setupService(t)
	ctx := context.Background()

	lease, err := s.Acquire(ctx, "evt-4")
	require.NoError(t, err)
	require.NoError(t, s.MarkFailure(ctx, lease, errors.New("boom")))
	assert.False(t, mr.Exists("lock:evt-4"))

	retry, err := s.Acquire(ctx, "evt-4")
	require.NoError(t, err)
	assert.True(t, retry.IsRetry)
	assert.Equal(t, 1, retry.RetryCount)
}

func TestService_MaxRetriesExceeded(t *testing.T) {
	_, s := setupService(t)
	ctx := context.Background()

	for i := 0; i < DefaultConfig().MaxRetries; i++ {
		lease, err := s.Acquire(ctx, "evt-5")
		require.NoError(t, err)
		require.NoError(t, s.MarkFailure(ctx, lease, errors.New("boom")))
	}

	_, err := s.Acquire(ctx, "evt-5")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestService_Release(t *testing.T) {
	mr, s := setupService(t)
	ctx := context.Background()

	lease, err := s.Acquire(ctx, "evt-6")
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, lease))
	require.NoError(t, s.Release(ctx, lease))
	assert.False(t, mr.Exists("lock:evt-6"))
	assert.False(t, lease.Held())
}

func TestService_Run(t *testing.T) {
	_, s := setupService(t)
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	require.NoError(t, s.Run(ctx, "evt-7", fn))
	assert.ErrorIs(t, s.Run(ctx, "evt-7", fn), ErrAlreadyProcessed)
	assert.Equal(t, 1, calls)
}

func TestService_Claim(t *testing.T) {
	mr, s := setupService(t)
	ctx := context.Background()

	first, err := s.Claim(ctx, "sweep:2026-03", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := s.Claim(ctx, "sweep:2026-03", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	mr.FastForward(2 * time.Hour)
	later, err := s.Claim(ctx, "sweep:2026-03", time.Hour)
	require.NoError(t, err)
	assert.True(t, later)
}
