package achievement

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type recordingChecker struct {
	mu      sync.Mutex
	users   []string
	trigger model.Trigger
}

func (c *recordingChecker) CheckAchievements(_ context.Context, userID string, trigger model.Trigger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
	c.trigger = trigger
}

func TestSweeper_ChecksEveryUser(t *testing.T) {
	profiles := new(MockProfiles)
	profiles.On("ListIDs", mock.Anything).Return([]string{"u1", "u2", "u3", "u4", "u5"}, nil)
	checker := &recordingChecker{}

	n, err := NewSweeper(profiles, checker, 2).RunMonthlyAchievementSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	sort.Strings(checker.users)
	assert.Equal(t, []string{"u1", "u2", "u3", "u4", "u5"}, checker.users)
	assert.Equal(t, model.TriggerMonthEnd, checker.trigger)
}

func TestSweeper_NoUsers(t *testing.T) {
	profiles := new(MockProfiles)
	profiles.On("ListIDs", mock.Anything).Return([]string{}, nil)

	n, err := NewSweeper(profiles, &recordingChecker{}, 2).RunMonthlyAchievementSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeper_ListFailure(t *testing.T) {
	profiles := new(MockProfiles)
	profiles.On("ListIDs", mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewSweeper(profiles, &recordingChecker{}, 2).RunMonthlyAchievementSweep(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestSweeper_BudgetMasterEndToEnd(t *testing.T) {
	s := newStores(t)
	_, locker := newLocker(t)
	ctx := context.Background()
	require.NoError(t, s.ach.Seed(ctx, Catalog()))

	now := time.Now().UTC()
	s.addGroup(t, "saver", "500")
	s.addExpense(t, "saver", "200", now)
	s.addGroup(t, "spender", "100")
	s.addExpense(t, "spender", "150", now)

	profiles := new(MockProfiles)
	profiles.On("ListIDs", mock.Anything).Return([]string{"saver", "spender"}, nil)

	engine := NewEngine(s.ach, s.evaluator(now), locker, nil, Config{})
	n, err := NewSweeper(profiles, engine, 2).RunMonthlyAchievementSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	saver, err := s.ach.ListUnlockedIDs(ctx, "saver")
	require.NoError(t, err)
	assert.Contains(t, saver, "budget-master")

	spender, err := s.ach.ListUnlockedIDs(ctx, "spender")
	require.NoError(t, err)
	assert.NotContains(t, spender, "budget-master")
}

type MockClaimer struct {
	mock.Mock
}

func (m *MockClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

type countingRunner struct {
	runs int
}

func (r *countingRunner) RunMonthlyAchievementSweep(context.Context) (int, error) {
	r.runs++
	return 1, nil
}

func TestScheduler_Tick(t *testing.T) {
	t.Run("not the last day", func(t *testing.T) {
		runner := &countingRunner{}
		claimer := new(MockClaimer)
		s := NewScheduler(runner, claimer, time.Minute)
		s.now = func() time.Time { return time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC) }

		ran, err := s.Tick(context.Background())
		require.NoError(t, err)
		assert.False(t, ran)
		claimer.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("last day sweeps once", func(t *testing.T) {
		runner := &countingRunner{}
		claimer := new(MockClaimer)
		claimer.On("Claim", mock.Anything, "sweep:done:2026-02", mock.Anything).Return(true, nil).Once()
		claimer.On("Claim", mock.Anything, "sweep:done:2026-02", mock.Anything).Return(false, nil)
		s := NewScheduler(runner, claimer, time.Minute)
		s.now = func() time.Time { return time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC) }

		ran, err := s.Tick(context.Background())
		require.NoError(t, err)
		assert.True(t, ran)

		ran, err = s.Tick(context.Background())
		require.NoError(t, err)
		assert.False(t, ran)
		assert.Equal(t, 1, runner.runs)
	})

	t.Run("claim failure", func(t *testing.T) {
		claimer := new(MockClaimer)
		claimer.On("Claim", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
		s := NewScheduler(&countingRunner{}, claimer, time.Minute)
		s.now = func() time.Time { return time.Date(2026, 4, 30, 8, 0, 0, 0, time.UTC) }

		_, err := s.Tick(context.Background())
		assert.ErrorContains(t, err, "redis down")
	})
}

func TestIsLastDayOfMonth(t *testing.T) {
	assert.True(t, IsLastDayOfMonth(time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsLastDayOfMonth(time.Date(2028, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsLastDayOfMonth(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)))
}
