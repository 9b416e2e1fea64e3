package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) RunMonthlyAchievementSweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestAchievementService_ListUnlockedNeverNil(t *testing.T) {
	e := newEnv(t)
	svc := NewAchievementService(e.achRepo, nil)

	out, err := svc.ListUnlocked(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestAchievementService_ListUnlockedJoinsDetails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	one := int64(1)
	require.NoError(t, e.achRepo.Seed(ctx, []model.Achievement{{
		ID: "first-expense", Title: "First Expense", Scope: model.ScopeGlobal,
		TriggerEvent: model.TriggerAddExpense,
		Condition:    model.Condition{Type: model.ConditionCount, Metric: model.MetricExpenses, Target: &one},
	}}))
	_, err := e.achRepo.Unlock(ctx, "alice", "first-expense")
	require.NoError(t, err)

	out, err := NewAchievementService(e.achRepo, nil).ListUnlocked(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Achievement)
	assert.Equal(t, "First Expense", out[0].Achievement.Title)
}

func TestAchievementService_Sweep(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("RunMonthlyAchievementSweep", mock.Anything).Return(3, nil)

	n, err := NewAchievementService(nil, sweeper).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestHealthService(t *testing.T) {
	db := new(MockPinger)
	rd := new(MockPinger)
	db.On("Ping", mock.Anything).Return(nil)
	rd.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()
	rd.On("Ping", mock.Anything).Return(nil)

	svc := NewHealthService(db, rd)
	err := svc.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")

	assert.NoError(t, svc.Get(context.Background()))
}

func TestProfileService_ResolveRegistersUnknownUser(t *testing.T) {
	repo := repository.NewProfileRepository(newEnv(t).db)
	svc := NewProfileService(repo)

	p, err := svc.Resolve(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, "dave", p.ID)

	ids, err := repo.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, ids)

	require.NoError(t, repo.Upsert(context.Background(), model.Profile{ID: "dave", FullName: "Dave"}))
	p, err = svc.Resolve(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, "Dave", p.DisplayName())
}
