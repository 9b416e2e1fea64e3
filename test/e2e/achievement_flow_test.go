package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/split-ledger/internal/achievement"
	"github.com/nimasrn/split-ledger/internal/bootstrap"
	"github.com/nimasrn/split-ledger/internal/config"
	"github.com/nimasrn/split-ledger/internal/events"
	"github.com/nimasrn/split-ledger/internal/idempotency"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/processor"
	"github.com/nimasrn/split-ledger/internal/queue"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/internal/services"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/nimasrn/split-ledger/pkg/redis"
	"github.com/nimasrn/split-ledger/test/fixtures"
	"github.com/nimasrn/split-ledger/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestEnvironment struct {
	DB           *pg.DB
	RedisAdapter redis.RedisAdapter
	Queue        *queue.Queue
	Stores       bootstrap.Stores
	Notifier     *helpers.RecordingNotifier
	Engine       *achievement.Engine
	Processor    *processor.ProcessorService

	Groups       *services.GroupService
	Transactions *services.TransactionService
	Invitations  *services.InvitationService
	Profiles     *services.ProfileService
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	ctx := context.Background()

	db := repository.OpenTestDB(t)
	_, adapter := helpers.SetupTestRedis(t)

	cfg := &config.Config{
		UnlockLockTTL:     5 * time.Second,
		EvaluationWorkers: 2,
	}
	queueConfig := queue.QueueConfig{
		Name:              "test:achievement:triggers",
		ConsumerGroup:     "test-processors",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      50 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	}

	producerConfig := queueConfig
	producerConfig.ConsumerName = "test-producer"
	q, err := queue.NewQueue(adapter, producerConfig)
	require.NoError(t, err)

	stores := bootstrap.NewStores(db)
	require.NoError(t, stores.Achievements.Seed(ctx, achievement.Catalog()))

	notifier := &helpers.RecordingNotifier{}
	engine := bootstrap.Engine(cfg, stores, adapter, notifier)

	dedupe := idempotency.NewService(adapter, idempotency.Config{
		LockTTL:            5 * time.Second,
		ProcessedTTL:       time.Hour,
		MaxRetries:         queueConfig.MaxRetries + 1,
		LockKeyPrefix:      "event:lock:",
		ProcessedKeyPrefix: "event:processed:",
		RetryKeyPrefix:     "event:retry:",
	})
	svc := processor.NewProcessorService(adapter, processor.ServiceConfig{
		Queue:     queueConfig,
		Consumers: 2,
		Workers:   4,
	})
	svc.RegisterProcessor(processor.NewTriggerProcessor(engine, dedupe))
	require.NoError(t, svc.Start())

	publisher := events.NewStreamPublisher(q)
	env := &TestEnvironment{
		DB:           db,
		RedisAdapter: adapter,
		Queue:        q,
		Stores:       stores,
		Notifier:     notifier,
		Engine:       engine,
		Processor:    svc,
		Groups:       services.NewGroupService(stores.Groups, stores.Transactions, db, publisher),
		Transactions: services.NewTransactionService(stores.Transactions, stores.Groups, publisher),
		Invitations:  services.NewInvitationService(stores.Invitations, stores.Groups, db, publisher, 0),
		Profiles:     services.NewProfileService(stores.Profiles),
	}
	t.Cleanup(env.Cleanup)
	return env
}

func (env *TestEnvironment) Cleanup() {
	if env.Processor != nil {
		env.Processor.Stop()
	}
	if env.Queue != nil {
		_ = env.Queue.Stop(5 * time.Second)
	}
}

func (env *TestEnvironment) unlockedIDs(t *testing.T, userID string) map[string]struct{} {
	t.Helper()
	ids, err := env.Stores.Achievements.ListUnlockedIDs(context.Background(), userID)
	require.NoError(t, err)
	return ids
}

func TestE2E_FirstExpenseAndGroupUnlock(t *testing.T) {
	env := setupE2EEnvironment(t)
	ctx := context.Background()
	alice := fixtures.Alice

	_, err := env.Profiles.Resolve(ctx, alice.ID)
	require.NoError(t, err)

	_, err = env.Groups.Create(ctx, alice, fixtures.NewGroupRequest("Flat", "500"))
	require.NoError(t, err)
	_, err = env.Transactions.CreateExpense(ctx, alice, fixtures.NewPersonalExpense("Coffee", "4.50"))
	require.NoError(t, err)

	ok := helpers.WaitForCondition(t, 5*time.Second, func() bool {
		return env.Notifier.Has(alice.ID, "group-creator") && env.Notifier.Has(alice.ID, "first-expense")
	})
	require.True(t, ok, "expected group-creator and first-expense unlocks, got %v", env.Notifier.Unlocks())

	ids := env.unlockedIDs(t, alice.ID)
	assert.Contains(t, ids, "group-creator")
	assert.Contains(t, ids, "first-expense")
	assert.NotContains(t, ids, "big-spender-ten")

	assert.Eventually(t, func() bool {
		return env.Processor.Metrics().GetStats().Processed >= 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestE2E_RepeatedTriggersUnlockOnce(t *testing.T) {
	env := setupE2EEnvironment(t)
	ctx := context.Background()
	alice := fixtures.Alice

	for i := 0; i < 3; i++ {
		_, err := env.Transactions.CreateExpense(ctx, alice, fixtures.NewPersonalExpense("Lunch", "12"))
		require.NoError(t, err)
	}

	require.True(t, helpers.WaitForCondition(t, 5*time.Second, func() bool {
		return env.Processor.Metrics().GetStats().Processed >= 3
	}))

	count := 0
	for _, u := range env.Notifier.Unlocks() {
		if u.UserID == alice.ID && u.Achievement.ID == "first-expense" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestE2E_DuplicateEventProcessedOnce(t *testing.T) {
	env := setupE2EEnvironment(t)
	ctx := context.Background()
	bob := fixtures.Bob

	_, _, err := env.Stores.Transactions.Create(ctx, &model.Transaction{
		Title:        "Groceries",
		Type:         model.TransactionTypeExpense,
		Amount:       fixtures.NewPersonalExpense("Groceries", "30").Amount,
		PaidBy:       bob.ID,
		SplitBetween: []string{bob.ID},
		CreatedBy:    bob.ID,
	}, nil)
	require.NoError(t, err)

	ev := events.NewEvent(bob.ID, model.TriggerAddExpense)
	for i := 0; i < 2; i++ {
		_, err := env.Queue.PublishJSON(ctx, ev, map[string]string{events.MetaTrigger: string(ev.Trigger)})
		require.NoError(t, err)
	}

	// a contended copy is retried after the visibility timeout
	require.True(t, helpers.WaitForCondition(t, 15*time.Second, func() bool {
		return env.Processor.Metrics().GetStats().Processed >= 2
	}))
	assert.Len(t, env.Notifier.Unlocks(), 1)
	assert.Contains(t, env.unlockedIDs(t, bob.ID), "first-expense")
}

func TestE2E_InvitationsUnlockSocialButterfly(t *testing.T) {
	env := setupE2EEnvironment(t)
	ctx := context.Background()
	alice := fixtures.Alice

	group, err := env.Groups.Create(ctx, alice, fixtures.NewGroupRequest("Trip", "0"))
	require.NoError(t, err)

	for _, email := range []string{"bob@example.com", "carol@example.com", "dave@example.com"} {
		_, err := env.Invitations.Invite(ctx, alice, group.ID, model.InvitationCreateRequest{Email: email})
		require.NoError(t, err)
	}

	ok := helpers.WaitForCondition(t, 5*time.Second, func() bool {
		return env.Notifier.Has(alice.ID, "social-butterfly")
	})
	require.True(t, ok, "expected social-butterfly unlock, got %v", env.Notifier.Unlocks())
}

func TestE2E_MonthEndSweep(t *testing.T) {
	env := setupE2EEnvironment(t)
	ctx := context.Background()
	alice, bob := fixtures.Alice, fixtures.Bob

	for _, id := range []string{alice.ID, bob.ID} {
		_, err := env.Profiles.Resolve(ctx, id)
		require.NoError(t, err)
	}
	_, err := env.Groups.Create(ctx, alice, fixtures.NewGroupRequest("Household", "500"))
	require.NoError(t, err)
	_, err = env.Transactions.CreateExpense(ctx, alice, fixtures.NewPersonalExpense("Bread", "3"))
	require.NoError(t, err)

	sweeper := achievement.NewSweeper(env.Stores.Profiles, env.Engine, 2)
	n, err := sweeper.RunMonthlyAchievementSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Contains(t, env.unlockedIDs(t, alice.ID), "budget-master")
}
