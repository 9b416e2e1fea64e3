// Package bootstrap builds the shared runtime pieces of the binaries from
// the loaded configuration.
package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nimasrn/split-ledger/internal/achievement"
	"github.com/nimasrn/split-ledger/internal/config"
	"github.com/nimasrn/split-ledger/internal/idempotency"
	"github.com/nimasrn/split-ledger/internal/notify"
	"github.com/nimasrn/split-ledger/internal/queue"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/pkg/amqp"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/nimasrn/split-ledger/pkg/prom"
	"github.com/nimasrn/split-ledger/pkg/redis"
)

const DefaultMetricsAddr = ":9100"

// EnvPath returns the file passed as --env=path, or "" when none was given
// or it cannot be opened.
func EnvPath(args []string) string {
	for _, v := range args {
		if !strings.HasPrefix(v, "--env=") {
			continue
		}
		path := strings.TrimPrefix(v, "--env=")
		f, err := os.Open(path)
		if err != nil {
			logger.Error("failed to open the passed env file", "path", path, "error", err)
			return ""
		}
		_ = f.Close()
		return path
	}
	return ""
}

func HasFlag(args []string, flag string) bool {
	for _, v := range args {
		if v == flag {
			return true
		}
	}
	return false
}

func Database(cfg *config.Config) (*pg.DB, error) {
	return pg.CreateReadWrite(cfg.ReadPostgres(), cfg.WritePostgres(), cfg.AppEnv == "dev" && cfg.AppDebug)
}

func Redis(cfg *config.Config, connName string) (redis.RedisAdapter, error) {
	return redis.NewRedisAdapter(connName, cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: connName,
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
}

func TriggerQueue(cfg *config.Config) queue.QueueConfig {
	return queue.QueueConfig{
		Name:              cfg.QueueName,
		ConsumerGroup:     cfg.QueueConsumerGroup,
		ConsumerName:      cfg.QueueConsumerName,
		MaxRetries:        cfg.QueueMaxRetries,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		PollInterval:      cfg.QueuePollInterval,
		BatchSize:         cfg.QueueBatchSize,
		MaxLen:            cfg.QueueMaxLen,
		EnableDLQ:         cfg.QueueEnableDLQ,
	}
}

// Notifier builds the unlock notifier for cfg.NotifyDriver. The returned
// closer releases broker connections and is never nil.
func Notifier(cfg *config.Config, adapter redis.RedisAdapter) (achievement.Notifier, func() error, error) {
	noop := func() error { return nil }

	switch cfg.NotifyDriver {
	case "", config.NotifyLog:
		return notify.NewLogNotifier(), noop, nil
	case config.NotifyStream:
		return notify.NewStreamNotifier(adapter, cfg.NotifyStream), noop, nil
	case config.NotifyWebhook:
		n, err := notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:        cfg.NotifyWebhookURL,
			Timeout:    cfg.NotifyWebhookTimeout,
			MaxRetries: cfg.NotifyWebhookRetries,
		})
		if err != nil {
			return nil, nil, err
		}
		return n, noop, nil
	case config.NotifyAMQP:
		p, err := amqp.NewPublisher(amqp.Config{
			URL:          cfg.AMQPURL,
			Exchange:     cfg.AMQPExchange,
			ExchangeType: "direct",
		})
		if err != nil {
			return nil, nil, err
		}
		return notify.NewAMQPNotifier(p, cfg.AMQPRoutingKey), p.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown notify driver %q", cfg.NotifyDriver)
}

// Stores groups the repositories every binary opens.
type Stores struct {
	Transactions *repository.TransactionRepository
	Groups       *repository.GroupRepository
	Budgets      *repository.BudgetRepository
	Invitations  *repository.InvitationRepository
	Achievements *repository.AchievementRepository
	Profiles     *repository.ProfileRepository
}

func NewStores(db *pg.DB) Stores {
	return Stores{
		Transactions: repository.NewTransactionRepository(db),
		Groups:       repository.NewGroupRepository(db),
		Budgets:      repository.NewBudgetRepository(db),
		Invitations:  repository.NewInvitationRepository(db),
		Achievements: repository.NewAchievementRepository(db),
		Profiles:     repository.NewProfileRepository(db),
	}
}

// Engine wires the achievement engine over the stores with unlock locks in
// Redis.
func Engine(cfg *config.Config, stores Stores, adapter redis.RedisAdapter, notifier achievement.Notifier) *achievement.Engine {
	evaluator := achievement.NewEvaluator(stores.Transactions, stores.Groups, stores.Invitations)
	locker := idempotency.NewService(adapter, idempotency.Config{
		LockTTL:            cfg.UnlockLockTTL,
		ProcessedTTL:       400 * 24 * time.Hour,
		LockKeyPrefix:      "lock:",
		ProcessedKeyPrefix: "processed:",
		RetryKeyPrefix:     "retry:",
	})
	return achievement.NewEngine(stores.Achievements, evaluator, locker, notifier, achievement.Config{
		Workers: cfg.EvaluationWorkers,
	})
}

// Metrics registers the collectors and serves them on cfg.MetricsAddr in the
// background.
func Metrics(cfg *config.Config) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		return err
	}
	addr := cfg.MetricsAddr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	go prom.ListenAndServer(addr, cfg.MetricsURI)
	return nil
}
