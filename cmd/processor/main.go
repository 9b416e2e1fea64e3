package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/split-ledger/internal/bootstrap"
	"github.com/nimasrn/split-ledger/internal/config"
	"github.com/nimasrn/split-ledger/internal/idempotency"
	"github.com/nimasrn/split-ledger/internal/processor"
	"github.com/nimasrn/split-ledger/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := config.Load(bootstrap.EnvPath(os.Args)); err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting processor", "version", version, "commit", commit, "date", date)

	db, err := bootstrap.Database(cfg)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	redisAdap, err := bootstrap.Redis(cfg, "processor")
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
	engine := bootstrap.Engine(cfg, bootstrap.NewStores(db), redisAdap, notifier)

	// one more than the stream allows, exhausted events go to the dead letter stream
	dedupe := idempotency.NewService(redisAdap, idempotency.Config{
		MaxRetries:         cfg.QueueMaxRetries + 1,
		LockKeyPrefix:      "lock:",
		ProcessedKeyPrefix: "processed:",
		RetryKeyPrefix:     "retry:",
	})

	service := processor.NewProcessorService(redisAdap, processor.ServiceConfig{
		Queue:     bootstrap.TriggerQueue(cfg),
		Consumers: 2,
		Workers:   cfg.ProcessorWorkers,
	})
	service.RegisterProcessor(processor.NewTriggerProcessor(engine, dedupe))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := service.Start(); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}

	<-c
	service.Stop()
}
