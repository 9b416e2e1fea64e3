package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/split-ledger/internal/queue"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/redis"
	"github.com/nimasrn/split-ledger/pkg/worker"
)

const (
	DefaultProcessingTimeout = 30 * time.Second
	HealthInterval           = 30 * time.Second
	MetricsInterval          = 30 * time.Second
	ShutdownTimeout          = time.Minute
	// HighLagThreshold is the pending count above which health checks warn.
	HighLagThreshold = 10_000
)

// Processor handles one message. A nil return acknowledges it.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

type ServiceConfig struct {
	Queue             queue.QueueConfig
	Consumers         int
	Workers           int
	BufferSize        int
	ProcessingTimeout time.Duration
}

func (c *ServiceConfig) applyDefaults() {
	if c.Consumers <= 0 {
		c.Consumers = 1
	}
	if c.Workers <= 0 {
		c.Workers = 10
	}
	if c.BufferSize <= 0 {
		c.BufferSize = c.Workers * 100
	}
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = DefaultProcessingTimeout
	}
}

// ProcessorService fans stream consumers into a worker pool running the
// registered Processor.
type ProcessorService struct {
	adapter   redis.RedisAdapter
	cfg       ServiceConfig
	queues    []*queue.Queue
	processor Processor
	metrics   *ServiceMetrics
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	worker    *worker.WorkerManager
}

func NewProcessorService(adapter redis.RedisAdapter, cfg ServiceConfig) *ProcessorService {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &ProcessorService{
		adapter: adapter,
		cfg:     cfg,
		metrics: NewServiceMetrics(),
		ctx:     ctx,
		cancel:  cancel,
		worker:  worker.NewWorkerManager(cfg.BufferSize, cfg.Workers, nil),
	}
}

func (s *ProcessorService) RegisterProcessor(p Processor) {
	s.processor = p
	logger.Info("Registered processor", "type", p.GetType())
}

func (s *ProcessorService) Metrics() *ServiceMetrics {
	return s.metrics
}

func (s *ProcessorService) Start() error {
	if s.processor == nil {
		return errors.New("no processor registered")
	}
	logger.Info("Starting Processor Service...")

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Info("Worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < s.cfg.Consumers; i++ {
		qc := s.cfg.Queue
		qc.ConsumerName = fmt.Sprintf("%s-instance-%d", qc.ConsumerName, i)

		q, err := queue.NewQueue(s.adapter, qc)
		if err != nil {
			return fmt.Errorf("failed to create queue %d: %w", i, err)
		}
		if err := q.Consume(s.messageHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
		logger.Info("Started consumer instance", "instance", i, "consumer", qc.ConsumerName)
	}

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	logger.Info("Processor Service started", "consumers", len(s.queues), "workers", s.cfg.Workers)
	return nil
}

func (s *ProcessorService) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) reportMetrics() {
	st := s.metrics.GetStats()
	logger.Info("Processor metrics",
		"processed", st.Processed,
		"failed", st.Failed,
		"dropped", st.Dropped,
		"rate_per_second", st.RatePerSecond,
		"avg_duration_ms", st.AvgDuration.Milliseconds(),
		"uptime_seconds", int64(st.Uptime.Seconds()))

	for i, q := range s.queues {
		if qs, err := q.GetStats(); err == nil {
			logger.Info("Queue stats", "queue", i, "total", qs.TotalMessages, "pending", qs.PendingMessages)
		}
	}
}

func (s *ProcessorService) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) performHealthCheck() {
	if err := s.adapter.Ping(s.ctx); err != nil {
		logger.Error("Health check failed: redis unreachable", "error", err)
		return
	}
	for i, q := range s.queues {
		st, err := q.GetStats()
		if err != nil {
			logger.Warn("Health check: queue stats unavailable", "queue", i, "error", err)
			continue
		}
		if st.PendingMessages > HighLagThreshold {
			logger.Warn("Health check: queue has high lag", "queue", i, "pending_messages", st.PendingMessages)
		}
	}
	logger.Debug("Health check ok")
}

func (s *ProcessorService) Stop() {
	logger.Info("Shutting down Processor Service...")
	s.cancel()

	done := make(chan struct{}, len(s.queues))
	for i, q := range s.queues {
		go func(index int, q *queue.Queue) {
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("Error stopping queue", "queue", index, "error", err)
			}
			done <- struct{}{}
		}(i, q)
	}
	for range s.queues {
		select {
		case <-done:
		case <-time.After(ShutdownTimeout + 5*time.Second):
			logger.Warn("Timeout waiting for queues to stop")
		}
	}

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()
	logger.Info("Processor Service stopped")
}

type jobResult struct {
	msg        *queue.Message
	resultChan chan error
	ctx        context.Context
}

// messageHandler hands the message to the pool and waits for its result so
// the consumer can ack or leave it pending.
func (s *ProcessorService) messageHandler(ctx context.Context, msg *queue.Message) error {
	msgCtx, cancel := context.WithTimeout(ctx, s.cfg.ProcessingTimeout)
	defer cancel()

	job := &jobResult{
		msg:        msg,
		resultChan: make(chan error, 1),
		ctx:        msgCtx,
	}
	if err := s.worker.EnqueueContext(msgCtx, job); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}

	select {
	case err := <-job.resultChan:
		return err
	case <-msgCtx.Done():
		return fmt.Errorf("timeout waiting for worker to process message: %w", msgCtx.Err())
	}
}

func (s *ProcessorService) workerHandler(workerIndex int, job interface{}) {
	jr, ok := job.(*jobResult)
	if !ok {
		logger.Error("Invalid job type in worker", "worker", workerIndex)
		return
	}
	if jr.ctx.Err() != nil {
		logger.Warn("Job context cancelled before processing started", "worker", workerIndex, "stream_id", jr.msg.ID)
		return
	}

	start := time.Now()
	err := s.processor.Process(jr.ctx, jr.msg)
	switch {
	case err == nil:
		s.metrics.RecordSuccess(time.Since(start))
	case errors.Is(err, ErrDropped):
		s.metrics.RecordDropped()
		logger.Warn("Message dropped", "worker", workerIndex, "stream_id", jr.msg.ID, "reason", err)
		err = nil
	default:
		s.metrics.RecordFailure()
		logger.Error("Failed to process message", "worker", workerIndex, "stream_id", jr.msg.ID, "attempt", jr.msg.Attempts, "error", err)
	}

	// buffered; the handler may already have given up
	jr.resultChan <- err
}
