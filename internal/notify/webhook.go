package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/prom"
	"github.com/valyala/fasthttp"
)

var ErrCircuitOpen = errors.New("webhook circuit breaker is open")

type WebhookConfig struct {
	URL                     string
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration

	// Dial overrides the connection dialer, used by tests.
	Dial func(addr string) (net.Conn, error)
}

type WebhookStats struct {
	TotalRequests    int64
	FailedRequests   int64
	ConsecutiveFails int32
	LastLatencyMs    int64
	CircuitOpen      bool
}

// WebhookNotifier POSTs unlocks as JSON. After CircuitBreakerThreshold
// consecutive failures it rejects notifications until CircuitBreakerTimeout
// has passed.
type WebhookNotifier struct {
	config WebhookConfig
	client *fasthttp.Client

	totalRequests    atomic.Int64
	failedRequests   atomic.Int64
	consecutiveFails atomic.Int32
	lastLatencyMs    atomic.Int64
	circuitOpenUntil atomic.Int64
}

func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 16
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = 5
	}
	if cfg.CircuitBreakerTimeout <= 0 {
		cfg.CircuitBreakerTimeout = 30 * time.Second
	}

	client := &fasthttp.Client{
		MaxConnsPerHost:     cfg.MaxConns,
		ReadTimeout:         cfg.Timeout,
		WriteTimeout:        cfg.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
	}
	if cfg.Dial != nil {
		client.Dial = cfg.Dial
	}

	logger.Info("Webhook notifier initialized", "url", cfg.URL, "timeout", cfg.Timeout, "max_retries", cfg.MaxRetries)
	return &WebhookNotifier{config: cfg, client: client}, nil
}

func (w *WebhookNotifier) Notify(ctx context.Context, n model.AchievementUnlocked) error {
	if w.circuitOpen() {
		prom.NotificationSent("webhook", "circuit_open")
		return ErrCircuitOpen
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.RetryDelay):
			}
		}

		start := time.Now()
		err := w.doRequest(ctx, body)
		w.totalRequests.Add(1)
		if err != nil {
			w.failedRequests.Add(1)
			w.consecutiveFails.Add(1)
			w.checkCircuitBreaker()

			logger.Warn("Webhook delivery failed", "error", err, "attempt", attempt+1, "achievement_id", n.Achievement.ID)
			lastErr = err
			if w.circuitOpen() {
				break
			}
			continue
		}

		w.consecutiveFails.Store(0)
		w.lastLatencyMs.Store(time.Since(start).Milliseconds())
		prom.NotificationSent("webhook", "ok")
		return nil
	}

	prom.NotificationSent("webhook", "error")
	return fmt.Errorf("webhook failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}

func (w *WebhookNotifier) doRequest(ctx context.Context, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(w.config.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(w.config.Timeout)
	}

	if err := w.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("unexpected status code: %d, body: %s", status, resp.Body())
	}
	return nil
}

func (w *WebhookNotifier) checkCircuitBreaker() {
	fails := w.consecutiveFails.Load()
	if fails >= int32(w.config.CircuitBreakerThreshold) {
		w.circuitOpenUntil.Store(time.Now().Add(w.config.CircuitBreakerTimeout).UnixNano())
		logger.Warn("Webhook circuit breaker opened", "consecutive_fails", fails, "timeout", w.config.CircuitBreakerTimeout)
	}
}

func (w *WebhookNotifier) circuitOpen() bool {
	until := w.circuitOpenUntil.Load()
	if until == 0 {
		return false
	}
	if time.Now().UnixNano() > until {
		// half open: let the next request probe the endpoint
		w.circuitOpenUntil.Store(0)
		w.consecutiveFails.Store(int32(w.config.CircuitBreakerThreshold - 1))
		return false
	}
	return true
}

func (w *WebhookNotifier) Stats() WebhookStats {
	return WebhookStats{
		TotalRequests:    w.totalRequests.Load(),
		FailedRequests:   w.failedRequests.Load(),
		ConsecutiveFails: w.consecutiveFails.Load(),
		LastLatencyMs:    w.lastLatencyMs.Load(),
		CircuitOpen:      w.circuitOpenUntil.Load() > time.Now().UnixNano(),
	}
}
