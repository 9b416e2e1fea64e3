package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nimasrn/split-ledger/internal/achievement"
	"github.com/nimasrn/split-ledger/internal/idempotency"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/queue"
	"github.com/nimasrn/split-ledger/pkg/logger"
)

// ErrDropped marks an event that was acknowledged without a check.
var ErrDropped = errors.New("event dropped")

type Checker interface {
	Check(ctx context.Context, userID string, trigger model.Trigger) (*achievement.Result, error)
}

type Deduper interface {
	Run(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// TriggerProcessor runs the achievement check for trigger events read from
// the stream, once per event id.
type TriggerProcessor struct {
	checker Checker
	dedupe  Deduper
}

func NewTriggerProcessor(checker Checker, dedupe Deduper) *TriggerProcessor {
	return &TriggerProcessor{checker: checker, dedupe: dedupe}
}

func (p *TriggerProcessor) GetType() string {
	return "achievement_trigger"
}

// Process returns nil to acknowledge and an error to leave the message for
// redelivery. Malformed payloads are returned as errors so they end up in
// the dead letter stream.
func (p *TriggerProcessor) Process(ctx context.Context, msg *queue.Message) error {
	var ev model.TriggerEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("Failed to unmarshal trigger event", "stream_id", msg.ID, "error", err)
		return fmt.Errorf("decode trigger event: %w", err)
	}
	if ev.ID == "" || ev.UserID == "" {
		logger.Error("Trigger event without id or user", "stream_id", msg.ID)
		return fmt.Errorf("%w: missing id or user_id", ErrDropped)
	}
	if !ev.Trigger.Valid() {
		logger.Warn("Dropping event with unknown trigger", "event_id", ev.ID, "trigger", ev.Trigger)
		return fmt.Errorf("%w: unknown trigger %q", ErrDropped, ev.Trigger)
	}

	err := p.dedupe.Run(ctx, "event:"+ev.ID, func(ctx context.Context) error {
		res, err := p.checker.Check(ctx, ev.UserID, ev.Trigger)
		if err != nil {
			return err
		}
		logger.Info("Trigger event processed",
			"event_id", ev.ID,
			"user_id", ev.UserID,
			"trigger", ev.Trigger,
			"attempt", msg.Attempts,
			"evaluated", res.Evaluated,
			"unlocked", len(res.Unlocked))
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyProcessed):
		logger.Info("Trigger event already processed, skipping", "event_id", ev.ID)
		return nil
	case errors.Is(err, idempotency.ErrMaxRetriesExceeded):
		logger.Error("Trigger event exceeded retries", "event_id", ev.ID, "user_id", ev.UserID)
		return fmt.Errorf("%w: %v", ErrDropped, err)
	// identity check: a wrapped ErrLockAcquireFailed carries a store error and
	// is handled as a failure below
	case err == idempotency.ErrLockAcquireFailed:
		return errors.New("event is being processed by another consumer")
	default:
		logger.Error("Failed to process trigger event", "event_id", ev.ID, "error", err)
		return err
	}
}
