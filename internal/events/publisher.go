// Package events emits achievement trigger events once a mutation has committed.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/prom"
)

const MetaTrigger = "trigger"

// Publisher emits a trigger for a user. Emit never fails the caller, delivery
// problems are logged.
type Publisher interface {
	Emit(ctx context.Context, userID string, trigger model.Trigger)
}

// JSONQueue is the part of the trigger stream used for publishing.
type JSONQueue interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// NewEvent stamps a trigger with a fresh id and the current time.
func NewEvent(userID string, trigger model.Trigger) model.TriggerEvent {
	return model.TriggerEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		Trigger:    trigger,
		OccurredAt: time.Now().UTC(),
	}
}

// StreamPublisher appends trigger events to the Redis trigger stream.
type StreamPublisher struct {
	queue JSONQueue
}

func NewStreamPublisher(q JSONQueue) *StreamPublisher {
	return &StreamPublisher{queue: q}
}

func (p *StreamPublisher) Emit(ctx context.Context, userID string, trigger model.Trigger) {
	ev := NewEvent(userID, trigger)
	// the request context may already be cancelled once the response is written
	ctx = context.WithoutCancel(ctx)

	id, err := p.queue.PublishJSON(ctx, ev, map[string]string{MetaTrigger: string(trigger)})
	if err != nil {
		prom.EventPublished(string(trigger), "error")
		logger.Error("Failed to publish trigger event", "event_id", ev.ID, "user_id", userID, "trigger", trigger, "error", err)
		return
	}
	prom.EventPublished(string(trigger), "ok")
	logger.Debug("Trigger event published", "event_id", ev.ID, "stream_id", id, "user_id", userID, "trigger", trigger)
}

// Checker runs the achievement check for a trigger.
type Checker interface {
	CheckAchievements(ctx context.Context, userID string, trigger model.Trigger)
}

// InlinePublisher runs the check in a goroutine of the emitting process.
// Used when no processor consumes the trigger stream.
type InlinePublisher struct {
	checker Checker
	timeout time.Duration
}

func NewInlinePublisher(checker Checker, timeout time.Duration) *InlinePublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InlinePublisher{checker: checker, timeout: timeout}
}

func (p *InlinePublisher) Emit(ctx context.Context, userID string, trigger model.Trigger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	prom.EventPublished(string(trigger), "inline")
	go func() {
		defer cancel()
		p.checker.CheckAchievements(ctx, userID, trigger)
	}()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Emit(context.Context, string, model.Trigger) {}
