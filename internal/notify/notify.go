// Package notify delivers achievement unlock notifications through a
// configurable channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/prom"
)

type Notifier interface {
	Notify(ctx context.Context, n model.AchievementUnlocked) error
}

// LogNotifier writes unlocks to the application log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.With("notifier", "log")}
}

func (l *LogNotifier) Notify(_ context.Context, n model.AchievementUnlocked) error {
	l.log.Info("🏆 Achievement unlocked",
		"user_id", n.UserID,
		"achievement_id", n.Achievement.ID,
		"title", n.Achievement.Title,
		"emoji", n.Achievement.Emoji,
		"trigger", n.Trigger)
	prom.NotificationSent("log", "ok")
	return nil
}

// StreamAdder appends entries to a Redis stream.
type StreamAdder interface {
	XAdd(ctx context.Context, key string, values map[string]interface{}) (string, error)
}

// StreamNotifier appends unlocks to a Redis stream for other consumers.
type StreamNotifier struct {
	adder  StreamAdder
	stream string
}

func NewStreamNotifier(adder StreamAdder, stream string) *StreamNotifier {
	if stream == "" {
		stream = "achievements:unlocked"
	}
	return &StreamNotifier{adder: adder, stream: stream}
}

func (s *StreamNotifier) Notify(ctx context.Context, n model.AchievementUnlocked) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = s.adder.XAdd(ctx, s.stream, map[string]interface{}{
		"user_id":        n.UserID,
		"achievement_id": n.Achievement.ID,
		"payload":        string(payload),
	})
	if err != nil {
		prom.NotificationSent("stream", "error")
		return fmt.Errorf("append to %s: %w", s.stream, err)
	}
	prom.NotificationSent("stream", "ok")
	return nil
}

// Publisher is a message broker publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// AMQPNotifier publishes unlocks to a RabbitMQ exchange.
type AMQPNotifier struct {
	publisher  Publisher
	routingKey string
}

func NewAMQPNotifier(p Publisher, routingKey string) *AMQPNotifier {
	if routingKey == "" {
		routingKey = "achievement.unlocked"
	}
	return &AMQPNotifier{publisher: p, routingKey: routingKey}
}

func (a *AMQPNotifier) Notify(ctx context.Context, n model.AchievementUnlocked) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := a.publisher.Publish(ctx, a.routingKey, body); err != nil {
		prom.NotificationSent("amqp", "error")
		return err
	}
	prom.NotificationSent("amqp", "ok")
	return nil
}
