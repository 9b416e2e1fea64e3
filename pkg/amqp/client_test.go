package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{12, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(amqp091.ErrClosed))
	assert.True(t, isConnectionError(errors.New("connection refused")))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.False(t, isConnectionError(errors.New("exchange not found")))
}

func TestNewPublisher_RequiresExchange(t *testing.T) {
	_, err := NewPublisher(Config{URL: "amqp://localhost"})
	require.Error(t, err)
}

func TestPublish_StopsOnCancelledContext(t *testing.T) {
	p := &Publisher{
		cfg: Config{Exchange: "ledger", MaxAttempts: 3},
		dial: func(string) (*amqp091.Connection, error) {
			return nil, errors.New("connection refused")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, "achievement.unlocked", []byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
}
