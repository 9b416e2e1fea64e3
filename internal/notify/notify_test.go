package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func unlocked() model.AchievementUnlocked {
	return model.AchievementUnlocked{
		UserID:      "u1",
		Trigger:     model.TriggerAddExpense,
		Achievement: model.Achievement{ID: "first-expense", Title: "First Expense", Emoji: "🧾"},
		UnlockedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier().Notify(context.Background(), unlocked()))
}

func TestStreamNotifier(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)

	require.NoError(t, NewStreamNotifier(adapter, "").Notify(context.Background(), unlocked()))

	entries, err := adapter.Client().XRange(context.Background(), "achievements:unlocked", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first-expense", entries[0].Values["achievement_id"])

	var got model.AchievementUnlocked
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["payload"].(string)), &got))
	assert.Equal(t, "u1", got.UserID)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	return m.Called(ctx, routingKey, body).Error(0)
}

func TestAMQPNotifier(t *testing.T) {
	p := new(MockPublisher)
	p.On("Publish", mock.Anything, "achievement.unlocked", mock.MatchedBy(func(b []byte) bool {
		var n model.AchievementUnlocked
		return json.Unmarshal(b, &n) == nil && n.Achievement.ID == "first-expense"
	})).Return(nil).Once()
	p.On("Publish", mock.Anything, "achievement.unlocked", mock.Anything).Return(errors.New("channel closed"))

	n := NewAMQPNotifier(p, "")
	assert.NoError(t, n.Notify(context.Background(), unlocked()))
	assert.ErrorContains(t, n.Notify(context.Background(), unlocked()), "channel closed")
	p.AssertExpectations(t)
}

func startSink(t *testing.T, handler fasthttp.RequestHandler) func(string) (net.Conn, error) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go srv.Serve(ln) //nolint
	t.Cleanup(func() { _ = srv.Shutdown() })
	return func(string) (net.Conn, error) { return ln.Dial() }
}

func TestWebhookNotifier_Delivers(t *testing.T) {
	var received atomic.Value
	dial := startSink(t, func(ctx *fasthttp.RequestCtx) {
		received.Store(string(ctx.PostBody()))
		ctx.SetStatusCode(fasthttp.StatusAccepted)
	})

	w, err := NewWebhookNotifier(WebhookConfig{URL: "http://sink/notify", Dial: dial})
	require.NoError(t, err)
	require.NoError(t, w.Notify(context.Background(), unlocked()))

	var got model.AchievementUnlocked
	require.NoError(t, json.Unmarshal([]byte(received.Load().(string)), &got))
	assert.Equal(t, "first-expense", got.Achievement.ID)
	assert.Equal(t, int64(1), w.Stats().TotalRequests)
}

func TestWebhookNotifier_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	dial := startSink(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	w, err := NewWebhookNotifier(WebhookConfig{URL: "http://sink/notify", Dial: dial, MaxRetries: 3, RetryDelay: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Notify(context.Background(), unlocked()))

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(2), w.Stats().FailedRequests)
	assert.Equal(t, int32(0), w.Stats().ConsecutiveFails)
}

func TestWebhookNotifier_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	dial := startSink(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})

	w, err := NewWebhookNotifier(WebhookConfig{
		URL:                     "http://sink/notify",
		Dial:                    dial,
		MaxRetries:              5,
		RetryDelay:              time.Millisecond,
		CircuitBreakerThreshold: 2,
		CircuitBreakerTimeout:   time.Hour,
	})
	require.NoError(t, err)

	err = w.Notify(context.Background(), unlocked())
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load(), "stops retrying once the circuit opens")
	assert.True(t, w.Stats().CircuitOpen)

	err = w.Notify(context.Background(), unlocked())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewWebhookNotifier_RequiresURL(t *testing.T) {
	_, err := NewWebhookNotifier(WebhookConfig{})
	assert.Error(t, err)
}
