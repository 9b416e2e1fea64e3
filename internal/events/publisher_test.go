package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}

type MockChecker struct {
	mock.Mock
	done chan struct{}
}

func (m *MockChecker) CheckAchievements(ctx context.Context, userID string, trigger model.Trigger) {
	m.Called(ctx, userID, trigger)
	close(m.done)
}

func TestStreamPublisher_Emit(t *testing.T) {
	q := new(MockQueue)
	q.On("PublishJSON", mock.Anything, mock.AnythingOfType("model.TriggerEvent"), map[string]string{MetaTrigger: "add_expense"}).
		Return("1-0", nil)

	NewStreamPublisher(q).Emit(context.Background(), "u1", model.TriggerAddExpense)

	q.AssertExpectations(t)
	ev := q.Calls[0].Arguments.Get(1).(model.TriggerEvent)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, model.TriggerAddExpense, ev.Trigger)
	assert.NotEmpty(t, ev.ID)
	assert.WithinDuration(t, time.Now(), ev.OccurredAt, time.Minute)
}

func TestStreamPublisher_EmitSwallowsErrors(t *testing.T) {
	q := new(MockQueue)
	q.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("redis down"))

	assert.NotPanics(t, func() {
		NewStreamPublisher(q).Emit(context.Background(), "u1", model.TriggerCreateGroup)
	})
	q.AssertExpectations(t)
}

func TestStreamPublisher_UsesUncancelledContext(t *testing.T) {
	q := new(MockQueue)
	q.On("PublishJSON", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything, mock.Anything).
		Return("1-0", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewStreamPublisher(q).Emit(ctx, "u1", model.TriggerInviteMember)
	q.AssertExpectations(t)
}

func TestInlinePublisher_Emit(t *testing.T) {
	c := &MockChecker{done: make(chan struct{})}
	c.On("CheckAchievements", mock.Anything, "u1", model.TriggerAddExpense).Return()

	NewInlinePublisher(c, time.Second).Emit(context.Background(), "u1", model.TriggerAddExpense)

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("checker was not called")
	}
	c.AssertExpectations(t)
}

func TestTriggerEvent_JSONShape(t *testing.T) {
	ev := NewEvent("u1", model.TriggerMonthEnd)
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "month_end", fields["trigger"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Contains(t, fields, "occurred_at")
}
