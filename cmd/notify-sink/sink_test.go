package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(capacity int) (*gin.Engine, *Sink) {
	gin.SetMode(gin.TestMode)
	sink := NewSink(capacity)
	return SetupRouter(NewHandler(sink), nil), sink
}

func postUnlock(t *testing.T, r http.Handler, u model.AchievementUnlocked) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(u)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/unlocks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func unlock(user, id string) model.AchievementUnlocked {
	return model.AchievementUnlocked{
		UserID:      user,
		Trigger:     model.TriggerAddExpense,
		Achievement: model.Achievement{ID: id, Title: id},
		UnlockedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSink_ReceiveAndList(t *testing.T) {
	r, sink := newTestRouter(10)

	assert.Equal(t, http.StatusAccepted, postUnlock(t, r, unlock("alice", "first_expense")).Code)
	assert.Equal(t, http.StatusAccepted, postUnlock(t, r, unlock("bob", "first_expense")).Code)
	assert.Equal(t, http.StatusAccepted, postUnlock(t, r, unlock("alice", "ten_expenses")).Code)
	assert.EqualValues(t, 3, sink.Received())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unlocks?user_id=alice", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Unlocks []model.AchievementUnlocked `json:"unlocks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Unlocks, 2)
	assert.Equal(t, "ten_expenses", resp.Unlocks[0].Achievement.ID)
	assert.Equal(t, "first_expense", resp.Unlocks[1].Achievement.ID)
}

func TestSink_RejectsIncompletePayload(t *testing.T) {
	r, sink := newTestRouter(10)

	w := postUnlock(t, r, model.AchievementUnlocked{UserID: "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/unlocks", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, sink.Received())
}

func TestSink_KeepsOnlyCapacity(t *testing.T) {
	sink := NewSink(2)
	sink.Add(unlock("alice", "a"))
	sink.Add(unlock("alice", "b"))
	sink.Add(unlock("alice", "c"))

	recent := sink.Recent("", 0)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Achievement.ID)
	assert.Equal(t, "b", recent[1].Achievement.ID)
	assert.Len(t, sink.Recent("", 1), 1)
	assert.EqualValues(t, 3, sink.Received())
}

func TestSink_Health(t *testing.T) {
	r, _ := newTestRouter(10)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
