package helpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	// adapters are cached by connection name
	connName := fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

// RecordingNotifier collects delivered unlocks.
type RecordingNotifier struct {
	mu      sync.Mutex
	unlocks []model.AchievementUnlocked
}

func (n *RecordingNotifier) Notify(_ context.Context, u model.AchievementUnlocked) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unlocks = append(n.unlocks, u)
	return nil
}

func (n *RecordingNotifier) Unlocks() []model.AchievementUnlocked {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.AchievementUnlocked(nil), n.unlocks...)
}

// Has reports whether userID was notified of achievementID.
func (n *RecordingNotifier) Has(userID, achievementID string) bool {
	for _, u := range n.Unlocks() {
		if u.UserID == userID && u.Achievement.ID == achievementID {
			return true
		}
	}
	return false
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
