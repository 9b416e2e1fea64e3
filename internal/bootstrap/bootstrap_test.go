package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/split-ledger/internal/config"
	"github.com/nimasrn/split-ledger/internal/notify"
	"github.com/nimasrn/split-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_ENV=test\n"), 0o600))

	assert.Equal(t, path, EnvPath([]string{"api", "--env=" + path}))
	assert.Empty(t, EnvPath([]string{"api", "--env=" + path + ".missing"}))
	assert.Empty(t, EnvPath([]string{"api"}))
}

func TestHasFlag(t *testing.T) {
	assert.True(t, HasFlag([]string{"sweeper", "--once"}, "--once"))
	assert.False(t, HasFlag([]string{"sweeper", "--once=false"}, "--once"))
}

func TestTriggerQueue(t *testing.T) {
	cfg := &config.Config{
		QueueName:              "triggers",
		QueueConsumerGroup:     "group",
		QueueConsumerName:      "consumer",
		QueueMaxRetries:        4,
		QueueVisibilityTimeout: time.Minute,
		QueuePollInterval:      time.Second,
		QueueBatchSize:         20,
		QueueMaxLen:            500,
		QueueEnableDLQ:         true,
	}

	qc := TriggerQueue(cfg)
	assert.Equal(t, "triggers", qc.Name)
	assert.Equal(t, "group", qc.ConsumerGroup)
	assert.Equal(t, "consumer", qc.ConsumerName)
	assert.Equal(t, 4, qc.MaxRetries)
	assert.Equal(t, time.Minute, qc.VisibilityTimeout)
	assert.Equal(t, time.Second, qc.PollInterval)
	assert.EqualValues(t, 20, qc.BatchSize)
	assert.EqualValues(t, 500, qc.MaxLen)
	assert.True(t, qc.EnableDLQ)
}

func TestNotifier(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	adapter, err := redis.NewRedisAdapter(t.Name(), "", &goredis.UniversalOptions{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     config.Config
		want    interface{}
		wantErr bool
	}{
		{name: "default log", cfg: config.Config{}, want: &notify.LogNotifier{}},
		{name: "stream", cfg: config.Config{NotifyDriver: config.NotifyStream, NotifyStream: "unlocks"}, want: &notify.StreamNotifier{}},
		{name: "webhook", cfg: config.Config{NotifyDriver: config.NotifyWebhook, NotifyWebhookURL: "http://localhost:8081/api/v1/unlocks"}, want: &notify.WebhookNotifier{}},
		{name: "webhook without url", cfg: config.Config{NotifyDriver: config.NotifyWebhook}, wantErr: true},
		{name: "unknown driver", cfg: config.Config{NotifyDriver: "pager"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, closer, err := Notifier(&tt.cfg, adapter)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, closer)
			assert.IsType(t, tt.want, n)
			assert.NoError(t, closer())
		})
	}
}
