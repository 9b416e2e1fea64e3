package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{
		PostgresWriteHost:     "db",
		PostgresWriteDatabase: "ledger",
		RedisAddr:             "localhost:6379",
	}
	c.applyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := &Config{}
	c.applyDefaults()

	assert.Equal(t, ":8080", c.HttpListenAddr)
	assert.Equal(t, "achievement:triggers", c.QueueName)
	assert.Equal(t, NotifyLog, c.NotifyDriver)
	assert.Equal(t, 4, c.EvaluationWorkers)
	assert.Equal(t, time.Hour, c.SweepInterval)
	assert.Equal(t, 30*time.Second, c.UnlockLockTTL)
	assert.Equal(t, 168*time.Hour, c.InvitationTTL)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	c := &Config{HttpListenAddr: ":9000", EvaluationWorkers: 2}
	c.applyDefaults()

	assert.Equal(t, ":9000", c.HttpListenAddr)
	assert.Equal(t, 2, c.EvaluationWorkers)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	c := &Config{}
	c.applyDefaults()
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_WRITE_HOST")
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}

func TestValidate_NotifyDriver(t *testing.T) {
	c := validConfig()
	c.NotifyDriver = NotifyWebhook
	assert.ErrorContains(t, c.Validate(), "NOTIFY_WEBHOOK_URL")

	c.NotifyWebhookURL = "http://sink/notify"
	assert.NoError(t, c.Validate())

	c.NotifyDriver = NotifyAMQP
	assert.ErrorContains(t, c.Validate(), "AMQP_URL")

	c.NotifyDriver = "sms"
	assert.ErrorContains(t, c.Validate(), "NOTIFY_DRIVER")
}

func TestReadPostgresFallsBackToWrite(t *testing.T) {
	c := validConfig()
	c.PostgresWritePort = "5432"
	c.PostgresReadHost = "replica"

	read := c.ReadPostgres()
	assert.Equal(t, "replica", read.Host)
	assert.Equal(t, "5432", read.Port)
	assert.Equal(t, "ledger", read.Database)
	assert.Equal(t, "db", c.WritePostgres().Host)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "POSTGRES_WRITE_HOST=db\nPOSTGRES_WRITE_DBNAME=ledger\nREDIS_ADDR=localhost:6379\nSWEEP_WORKERS=3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"POSTGRES_WRITE_HOST", "POSTGRES_WRITE_DBNAME", "REDIS_ADDR", "SWEEP_WORKERS"} {
			os.Unsetenv(k)
		}
		config = nil
	})

	require.NoError(t, Load(path))
	assert.Equal(t, 3, Get().SweepWorkers)
	assert.Equal(t, "db", Get().PostgresWriteHost)
}

func TestLoad_MissingFile(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.env")))
}
