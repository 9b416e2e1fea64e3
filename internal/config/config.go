package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

const (
	NotifyLog     = "log"
	NotifyStream  = "stream"
	NotifyWebhook = "webhook"
	NotifyAMQP    = "amqp"
)

var config *Config

// Config holds every setting of the ledger binaries. Only this struct must be
// used to hold configuration values, no direct access to env or any other
// config source should be made.
type Config struct {
	AppEnv   string `env:"APP_ENV"`
	AppName  string `env:"APP_NAME"`
	AppDebug bool   `env:"APP_DEBUG"`

	MetricsAddr string `env:"METRICS_ADDR"`
	MetricsURI  string `env:"METRICS_URI"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`
	PostgresSSLMode       string `env:"POSTGRES_SSLMODE"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	QueueName              string        `env:"QUEUE_NAME"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ"`

	// empty publishes nothing to the stream and runs the checks in process
	EventsMode string `env:"EVENTS_MODE"`

	NotifyDriver         string        `env:"NOTIFY_DRIVER"`
	NotifyStream         string        `env:"NOTIFY_STREAM"`
	NotifyWebhookURL     string        `env:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookTimeout time.Duration `env:"NOTIFY_WEBHOOK_TIMEOUT"`
	NotifyWebhookRetries int           `env:"NOTIFY_WEBHOOK_RETRIES"`
	AMQPURL              string        `env:"AMQP_URL"`
	AMQPExchange         string        `env:"AMQP_EXCHANGE"`
	AMQPRoutingKey       string        `env:"AMQP_ROUTING_KEY"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`

	EvaluationWorkers int           `env:"EVALUATION_WORKERS"`
	UnlockLockTTL     time.Duration `env:"UNLOCK_LOCK_TTL"`
	InvitationTTL     time.Duration `env:"INVITATION_TTL"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`
	SweepWorkers  int           `env:"SWEEP_WORKERS"`
	SweepToken    string        `env:"SWEEP_TOKEN"`

	ProcessorWorkers int `env:"PROCESSOR_WORKERS"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration file "+path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	c.applyDefaults()
	if err = c.Validate(); err != nil {
		return err
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set installs c as the loaded configuration.
func Set(c *Config) {
	c.applyDefaults()
	config = c
}

func (c *Config) applyDefaults() {
	if c.AppEnv == "" {
		c.AppEnv = "dev"
	}
	if c.AppName == "" {
		c.AppName = "split_ledger"
	}
	if c.HttpListenAddr == "" {
		c.HttpListenAddr = ":8080"
	}
	if c.MetricsURI == "" {
		c.MetricsURI = "/metrics"
	}
	if c.PromNamespace == "" {
		c.PromNamespace = "ledger"
	}
	if c.QueueName == "" {
		c.QueueName = "achievement:triggers"
	}
	if c.QueueConsumerGroup == "" {
		c.QueueConsumerGroup = "achievement-processors"
	}
	if c.QueueMaxRetries == 0 {
		c.QueueMaxRetries = 3
	}
	if c.QueueVisibilityTimeout == 0 {
		c.QueueVisibilityTimeout = 30 * time.Second
	}
	if c.QueuePollInterval == 0 {
		c.QueuePollInterval = 200 * time.Millisecond
	}
	if c.QueueBatchSize == 0 {
		c.QueueBatchSize = 50
	}
	if c.QueueMaxLen == 0 {
		c.QueueMaxLen = 100000
	}
	if c.EventsMode == "" {
		c.EventsMode = "stream"
	}
	if c.NotifyDriver == "" {
		c.NotifyDriver = NotifyLog
	}
	if c.NotifyStream == "" {
		c.NotifyStream = "achievements:unlocked"
	}
	if c.NotifyWebhookTimeout == 0 {
		c.NotifyWebhookTimeout = 5 * time.Second
	}
	if c.NotifyWebhookRetries == 0 {
		c.NotifyWebhookRetries = 3
	}
	if c.AMQPExchange == "" {
		c.AMQPExchange = "achievements"
	}
	if c.AMQPRoutingKey == "" {
		c.AMQPRoutingKey = "achievement.unlocked"
	}
	if c.EvaluationWorkers == 0 {
		c.EvaluationWorkers = 4
	}
	if c.UnlockLockTTL == 0 {
		c.UnlockLockTTL = 30 * time.Second
	}
	if c.InvitationTTL == 0 {
		c.InvitationTTL = 168 * time.Hour
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Hour
	}
	if c.SweepWorkers == 0 {
		c.SweepWorkers = 8
	}
	if c.ProcessorWorkers == 0 {
		c.ProcessorWorkers = 10
	}
}

// Validate reports every missing or inconsistent setting in one error.
func (c *Config) Validate() error {
	var errs error
	problem := func(msg string) { errs = multierr.Append(errs, errors.New(msg)) }

	if c.PostgresWriteHost == "" {
		problem("POSTGRES_WRITE_HOST is required")
	}
	if c.PostgresWriteDatabase == "" {
		problem("POSTGRES_WRITE_DBNAME is required")
	}
	if c.RedisAddr == "" {
		problem("REDIS_ADDR is required")
	}
	if c.EventsMode != "stream" && c.EventsMode != "inline" {
		problem("EVENTS_MODE must be stream or inline")
	}

	switch c.NotifyDriver {
	case NotifyLog, NotifyStream:
	case NotifyWebhook:
		if c.NotifyWebhookURL == "" {
			problem("NOTIFY_WEBHOOK_URL is required for the webhook driver")
		}
	case NotifyAMQP:
		if c.AMQPURL == "" {
			problem("AMQP_URL is required for the amqp driver")
		}
	default:
		problem("NOTIFY_DRIVER must be one of log, stream, webhook, amqp")
	}

	if c.EvaluationWorkers < 0 || c.SweepWorkers < 0 || c.ProcessorWorkers < 0 {
		problem("worker counts must not be negative")
	}
	if c.QueueMaxRetries < 0 {
		problem("QUEUE_MAX_RETRIES must not be negative")
	}

	if errs != nil {
		return errors.Wrap(errs, "invalid configuration")
	}
	return nil
}

// WritePostgres is the primary database connection.
func (c *Config) WritePostgres() pg.Config {
	return pg.Config{
		Host:     c.PostgresWriteHost,
		Port:     c.PostgresWritePort,
		User:     c.PostgresWriteUser,
		Password: c.PostgresWritePassword,
		Database: c.PostgresWriteDatabase,
		SSLMode:  c.PostgresSSLMode,
	}
}

// ReadPostgres falls back to the write settings for any read field left empty.
func (c *Config) ReadPostgres() pg.Config {
	pick := func(read, write string) string {
		if read != "" {
			return read
		}
		return write
	}
	return pg.Config{
		Host:     pick(c.PostgresReadHost, c.PostgresWriteHost),
		Port:     pick(c.PostgresReadPort, c.PostgresWritePort),
		User:     pick(c.PostgresReadUser, c.PostgresWriteUser),
		Password: pick(c.PostgresReadPassword, c.PostgresWritePassword),
		Database: pick(c.PostgresReadDatabase, c.PostgresWriteDatabase),
		SSLMode:  c.PostgresSSLMode,
	}
}
