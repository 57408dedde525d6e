package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ottero", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "ottero", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "Q-", cfg.Billing.QuotePrefix)
		assert.Equal(t, "INV-", cfg.Billing.InvoicePrefix)
		assert.Equal(t, 4, cfg.Billing.NumberWidth)
		assert.Equal(t, SequenceBackendDatabase, cfg.Billing.SequenceBackend)
		assert.Equal(t, 0, cfg.Billing.MaxConflictRetries)
		assert.False(t, cfg.Redis.Enabled)
		assert.False(t, cfg.Events.KafkaEnabled)
		assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	})

	t.Run("loads values from environment variables with OTTERO prefix", func(t *testing.T) {
		t.Setenv("OTTERO_APP_NAME", "billing-test")
		t.Setenv("OTTERO_APP_PORT", "9000")
		t.Setenv("OTTERO_DATABASE_HOST", "testdb.local")
		t.Setenv("OTTERO_DATABASE_PORT", "5433")
		t.Setenv("OTTERO_BILLING_QUOTE_PREFIX", "QT")
		t.Setenv("OTTERO_BILLING_NUMBER_WIDTH", "6")
		t.Setenv("OTTERO_BILLING_MAX_CONFLICT_RETRIES", "2")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "billing-test", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "QT", cfg.Billing.QuotePrefix)
		assert.Equal(t, 6, cfg.Billing.NumberWidth)
		assert.Equal(t, 2, cfg.Billing.MaxConflictRetries)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("OTTERO_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("OTTERO_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("redis sequence requires redis", func(t *testing.T) {
		t.Setenv("OTTERO_BILLING_SEQUENCE_BACKEND", "redis")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.enabled")
	})

	t.Run("unknown sequence backend is rejected", func(t *testing.T) {
		t.Setenv("OTTERO_BILLING_SEQUENCE_BACKEND", "memory")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "billing.sequence_backend")
	})

	t.Run("production requires jwt", func(t *testing.T) {
		t.Setenv("OTTERO_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt")
	})
}

func TestLoadFrom_TOML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[billing]
quote_prefix = "EST-"
invoice_prefix = "TAX-"
number_width = 5

[events]
kafka_enabled = true
kafka_brokers = ["kafka-1:9092", "kafka-2:9092"]
kafka_topic = "documents"
`)))

	cfg, err := loadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "EST-", cfg.Billing.QuotePrefix)
	assert.Equal(t, "TAX-", cfg.Billing.InvoicePrefix)
	assert.Equal(t, 5, cfg.Billing.NumberWidth)
	assert.True(t, cfg.Events.KafkaEnabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, "documents", cfg.Events.KafkaTopic)
}

func TestValidate_Prefixes(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Billing.InvoicePrefix = cfg.Billing.QuotePrefix

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestValidate_KafkaBrokers(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Events.KafkaEnabled = true

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka_brokers")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "billing",
		Password: "p@ss",
		DBName:   "ottero",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Equal(t, "postgres://billing:p%40ss@db:5432/ottero?sslmode=disable", dsn)
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
