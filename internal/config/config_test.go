package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APP_ENV", "APP_PORT", "DB_PORT", "DB_TX_ISOLATION", "DB_STEP_TIMEOUT", "DB_MIGRATE",
		"TABLE_CAPACITIES", "ACCESS_TOKEN_TTL_MIN", "BCRYPT_COST", "RABBITMQ_URL", "AMQP_URL", "SMTP_HOST"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "reservations")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, "read_committed", cfg.DBIsolation)
	assert.Equal(t, 5*time.Second, cfg.DBStepTimeout)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, []int{2, 2, 4, 4, 4, 6, 6, 8}, cfg.TableSeed)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Empty(t, cfg.AMQPURL)
	assert.Empty(t, cfg.SMTPHost)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_TX_ISOLATION", "serializable")
	t.Setenv("DB_STEP_TIMEOUT", "750ms")
	t.Setenv("DB_MIGRATE", "off")
	t.Setenv("TABLE_CAPACITIES", "4, x, 6,-1")
	t.Setenv("AMQP_URL", "amqp://broker/")
	t.Setenv("BCRYPT_COST", "bogus")

	cfg := Load()
	assert.Equal(t, "serializable", cfg.DBIsolation)
	assert.Equal(t, 750*time.Millisecond, cfg.DBStepTimeout)
	assert.False(t, cfg.DBMigrate)
	assert.Equal(t, []int{4, 6}, cfg.TableSeed)
	assert.Equal(t, "amqp://broker/", cfg.AMQPURL)
	assert.Equal(t, 12, cfg.BcryptCost, "unparsable ints fall back to the default")

	t.Setenv("RABBITMQ_URL", "amqp://primary/")
	assert.Equal(t, "amqp://primary/", Load().AMQPURL)
}

func TestRateLimitNormalize(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head,")
	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Setenv("REDIS_ADDR", mr.Addr())
	client, err := NewRedisClient(context.Background(), LoadRedisConfig())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewRedisClient(context.Background(), RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
