package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "census.audit", cfg.AuditTopic)
	assert.Equal(t, 60*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 10*time.Second, cfg.Lock.Timeout)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CENSUS_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://census@localhost/census")
	t.Setenv("LOCK_TTL", "90s")
	t.Setenv("LOCK_TIMEOUT", "2s")
	t.Setenv("REDIS_POOL_SIZE", "25")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://census@localhost/census", cfg.DatabaseURL)
	assert.Equal(t, 90*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 2*time.Second, cfg.Lock.Timeout)
	assert.Equal(t, 25, cfg.Redis.PoolSize)
}

func TestFromEnv_BrokerListIsSanitized(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, kafka-2:9092 ,kafka-1:9092,")

	cfg := FromEnv()

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnv_BadDurationFallsBack(t *testing.T) {
	t.Setenv("LOCK_TTL", "not-a-duration")

	cfg := FromEnv()
	assert.Equal(t, 60*time.Second, cfg.Lock.TTL)
}
