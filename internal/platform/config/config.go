package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "census/pkg/platform/strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr         string
	DatabaseURL  string
	Redis        RedisConfig
	KafkaBrokers []string
	AuditTopic   string
	Lock         LockConfig
}

// RedisConfig holds connection settings for the coordination store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LockConfig holds the lease parameters applied to every guarded section.
// The TTL bounds orphaned leases after a crash; the timeout bounds how long
// a contended caller waits before failing.
type LockConfig struct {
	TTL     time.Duration
	Timeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CENSUS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = platformstrings.DedupeAndTrim(strings.Split(raw, ","))
	}

	topic := os.Getenv("AUDIT_TOPIC")
	if topic == "" {
		topic = "census.audit"
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaBrokers: brokers,
		AuditTopic:   topic,
		Lock: LockConfig{
			TTL:     envDuration("LOCK_TTL", 60*time.Second),
			Timeout: envDuration("LOCK_TIMEOUT", 10*time.Second),
		},
	}
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return def
}
