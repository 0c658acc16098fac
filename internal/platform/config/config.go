// Package config loads typed service configuration from the environment so
// main stays lean. Postgres, Redis, and Kafka are all optional: leaving
// their URLs empty runs the gateway on in-memory stores.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration.
type Config struct {
	Addr          string `env:"CUSTOS_ADDR" envDefault:":8080"`
	LogLevel      string `env:"CUSTOS_LOG_LEVEL" envDefault:"info"`
	AgentID       string `env:"CUSTOS_AGENT_ID" envDefault:"custos-gateway"`
	PolicyFile    string `env:"CUSTOS_POLICY_FILE"`
	JWTSigningKey string `env:"CUSTOS_JWT_SIGNING_KEY" envDefault:"dev-secret-change-in-production"`
	PostgresURL   string `env:"CUSTOS_POSTGRES_URL"`

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig configures the escalation queue backend.
type RedisConfig struct {
	URL          string        `env:"CUSTOS_REDIS_URL"`
	PoolSize     int           `env:"CUSTOS_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"CUSTOS_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"CUSTOS_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"CUSTOS_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"CUSTOS_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the audit pipeline. No brokers means the outbox
// relay and consumer are not started.
type KafkaConfig struct {
	Brokers       []string `env:"CUSTOS_KAFKA_BROKERS" envSeparator:","`
	TopicPrefix   string   `env:"CUSTOS_KAFKA_TOPIC_PREFIX" envDefault:"custos"`
	ConsumerGroup string   `env:"CUSTOS_KAFKA_CONSUMER_GROUP" envDefault:"custos-audit-materializer"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
