package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/pishop/storefront/pkg/config"
	"github.com/pishop/storefront/pkg/database"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Store
	StoreName string `env:"STORE_NAME" envDefault:"PiShop AI"`
	Currency  string `env:"STORE_CURRENCY" envDefault:"USD"`

	// Admin API
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin123"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis. An empty host selects the in-process cart store, which is only
	// suitable for local development.
	RedisHost string `env:"REDIS_HOST" envDefault:""`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Cart sessions
	CartTTLMinutes int `env:"CART_TTL_MINUTES" envDefault:"1440"`

	// Carrier gateway
	CarrierLatencyMs      int `env:"CARRIER_LATENCY_MS" envDefault:"1500"`
	CarrierTimeoutSeconds int `env:"CARRIER_TIMEOUT_SECONDS" envDefault:"5"`

	// Carrier circuit breaker
	BreakerFailureRatio   float64 `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests    uint32  `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerTimeoutSeconds int     `env:"BREAKER_TIMEOUT_SECONDS" envDefault:"30"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, nil
}

// Postgres returns the PostgreSQL pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPass,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSL,
	}
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// CartTTL returns the cart session expiry as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLMinutes) * time.Minute
}

// CarrierLatency returns the simulated carrier latency as a duration.
func (c *Config) CarrierLatency() time.Duration {
	return time.Duration(c.CarrierLatencyMs) * time.Millisecond
}

// CarrierTimeout returns the per-call carrier timeout as a duration.
func (c *Config) CarrierTimeout() time.Duration {
	return time.Duration(c.CarrierTimeoutSeconds) * time.Second
}
