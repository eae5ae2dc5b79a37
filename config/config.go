package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Backup   BackupConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Business BusinessConfig
}

type ServerConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080"`
	Env  string `env:"ENV" envDefault:"development"`

	// LogLevel overrides the zap level implied by Env.
	LogLevel string `env:"LOG_LEVEL"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" for the embedded single-file store or "postgres".
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN string `env:"DATABASE_URL" envDefault:"data/auto_repair.db"`
}

// BackupConfig applies to the sqlite store only. A zero Interval disables
// scheduled backups.
type BackupConfig struct {
	Dir      string        `env:"BACKUP_DIR" envDefault:"backups"`
	Interval time.Duration `env:"BACKUP_INTERVAL" envDefault:"0s"`
	Keep     int           `env:"BACKUP_KEEP" envDefault:"14"`
}

// RedisConfig is optional; an empty Addr disables request idempotency.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// KafkaConfig is optional; no brokers means domain events are only logged.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC_SHOP_EVENTS" envDefault:"shop-events"`
}

type ObservabilityConfig struct {
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`
}

type BusinessConfig struct {
	DefaultMinStock int `env:"DEFAULT_MIN_STOCK" envDefault:"10"`
	OrderListLimit  int `env:"ORDER_LIST_LIMIT" envDefault:"100"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded: env=%s, addr=%s, driver=%s", cfg.Server.Env, cfg.Server.Addr, cfg.Database.Driver)
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("BACKUP_INTERVAL must not be negative")
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("BACKUP_KEEP must not be negative")
	}
	if c.Business.DefaultMinStock < 0 {
		return fmt.Errorf("DEFAULT_MIN_STOCK must not be negative")
	}
	if c.Business.OrderListLimit <= 0 {
		return fmt.Errorf("ORDER_LIST_LIMIT must be positive")
	}
	return nil
}
