package config

import (
	"errors"
	"time"
)

// Config represents the timeline service configuration
type Config struct {
	Redis     RedisConfig     `mapstructure:"redis"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Replay    ReplayConfig    `mapstructure:"replay"`
	Retention RetentionConfig `mapstructure:"retention"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// RedisConfig represents the backing store connection configuration
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// StreamConfig represents the change notification stream configuration
type StreamConfig struct {
	// MaxLen > 0 enables approximate trimming of each scope's stream
	MaxLen int64 `mapstructure:"max_len"`
}

// ReplayConfig represents the failed-notification redelivery configuration
type ReplayConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	QueueKey string        `mapstructure:"queue_key"`
}

// RetentionConfig represents aged-record trimming configuration
type RetentionConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Scopes   []string      `mapstructure:"scopes"`
	MaxAge   time.Duration `mapstructure:"max_age"`
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig represents Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// HealthConfig represents health check server configuration
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Redis.Host == "" {
		return errors.New("redis.host is required")
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return errors.New("redis.port must be between 1 and 65535")
	}
	if c.Stream.MaxLen < 0 {
		return errors.New("stream.max_len must not be negative")
	}
	if c.Retention.Enabled {
		if c.Retention.MaxAge <= 0 {
			return errors.New("retention.max_age must be positive when retention is enabled")
		}
		if len(c.Retention.Scopes) == 0 {
			return errors.New("retention.scopes is required when retention is enabled")
		}
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return errors.New("metrics.port must be between 1 and 65535")
	}
	if c.Health.Port <= 0 || c.Health.Port > 65535 {
		return errors.New("health.port must be between 1 and 65535")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			MaxRetries:   3,
			PoolSize:     100,
			MinIdleConns: 10,
		},
		Stream: StreamConfig{
			MaxLen: 0,
		},
		Replay: ReplayConfig{
			Enabled:  true,
			Interval: 10 * time.Second,
			QueueKey: "timeline:pending_events",
		},
		Retention: RetentionConfig{
			Enabled:  false,
			Scopes:   nil,
			MaxAge:   90 * 24 * time.Hour,
			Interval: time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Health: HealthConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
