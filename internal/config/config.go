// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"tourdesk/internal/infrastructure/storage/postgres"
	"tourdesk/pkg/logger"
)

// Config holds runtime configuration for the reporting server.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	AppVersion      string        `envconfig:"APP_VERSION" default:"dev"`
	ReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"APP_IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"20s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"30s"`

	// TimeZone is the business time zone periods are computed in.
	TimeZone string `envconfig:"REPORT_TIMEZONE" default:"UTC"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL       string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns        int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// StatementTimeout bounds each query of a snapshot transaction.
	StatementTimeout time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"15s"`

	// ReportSnapshot runs the reads of one report inside a single
	// repeatable-read transaction instead of concurrently.
	ReportSnapshot bool `envconfig:"REPORT_SNAPSHOT" default:"false"`

	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// Empty allows any origin outside production and none in production.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// RedisAddr enables the report cache when set.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database url must be provided")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", c.TimeZone, err)
	}
	if c.RedisAddr != "" && c.ReportCacheTTL <= 0 {
		return errors.New("REPORT_CACHE_TTL must be positive when REDIS_ADDR is set")
	}
	for _, origin := range c.CORSAllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid CORS_ALLOWED_ORIGINS entry %q", origin)
		}
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

// IsProduction returns true when the server runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// CacheEnabled reports whether reports are cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// Redis returns the Redis client options.
func (c *Config) Redis() *redis.Options {
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// IsDevelopment returns true outside production-like environments.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// Location returns the business time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:       c.LogLevel,
		Development: c.IsDevelopment(),
	}
}

// Pool returns the database pool configuration.
func (c *Config) Pool() postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(c.DatabaseURL)
	pc.MaxConns = c.DBMaxConns
	pc.MinConns = c.DBMinConns
	pc.MaxConnLifetime = c.DBMaxConnLifetime
	pc.MaxConnIdleTime = c.DBMaxConnIdleTime
	return pc
}

// TxOptions returns the snapshot transaction options.
func (c *Config) TxOptions() postgres.TxOptions {
	opts := postgres.SnapshotTxOptions()
	opts.StatementTimeout = c.StatementTimeout
	return opts
}
