package config

import (
	"fmt"
	"time"

	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/breaker"
	pkgconfig "github.com/alleny0o/sr-laserworks-ecommerce/pkg/config"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/database"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/tracing"
)

// ServiceName identifies the catalog editor in logs, metrics and traces.
const ServiceName = "catalog-editor"

// Field state store backends.
const (
	FieldStateRedis  = "redis"
	FieldStateMemory = "memory"
)

// Config holds all configuration for the catalog editor service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"CATALOG_HTTP_PORT" envDefault:"8001"`
	RequestTimeoutSecs int      `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	// PprofAllowedCIDRs enables /debug/pprof for these ranges. Empty disables it.
	PprofAllowedCIDRs []string `env:"DEBUG_PPROF_ALLOWED_CIDRS" envSeparator:","`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"catalog"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"catalog_secret"`
	PostgresDB   string `env:"CATALOG_DB_NAME" envDefault:"catalog"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	RunMigrations         bool  `env:"DB_RUN_MIGRATIONS" envDefault:"true"`

	// Redis holds the per-field SKU check state shared by all instances.
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	FieldStateTTL int    `env:"SKU_CHECK_STATE_TTL_MINUTES" envDefault:"60"`
	// FieldStateStore is "redis", or "memory" for a single instance.
	FieldStateStore string `env:"SKU_CHECK_STATE_STORE" envDefault:"redis"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// SKU uniqueness lookups
	SKULookupTimeoutMs   int     `env:"SKU_LOOKUP_TIMEOUT_MS" envDefault:"3000"`
	SKULookupConcurrency int     `env:"SKU_LOOKUP_CONCURRENCY" envDefault:"8"`
	SKUCheckRPS          float64 `env:"SKU_CHECK_RPS" envDefault:"10"`
	SKUCheckBurst        int     `env:"SKU_CHECK_BURST" envDefault:"20"`

	// Circuit breaker around SKU lookups
	BreakerMaxRequests  uint32  `env:"SKU_BREAKER_MAX_REQUESTS" envDefault:"1"`
	BreakerIntervalSecs int     `env:"SKU_BREAKER_INTERVAL_SECONDS" envDefault:"60"`
	BreakerTimeoutSecs  int     `env:"SKU_BREAKER_TIMEOUT_SECONDS" envDefault:"30"`
	BreakerFailureRatio float64 `env:"SKU_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32  `env:"SKU_BREAKER_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	switch c.FieldStateStore {
	case FieldStateRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST is required")
		}
	case FieldStateMemory:
	default:
		return fmt.Errorf("SKU_CHECK_STATE_STORE must be %q or %q, got %q", FieldStateRedis, FieldStateMemory, c.FieldStateStore)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.FieldStateTTL < 1 {
		return fmt.Errorf("SKU_CHECK_STATE_TTL_MINUTES must be positive, got %d", c.FieldStateTTL)
	}
	if c.SKULookupTimeoutMs < 1 {
		return fmt.Errorf("SKU_LOOKUP_TIMEOUT_MS must be positive, got %d", c.SKULookupTimeoutMs)
	}
	if c.SKUCheckRPS <= 0 || c.SKUCheckBurst < 1 {
		return fmt.Errorf("SKU_CHECK_RPS and SKU_CHECK_BURST must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("SKU_BREAKER_FAILURE_RATIO must be in (0, 1], got %f", c.BreakerFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		AppName:         ServiceName,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis client settings.
func (c *Config) Redis() database.RedisConfig {
	cfg := database.DefaultRedisConfig()
	cfg.Host = c.RedisHost
	cfg.Port = c.RedisPort
	cfg.Password = c.RedisPass
	cfg.DB = c.RedisDB
	return cfg
}

// Breaker returns the circuit breaker settings for SKU lookups.
func (c *Config) Breaker() breaker.Config {
	return breaker.Config{
		Name:         "sku-lookup",
		MaxRequests:  c.BreakerMaxRequests,
		Interval:     time.Duration(c.BreakerIntervalSecs) * time.Second,
		Timeout:      time.Duration(c.BreakerTimeoutSecs) * time.Second,
		FailureRatio: c.BreakerFailureRatio,
		MinRequests:  c.BreakerMinRequests,
	}
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	cfg := tracing.DefaultConfig(ServiceName)
	cfg.Environment = c.Environment
	cfg.OTLPEndpoint = c.OTELEndpoint
	cfg.Insecure = c.OTELInsecure
	cfg.SampleRate = c.OTELSampleRate
	cfg.Enabled = c.OTELEnabled
	return cfg
}
