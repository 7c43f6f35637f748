// Package config loads storefront configuration from the environment.
package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

// Data backends.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// minJWTSecretLen applies outside development.
const minJWTSecretLen = 32

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort            int      `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	HTTPReadTimeoutSec  int      `env:"HTTP_READ_TIMEOUT_SECONDS" envDefault:"15"`
	HTTPWriteTimeoutSec int      `env:"HTTP_WRITE_TIMEOUT_SECONDS" envDefault:"30"`
	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Data backend: rest, postgres or memory
	DataBackend string `env:"DATA_BACKEND" envDefault:"memory"`
	SeedMemory  bool   `env:"SEED_MEMORY_BACKEND" envDefault:"true"`

	// Remote data service (rest backend)
	DataServiceURL            string `env:"DATA_SERVICE_URL"`
	DataServiceAPIKey         string `env:"DATA_SERVICE_API_KEY"`
	DataServiceTimeoutSeconds int    `env:"DATA_SERVICE_TIMEOUT_SECONDS" envDefault:"10"`
	DataServiceMaxRetries     int    `env:"DATA_SERVICE_MAX_RETRIES" envDefault:"0"`

	// Circuit breaker for the data service
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"15"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// PostgreSQL (postgres backend)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"15"`
	RunMigrations         bool  `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Redis session store. Empty keeps sessions in process memory.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka. Empty disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Auth
	JWTSecret           string  `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTAccessTTLMinutes int     `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`
	AuthRateLimitRPS    float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst  int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// Checkout
	ShippingFlatAmount string `env:"SHIPPING_FLAT_AMOUNT" envDefault:"0"`
	Currency           string `env:"CURRENCY" envDefault:"USD"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the process runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	switch c.DataBackend {
	case BackendREST:
		if c.DataServiceURL == "" {
			return fmt.Errorf("DATA_SERVICE_URL is required for the rest backend")
		}
		if _, err := url.ParseRequestURI(c.DataServiceURL); err != nil {
			return fmt.Errorf("invalid DATA_SERVICE_URL %q: %w", c.DataServiceURL, err)
		}
		if c.DataServiceTimeoutSeconds < 1 {
			return fmt.Errorf("DATA_SERVICE_TIMEOUT_SECONDS must be positive, got %d", c.DataServiceTimeoutSeconds)
		}
	case BackendPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("DATA_BACKEND must be one of rest, postgres, memory, got %q", c.DataBackend)
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %f", c.CBFailureRatio)
	}
	if c.JWTAccessTTLMinutes < 1 {
		return fmt.Errorf("JWT_ACCESS_TTL_MINUTES must be positive, got %d", c.JWTAccessTTLMinutes)
	}
	if !c.IsDevelopment() && len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d characters outside development", minJWTSecretLen)
	}
	if c.AuthRateLimitRPS <= 0 || c.AuthRateLimitBurst < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be positive")
	}

	shipping, err := decimal.NewFromString(strings.TrimSpace(c.ShippingFlatAmount))
	if err != nil {
		return fmt.Errorf("invalid SHIPPING_FLAT_AMOUNT %q: %w", c.ShippingFlatAmount, err)
	}
	if shipping.IsNegative() {
		return fmt.Errorf("SHIPPING_FLAT_AMOUNT must not be negative, got %s", c.ShippingFlatAmount)
	}
	if len(strings.TrimSpace(c.Currency)) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter ISO code, got %q", c.Currency)
	}
	return nil
}

// Shipping returns the flat shipping amount. Load has already validated it.
func (c *Config) Shipping() decimal.Decimal {
	d, _ := decimal.NewFromString(strings.TrimSpace(c.ShippingFlatAmount))
	return d
}

// Postgres returns the pool settings for the postgres backend.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the session store connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// DataServiceClient returns the HTTP client settings for the rest backend.
func (c *Config) DataServiceClient() httpclient.Config {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = time.Duration(c.DataServiceTimeoutSeconds) * time.Second
	cfg.MaxRetries = c.DataServiceMaxRetries
	if c.DataServiceAPIKey != "" {
		cfg.Headers = http.Header{
			"Apikey":        {c.DataServiceAPIKey},
			"Authorization": {"Bearer " + c.DataServiceAPIKey},
		}
	}
	return cfg
}

// CircuitBreaker returns the breaker settings for the data service.
func (c *Config) CircuitBreaker() httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         "data-service",
		MaxRequests:  c.CBMaxRequests,
		Interval:     time.Duration(c.CBInterval) * time.Second,
		Timeout:      time.Duration(c.CBTimeout) * time.Second,
		FailureRatio: c.CBFailureRatio,
		MinRequests:  c.CBMinRequests,
	}
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	cfg := tracing.DefaultConfig("storefront")
	cfg.Environment = c.Environment
	cfg.OTLPEndpoint = c.OTELEndpoint
	cfg.SampleRate = c.OTELSampleRate
	cfg.Enabled = c.OTELEnabled
	return cfg
}

// SlowQueryThreshold is the duration above which SQL statements are logged.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}
