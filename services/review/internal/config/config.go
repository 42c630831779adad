package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/ReviewInsights/pkg/config"
	"github.com/utafrali/ReviewInsights/pkg/database"
)

// Review store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Config holds all configuration for the review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEW_HTTP_PORT" envDefault:"3000"`

	// Sentiment API
	SentimentAPIURL         string `env:"SENTIMENT_API_URL" envDefault:"http://localhost:8000"`
	SentimentAPITimeoutMs   int    `env:"SENTIMENT_API_TIMEOUT_MS" envDefault:"5000"`
	SentimentBreakerEnabled bool   `env:"SENTIMENT_BREAKER_ENABLED" envDefault:"true"`

	// Review store
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`

	// PostgreSQL
	DBHost               string `env:"DB_HOST"`
	DBName               string `env:"DB_NAME"`
	DBPort               int    `env:"DB_PORT" envDefault:"5432"`
	DBUser               string `env:"DB_USER"`
	DBPassword           string `env:"DB_PASSWORD"`
	DBUseIntegratedAuth  bool   `env:"DB_USE_INTEGRATED_AUTH" envDefault:"false"`
	DBEncrypt            bool   `env:"DB_ENCRYPT" envDefault:"true"`
	DBTrustCert          bool   `env:"DB_TRUST_CERT" envDefault:"false"`
	DBPoolMax            int32  `env:"DB_POOL_MAX" envDefault:"10"`
	DBPoolMin            int32  `env:"DB_POOL_MIN" envDefault:"0"`
	DBPoolIdleMs         int    `env:"DB_POOL_IDLE_MS" envDefault:"30000"`
	SlowQueryThresholdMs int    `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// SQLite
	SQLitePath string `env:"SQLITE_PATH" envDefault:"reviews.db"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	// KafkaPublishTimeoutMs caps how long a create request waits on Kafka.
	KafkaPublishTimeoutMs int `env:"KAFKA_PUBLISH_TIMEOUT_MS" envDefault:"1000"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Debug endpoints (development only)
	DebugAllowedCIDRs []string `env:"DEBUG_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from the environment (and an optional .env file)
// and fails when anything the selected backend needs is missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and the fields required by StoreBackend.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SentimentAPIURL == "" {
		return errors.New("SENTIMENT_API_URL is required")
	}
	if c.SentimentAPITimeoutMs <= 0 {
		return fmt.Errorf("SENTIMENT_API_TIMEOUT_MS must be positive, got %d", c.SentimentAPITimeoutMs)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.KafkaEnabled && c.KafkaPublishTimeoutMs <= 0 {
		return fmt.Errorf("KAFKA_PUBLISH_TIMEOUT_MS must be positive, got %d", c.KafkaPublishTimeoutMs)
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		return c.validatePostgres()
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	case BackendRedis:
		if c.RedisHost == "" {
			return errors.New("REDIS_HOST is required")
		}
		if c.RedisPort < 1 || c.RedisPort > 65535 {
			return fmt.Errorf("invalid redis port: %d", c.RedisPort)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func (c *Config) validatePostgres() error {
	var missing []string
	if c.DBHost == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if !c.DBUseIntegratedAuth {
		if c.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
		if c.DBPassword == "" {
			missing = append(missing, "DB_PASSWORD")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required database configuration: %v", missing)
	}
	if c.DBPort < 1 || c.DBPort > 65535 {
		return fmt.Errorf("invalid database port: %d", c.DBPort)
	}
	if c.DBPoolMin < 0 || c.DBPoolMax < 1 || c.DBPoolMin > c.DBPoolMax {
		return fmt.Errorf("invalid database pool bounds: min=%d max=%d", c.DBPoolMin, c.DBPoolMax)
	}
	return nil
}

// SentimentTimeout returns the per-call sentiment API timeout.
func (c *Config) SentimentTimeout() time.Duration {
	return time.Duration(c.SentimentAPITimeoutMs) * time.Millisecond
}

// KafkaPublishTimeout returns KafkaPublishTimeoutMs as a duration.
func (c *Config) KafkaPublishTimeout() time.Duration {
	return time.Duration(c.KafkaPublishTimeoutMs) * time.Millisecond
}

// SlowQueryThreshold returns the duration above which queries are logged.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}

// Postgres builds the connection settings for the postgres store. With
// integrated auth the credentials are left empty so the driver falls back to
// the process environment (PGPASSFILE, GSS).
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.PostgresConfig{
		Host:            c.DBHost,
		Port:            c.DBPort,
		DBName:          c.DBName,
		SSLMode:         database.SSLModeFor(c.DBEncrypt, c.DBTrustCert),
		MaxConns:        c.DBPoolMax,
		MinConns:        c.DBPoolMin,
		MaxConnIdleTime: time.Duration(c.DBPoolIdleMs) * time.Millisecond,
		ConnectTimeout:  10 * time.Second,
	}
	if !c.DBUseIntegratedAuth {
		pg.User = c.DBUser
		pg.Password = c.DBPassword
	}
	return pg
}

// Redis builds the connection settings for the redis store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:        c.RedisHost,
		Port:        c.RedisPort,
		Password:    c.RedisPassword,
		DB:          c.RedisDB,
		DialTimeout: 5 * time.Second,
	}
}

// IsDevelopment reports whether debug-only routes may be mounted.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
