package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/ReviewInsights/pkg/config"
)

// Config holds configuration for the dashboard client.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	APIURL    string `env:"DASHBOARD_API_URL" envDefault:"http://localhost:3000"`
	TimeoutMs int    `env:"DASHBOARD_TIMEOUT_MS" envDefault:"10000"`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load dashboard config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the API URL is absolute and the timeout positive.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid DASHBOARD_API_URL %q", c.APIURL)
	}
	if c.TimeoutMs <= 0 {
		return errors.New("DASHBOARD_TIMEOUT_MS must be positive")
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
