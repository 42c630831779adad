package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DotEnvFile is the optional file read before environment parsing.
const DotEnvFile = ".env"

// Load parses environment variables into the provided struct. Values from an
// optional .env file in the working directory are applied first; variables
// already present in the process environment take precedence.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"REVIEW_HTTP_PORT" envDefault:"3000"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	return LoadFiles(cfg, DotEnvFile)
}

// LoadFiles is like Load but reads the given dotenv files instead of .env.
// Missing files are skipped.
func LoadFiles(cfg any, files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
