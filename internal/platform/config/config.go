// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (stores, token service) via constructors.
  - Zero Hidden State: No global variables are used to store config. In
    particular the signing secret and algorithm live in the config struct
    passed to [sec.NewTokenService], never in package-level state.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/keyra/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the Keyra API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// StorageEngine selects the UserStore backend: postgres, redis or memory.
	StorageEngine string `env:"STORAGE_ENGINE" envDefault:"postgres"`

	// Relational Database (PostgreSQL). Required for STORAGE_ENGINE=postgres.
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value store (Redis). Required for STORAGE_ENGINE=redis.
	RedisURL string `env:"REDIS_URL"`

	// Token signing: process-lifetime configuration, set once at startup.
	JWTSecret    string `env:"JWT_SECRET,required"`
	JWTAlgorithm string `env:"JWT_ALGORITHM" envDefault:"HS256"`

	// AccessTokenTTLMinutes is the access token lifetime in minutes.
	AccessTokenTTLMinutes int `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"15"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Engine-specific requirements cannot be expressed as struct tags.
	switch cfg.StorageEngine {
	case constants.EnginePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("config: DATABASE_URL is required for STORAGE_ENGINE=postgres")
		}
	case constants.EngineRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("config: REDIS_URL is required for STORAGE_ENGINE=redis")
		}
	case constants.EngineMemory:
		// No external dependencies.
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_ENGINE %q", cfg.StorageEngine)
	}

	return cfg, nil
}

// AccessTokenTTL returns the configured token lifetime as a [time.Duration].
// Falls back to the platform default when the value is not positive.
func (c *Config) AccessTokenTTL() time.Duration {
	if c.AccessTokenTTLMinutes <= 0 {
		return constants.DefaultAccessTokenTTL
	}
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
