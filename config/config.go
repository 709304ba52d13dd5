/*
Package config loads server settings from the environment.

A .env file in the working directory is loaded first when present (local
development); real environment variables always win. Every key has a
default except DATABASE_URL, which is required for the postgres driver.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	StoreDriver        string        `mapstructure:"STORE_DRIVER"`
	SQLitePath         string        `mapstructure:"SQLITE_PATH"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	AMQPURL            string        `mapstructure:"AMQP_URL"`
	AMQPExchange       string        `mapstructure:"AMQP_EXCHANGE"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`
	CORSAllowedOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RetryAttempts      int           `mapstructure:"PERSIST_RETRY_ATTEMPTS"`
	RetryBackoff       time.Duration `mapstructure:"PERSIST_RETRY_BACKOFF"`
}

var keys = []string{
	"SERVER_PORT", "STORE_DRIVER", "SQLITE_PATH", "DATABASE_URL",
	"AMQP_URL", "AMQP_EXCHANGE", "TIMEZONE", "LOG_LEVEL", "LOG_FORMAT",
	"CORS_ALLOWED_ORIGINS", "PERSIST_RETRY_ATTEMPTS", "PERSIST_RETRY_BACKOFF",
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("STORE_DRIVER", DriverSQLite)
	viper.SetDefault("SQLITE_PATH", "visits.db")
	viper.SetDefault("AMQP_EXCHANGE", "subscriptions")
	viper.SetDefault("TIMEZONE", "Europe/London")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")
	viper.SetDefault("PERSIST_RETRY_ATTEMPTS", 3)
	viper.SetDefault("PERSIST_RETRY_BACKOFF", "50ms")
	viper.AutomaticEnv()

	// Bind explicitly so unset keys still appear in Unmarshal.
	for _, k := range keys {
		_ = viper.BindEnv(k)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, cfg.Validate()
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RetryAttempts < 1 {
		return errors.New("PERSIST_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// Location loads the scheduling timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
