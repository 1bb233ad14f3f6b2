package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv            string
	Port              string
	AppURL            string
	LogLevel          string
	LogFormat         string
	SimulatorEnabled  bool
	SimulatorInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		AppURL:    getEnv("APP_URL", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	enabled, err := strconv.ParseBool(getEnv("SIMULATOR_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("SIMULATOR_ENABLED must be a boolean: %w", err)
	}
	cfg.SimulatorEnabled = enabled

	interval, err := time.ParseDuration(getEnv("SIMULATOR_INTERVAL", "3s"))
	if err != nil {
		return nil, fmt.Errorf("SIMULATOR_INTERVAL must be a duration: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("SIMULATOR_INTERVAL must be positive, got %v", interval)
	}
	cfg.SimulatorInterval = interval

	if cfg.AppEnv == "production" && cfg.AppURL == "" {
		return nil, fmt.Errorf("APP_URL is required in production")
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode, which
// relaxes the WebSocket origin check for localhost.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
