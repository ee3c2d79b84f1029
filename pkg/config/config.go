// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Base contains configuration shared by the platform and CLI.
type Base struct {
	// Service identification
	ServiceName string
	Environment string // development, staging, production
	Version     string

	// Retention and capacity
	MetricRetention time.Duration
	MaxLogRecords   int

	// Periodic maintenance tick
	TickInterval time.Duration

	// Anomaly detection
	AnomalyWindow int
	AnomalySigma  float64

	// Logging
	LogLevel  string
	LogFormat string // json, text
}

// Load loads base configuration from environment variables.
func Load(serviceName string) (*Base, error) {
	cfg := &Base{
		ServiceName: serviceName,
		Environment: getEnv("ARGUS_ENV", "development"),
		Version:     getEnv("ARGUS_VERSION", "dev"),

		MetricRetention: getEnvDuration("ARGUS_METRIC_RETENTION", 24*time.Hour),
		MaxLogRecords:   getEnvInt("ARGUS_MAX_LOG_RECORDS", 10000),

		TickInterval: getEnvDuration("ARGUS_TICK_INTERVAL", 30*time.Second),

		AnomalyWindow: getEnvInt("ARGUS_ANOMALY_WINDOW", 60),
		AnomalySigma:  getEnvFloat("ARGUS_ANOMALY_SIGMA", 3.0),

		LogLevel:  getEnv("ARGUS_LOG_LEVEL", "info"),
		LogFormat: getEnv("ARGUS_LOG_FORMAT", "json"),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Base) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Base) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
