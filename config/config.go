// Package config loads service settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type ProviderConfig struct {
	Host              string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
}

type Config struct {
	Addr        string
	DatabaseURL string
	Provider    ProviderConfig
	SyncMinAge  time.Duration
	LogLevel    string
	LogFormat   string
}

func Load() *Config {
	// .env is optional, deployed environments set variables directly
	_ = godotenv.Load()

	return &Config{
		Addr:        getEnv("SHARPE_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Provider: ProviderConfig{
			Host:              getEnv("PROVIDER_HOST", "query1.finance.yahoo.com"),
			RequestTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
			RequestsPerSecond: getEnvAsFloat("PROVIDER_RPS", 2),
			Burst:             getEnvAsInt("PROVIDER_BURST", 4),
		},
		SyncMinAge: getEnvAsDuration("SYNC_MIN_AGE", 24*time.Hour),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
