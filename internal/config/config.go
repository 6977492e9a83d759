// Package config centralises configuration parsing for the service.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration values.
type Config struct {
	HTTPAddress  string
	PostgresURL  string // empty selects the in-memory repository
	JWTSecret    string
	JWTIssuer    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads environment variables into Config, applying sensible defaults
// for local dev. A .env file in the working directory is honored if present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddress:  getEnv("HTTP_ADDRESS", ":8080"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),
		JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:    getEnv("JWT_ISSUER", "mygymlogs.identity"),
		ReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT", 5*time.Second),
		WriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:  getDurationEnv("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
