package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string

	LogLevel string
	LogFile  string

	// CodeMaxAttempts bounds generated-code retries on collision.
	CodeMaxAttempts int
	// CodeLength of generated codes, 6 to 8.
	CodeLength int
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:          getEnv("APP_ENV", "local"),
		BaseURL:         strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		CodeMaxAttempts: getEnvInt("CODE_MAX_ATTEMPTS", 10, 1, 1000),
		CodeLength:      getEnvInt("CODE_LENGTH", 6, 6, 8),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// getEnvInt falls back when the value is missing, malformed or outside [lo, hi].
func getEnvInt(key string, fallback, lo, hi int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < lo || n > hi {
		return fallback
	}
	return n
}
