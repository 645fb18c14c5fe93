package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "APP_ENV", "BASE_URL", "LOG_LEVEL", "LOG_FILE", "CODE_MAX_ATTEMPTS", "CODE_LENGTH"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "file:db.sqlite", cfg.DatabaseURL)
	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.LogFile)
	assert.Equal(t, 10, cfg.CodeMaxAttempts)
	assert.Equal(t, 6, cfg.CodeLength)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/linkreg")
	t.Setenv("BASE_URL", "https://sho.rt/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CODE_MAX_ATTEMPTS", "25")
	t.Setenv("CODE_LENGTH", "8")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://localhost/linkreg", cfg.DatabaseURL)
	assert.Equal(t, "https://sho.rt", cfg.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 25, cfg.CodeMaxAttempts)
	assert.Equal(t, 8, cfg.CodeLength)
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid", "7", 7},
		{"padded", " 8 ", 8},
		{"not a number", "many", 6},
		{"below range", "3", 6},
		{"above range", "9", 6},
		{"empty", "", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LINKREG_TEST_INT", tt.value)
			assert.Equal(t, tt.want, getEnvInt("LINKREG_TEST_INT", 6, 6, 8))
		})
	}
}
