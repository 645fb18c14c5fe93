package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Service: "linkreg", Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWritesServiceFieldToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkreg.log")

	log, err := New(Config{Service: "linkreg", Level: "debug", File: path})
	require.NoError(t, err)

	log.Info("link created", zap.String("code", "abc123"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "linkreg", entry["service"])
	assert.Equal(t, "abc123", entry["code"])
	assert.Equal(t, "link created", entry["msg"])
}
