package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how much the service logs.
type Config struct {
	Service string
	Level   string
	// File enables a rotated log file next to stdout when set.
	File       string
	MaxSizeMB  int
	MaxAgeDays int
}

// New builds a JSON zap logger writing to stdout and, optionally, a rotated file.
// Every entry carries the service name.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, err
	}

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.File != "" {
		syncers = append(syncers, zapcore.AddSync(buildLumberjackSyncer(cfg)))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(syncers...),
		level,
	)

	return zap.New(core, zap.AddCaller()).With(zap.String("service", cfg.Service)), nil
}

func buildLumberjackSyncer(cfg Config) *lumberjack.Logger {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 7
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize, // megabytes
		MaxBackups: 7,
		MaxAge:     maxAge, // days
		Compress:   false,
	}
}
