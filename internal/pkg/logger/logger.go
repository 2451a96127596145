package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.SugaredLogger
}

func NewLogger(level, format string) *Logger {
	var cfg zap.Config
	if strings.EqualFold(format, "text") || strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{SugaredLogger: base.Sugar()}
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) CommandStart(key, command string) {
	l.With(
		"type", "command",
		"key", key,
		"command", command,
	).Info("command started")
}

func (l *Logger) CommandFailed(key string, elapsed time.Duration, err error) {
	l.With(
		"type", "command",
		"key", key,
		"elapsed", elapsed,
		"error", err.Error(),
	).Error("command failed")
}

func (l *Logger) CommandSuccess(key string, elapsed time.Duration) {
	l.With(
		"type", "command",
		"key", key,
		"elapsed", elapsed,
	).Info("command succeeded")
}

func (l *Logger) ArtifactWritten(kind, path string) {
	l.With(
		"type", "artifact",
		"kind", kind,
		"path", path,
	).Info("artifact written")
}

func (l *Logger) ValidationRejected(action string, err error) {
	l.With(
		"type", "validation",
		"action", action,
		"error", err.Error(),
	).Warn("request rejected")
}
