package cargoweb

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a zap-backed logger for the given level string.
//
// Accepted levels are debug, info, warn and error; empty means info. At debug
// level, V(1) and V(2) messages (commands run, raw build output) are shown.
func NewLogger(level string) (logr.Logger, error) {
	var zapLevel zapcore.Level
	development := false
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		development = true
		zapLevel = zapcore.Level(-2)
	case "info", "":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return logr.Logger{}, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	zl, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, fmt.Errorf("build logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}
