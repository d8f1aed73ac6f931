package cargoweb

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap/zaptest"
)

// testLogger routes log output through t.Log.
func testLogger(t *testing.T) logr.Logger {
	t.Helper()
	return zapr.NewLogger(zaptest.NewLogger(t))
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "WARN", "warning", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, err := NewLogger(level)
			if err != nil {
				t.Fatalf("NewLogger(%q) returned error: %v", level, err)
			}
			if logger.GetSink() == nil {
				t.Fatal("expected a logger with a sink")
			}
		})
	}
}

func TestNewLoggerVerbosity(t *testing.T) {
	debug, err := NewLogger("debug")
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if !debug.V(2).Enabled() {
		t.Error("expected build output logging at debug level")
	}

	info, err := NewLogger("info")
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if info.V(1).Enabled() {
		t.Error("expected V(1) to be disabled at info level")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
