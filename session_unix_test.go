//go:build unix

package cargoweb

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

// shellCommand runs script with sh. The trailing `true` keeps sh from
// exec'ing the last command, so sleep runs as a grandchild holding the pipes.
func shellCommand(t *testing.T, script string) Command {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("sh not available: %v", err)
	}
	return Command{Name: sh, Args: []string{"-c", script}}
}

func TestSessionTimeoutStopsDescendants(t *testing.T) {
	session := &BuildSession{Command: shellCommand(t, "sleep 30; true")}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := session.Run(ctx)
	elapsed := time.Since(start)

	if elapsed > 10*time.Second {
		t.Fatalf("expected Run to return soon after the deadline, took %s", elapsed)
	}
	if !errors.Is(err, ErrCompilationFailed) {
		t.Fatalf("expected CompilationFailed, got %v", err)
	}
	if result.Succeeded {
		t.Error("expected failure")
	}
}

func TestSessionMalformedEventStopsDescendants(t *testing.T) {
	session := &BuildSession{Command: shellCommand(t, "echo notjson; sleep 30; true")}

	start := time.Now()
	_, err := session.Run(context.Background())
	elapsed := time.Since(start)

	if elapsed > 10*time.Second {
		t.Fatalf("expected an immediate abort, took %s", elapsed)
	}
	if !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected MalformedEvent, got %v", err)
	}
}
