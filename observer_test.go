package cargoweb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestConsoleObserver(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	records := []Record{
		{Stream: StreamStderr, Line: "   Compiling a v0.1.0"},
		{
			Stream: StreamStdout,
			Line:   `{"reason":"message","message":{"rendered":"warning: unused\n"}}`,
			Event:  &BuildEvent{Kind: EventMessage, Reason: ReasonMessage, Rendered: "warning: unused\n"},
		},
		{
			Stream: StreamStdout,
			Line:   `{"reason":"compiler-artifact","filenames":["a.wasm"]}`,
			Event:  &BuildEvent{Kind: EventCompilerArtifact, Reason: ReasonCompilerArtifact, Paths: []string{"a.wasm"}},
		},
		{Stream: StreamStdout, Line: "not json"},
		// Only the attached event is used; the raw line is not decoded again.
		{Stream: StreamStdout, Line: `{"reason":"message","message":{"rendered":"hidden\n"}}`},
	}

	t.Run("quiet", func(t *testing.T) {
		var out bytes.Buffer
		observer := NewConsoleObserver(&out, false)
		for _, rec := range records {
			observer.ObserveBuild(rec)
		}

		expected := "[stderr]    Compiling a v0.1.0\n[stdout] warning: unused\n"
		if out.String() != expected {
			t.Errorf("expected %q, got %q", expected, out.String())
		}
	})

	t.Run("verbose", func(t *testing.T) {
		var out bytes.Buffer
		observer := NewConsoleObserver(&out, true)
		for _, rec := range records {
			observer.ObserveBuild(rec)
		}

		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		if len(lines) != len(records) {
			t.Fatalf("expected %d lines, got %q", len(records), lines)
		}
		if lines[3] != "[stdout] not json" {
			t.Errorf("unexpected raw line %q", lines[3])
		}
	})
}
