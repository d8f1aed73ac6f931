package cargoweb

import (
	"errors"
	"slices"
	"testing"
)

func TestClassifyEvent(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		kind     EventKind
		paths    []string
		rendered string
	}{
		{
			name:  "compiler artifact",
			line:  `{"reason":"compiler-artifact","package_id":"a 0.1.0","filenames":["out/a.wasm","out/a.js"]}`,
			kind:  EventCompilerArtifact,
			paths: []string{"out/a.wasm", "out/a.js"},
		},
		{
			name:     "message",
			line:     `{"reason":"message","message":{"rendered":"warning: unused variable\n","level":"warning"}}`,
			kind:     EventMessage,
			rendered: "warning: unused variable\n",
		},
		{
			name:  "paths to watch",
			line:  `{"reason":"cargo-web-paths-to-watch","paths":[{"path":"/crate/src/lib.rs"},{"path":"/crate/Cargo.toml"}]}`,
			kind:  EventPathsToWatch,
			paths: []string{"/crate/src/lib.rs", "/crate/Cargo.toml"},
		},
		{
			name: "build script executed",
			line: `{"reason":"build-script-executed","package_id":"a 0.1.0"}`,
			kind: EventUnknown,
		},
		{
			name: "no reason",
			line: `{"foo":1}`,
			kind: EventUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ClassifyEvent(tc.line)
			if err != nil {
				t.Fatalf("ClassifyEvent returned error: %v", err)
			}
			if ev.Kind != tc.kind {
				t.Errorf("expected kind %s, got %s", tc.kind, ev.Kind)
			}
			if !slices.Equal(ev.Paths, tc.paths) {
				t.Errorf("expected paths %q, got %q", tc.paths, ev.Paths)
			}
			if ev.Rendered != tc.rendered {
				t.Errorf("expected rendered %q, got %q", tc.rendered, ev.Rendered)
			}
		})
	}
}

func TestClassifyEventMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"Compiling foo v0.1.0",
		`{"reason":"message"`,
		`null`,
		`[1,2,3]`,
		`{"reason":"compiler-artifact","filenames":"out/a.wasm"}`,
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ClassifyEvent(line)
			if !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("expected MalformedEvent for %q, got %v", line, err)
			}
		})
	}
}

func TestDispatchKeepsLastArtifactOfEachKind(t *testing.T) {
	c := newEventCollector("/crate/Cargo.toml", &diagnosticBuffer{})

	c.Dispatch(BuildEvent{
		Kind:  EventCompilerArtifact,
		Paths: []string{"out/first.js", "out/first.wasm", "out/second.js", "out/second.wasm", "out/lib.rlib"},
	})

	if c.artifacts.Script != "out/second.js" {
		t.Errorf("expected script out/second.js, got %q", c.artifacts.Script)
	}
	if c.artifacts.Binary != "out/second.wasm" {
		t.Errorf("expected binary out/second.wasm, got %q", c.artifacts.Binary)
	}
}

func TestDispatchLaterArtifactEventSupersedes(t *testing.T) {
	c := newEventCollector("", &diagnosticBuffer{})

	c.Dispatch(BuildEvent{Kind: EventCompilerArtifact, Paths: []string{"dep/old.wasm", "dep/old.js"}})
	c.Dispatch(BuildEvent{Kind: EventCompilerArtifact, Paths: []string{"out/new.wasm"}})

	if c.artifacts.Binary != "out/new.wasm" {
		t.Errorf("expected later binary to win, got %q", c.artifacts.Binary)
	}
	if c.artifacts.Script != "dep/old.js" {
		t.Errorf("expected script kept from earlier event, got %q", c.artifacts.Script)
	}
}

func TestDispatchMessagesAndPaths(t *testing.T) {
	diag := &diagnosticBuffer{}
	c := newEventCollector("/crate/Cargo.toml", diag)

	c.Dispatch(BuildEvent{Kind: EventMessage, Rendered: "warning: one\n"})
	c.Dispatch(BuildEvent{Kind: EventMessage, Rendered: "error: two\n"})
	c.Dispatch(BuildEvent{Kind: EventPathsToWatch, Paths: []string{"/crate/Cargo.toml", "/crate/src/lib.rs", "/crate/src/lib.rs"}})
	c.Dispatch(BuildEvent{Kind: EventUnknown, Reason: "future-reason"})

	if got := diag.String(); got != "warning: one\nerror: two\n" {
		t.Errorf("unexpected diagnostics %q", got)
	}

	deps := c.deps.List()
	expected := []Dependency{{Path: "/crate/src/lib.rs", IncludedInParent: true}}
	if !slices.Equal(deps, expected) {
		t.Errorf("expected dependencies %+v, got %+v", expected, deps)
	}
}
