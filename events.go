package cargoweb

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventKind tags a BuildEvent.
type EventKind int

const (
	// EventUnknown is any reason this package does not handle. Such events are
	// ignored so newer helpers keep working with older adapters.
	EventUnknown EventKind = iota
	EventCompilerArtifact
	EventMessage
	EventPathsToWatch
)

func (k EventKind) String() string {
	switch k {
	case EventCompilerArtifact:
		return "compiler-artifact"
	case EventMessage:
		return "message"
	case EventPathsToWatch:
		return "paths-to-watch"
	default:
		return "unknown"
	}
}

// Reason values on the helper's JSON event stream.
const (
	ReasonCompilerArtifact = "compiler-artifact"
	ReasonMessage          = "message"
	ReasonPathsToWatch     = HelperName + "-paths-to-watch"
)

// Artifact suffixes recognised in compiler-artifact filenames.
const (
	BinaryModuleSuffix    = ".wasm"
	CompanionScriptSuffix = ".js"
)

// BuildEvent is one decoded line of the helper's standard output.
//
// Only the fields for Kind are set: Paths for EventCompilerArtifact and
// EventPathsToWatch, Rendered for EventMessage. Reason always holds the raw
// discriminator.
type BuildEvent struct {
	Kind     EventKind
	Reason   string
	Paths    []string
	Rendered string
}

// wireEvent mirrors the JSON shape of every reason we understand.
type wireEvent struct {
	Reason    string   `json:"reason"`
	Filenames []string `json:"filenames"`
	Message   *struct {
		Rendered string `json:"rendered"`
	} `json:"message"`
	Paths []struct {
		Path string `json:"path"`
	} `json:"paths"`
}

// ClassifyEvent decodes a single line from the helper's standard output.
//
// Returns an *Error of kind KindMalformedEvent if the line is not a JSON
// object of the expected shape. Callers treat that as a protocol violation
// and abort the session.
func ClassifyEvent(line string) (BuildEvent, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return BuildEvent{}, newError(KindMalformedEvent, fmt.Sprintf("malformed build event %q", truncate(line, 200)), err)
	}
	if raw == nil {
		return BuildEvent{}, newError(KindMalformedEvent, "build event is null", nil)
	}

	var w wireEvent
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return BuildEvent{}, newError(KindMalformedEvent, fmt.Sprintf("malformed %q event", w.Reason), err)
	}

	ev := BuildEvent{Reason: w.Reason}
	switch w.Reason {
	case ReasonCompilerArtifact:
		ev.Kind = EventCompilerArtifact
		ev.Paths = w.Filenames
	case ReasonMessage:
		ev.Kind = EventMessage
		if w.Message != nil {
			ev.Rendered = w.Message.Rendered
		}
	case ReasonPathsToWatch:
		ev.Kind = EventPathsToWatch
		for _, p := range w.Paths {
			ev.Paths = append(ev.Paths, p.Path)
		}
	default:
		ev.Kind = EventUnknown
	}
	return ev, nil
}

// eventCollector holds the per-session state that stdout events update.
type eventCollector struct {
	sourcePath string
	artifacts  Artifacts
	diag       *diagnosticBuffer
	deps       *dependencySet
}

func newEventCollector(sourcePath string, diag *diagnosticBuffer) *eventCollector {
	return &eventCollector{
		sourcePath: sourcePath,
		diag:       diag,
		deps:       newDependencySet(),
	}
}

// Dispatch applies ev to the session state.
//
// For compiler artifacts, the last filename of each suffix class wins and
// replaces whatever an earlier event recorded for that class.
func (c *eventCollector) Dispatch(ev BuildEvent) {
	switch ev.Kind {
	case EventCompilerArtifact:
		for _, name := range ev.Paths {
			switch {
			case strings.HasSuffix(name, BinaryModuleSuffix):
				c.artifacts.Binary = name
			case strings.HasSuffix(name, CompanionScriptSuffix):
				c.artifacts.Script = name
			}
		}
	case EventMessage:
		c.diag.Append(ev.Rendered)
	case EventPathsToWatch:
		for _, p := range ev.Paths {
			if p == c.sourcePath {
				continue
			}
			c.deps.Add(Dependency{Path: p, IncludedInParent: true})
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
