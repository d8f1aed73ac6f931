package cargoweb

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed build outcome.
type ErrorKind int

// Error kinds. None of them are retried; the only automatic remediation is
// the one-shot install/upgrade performed by ToolchainInstaller.
const (
	KindUnknown ErrorKind = iota
	KindPinnedToolInvalid
	KindManualUpgradeRequired
	KindManualDowngradeRequired
	KindToolInstallFailed
	KindMissingBaseTool
	KindInvalidVersionFormat
	KindMalformedEvent
	KindBuildStartFailed
	KindCompilationFailed
	KindMissingScriptArtifact
	KindMissingBinaryArtifact
)

var kindNames = map[ErrorKind]string{
	KindUnknown:                 "Unknown",
	KindPinnedToolInvalid:       "PinnedToolInvalid",
	KindManualUpgradeRequired:   "ManualUpgradeRequired",
	KindManualDowngradeRequired: "ManualDowngradeRequired",
	KindToolInstallFailed:       "ToolInstallFailed",
	KindMissingBaseTool:         "MissingBaseTool",
	KindInvalidVersionFormat:    "InvalidVersionFormat",
	KindMalformedEvent:          "MalformedEvent",
	KindBuildStartFailed:        "BuildStartFailed",
	KindCompilationFailed:       "CompilationFailed",
	KindMissingScriptArtifact:   "MissingScriptArtifact",
	KindMissingBinaryArtifact:   "MissingBinaryArtifact",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrPinnedToolInvalid       = &Error{Kind: KindPinnedToolInvalid}
	ErrManualUpgradeRequired   = &Error{Kind: KindManualUpgradeRequired}
	ErrManualDowngradeRequired = &Error{Kind: KindManualDowngradeRequired}
	ErrToolInstallFailed       = &Error{Kind: KindToolInstallFailed}
	ErrMissingBaseTool         = &Error{Kind: KindMissingBaseTool}
	ErrInvalidVersionFormat    = &Error{Kind: KindInvalidVersionFormat}
	ErrMalformedEvent          = &Error{Kind: KindMalformedEvent}
	ErrBuildStartFailed        = &Error{Kind: KindBuildStartFailed}
	ErrCompilationFailed       = &Error{Kind: KindCompilationFailed}
	ErrMissingScriptArtifact   = &Error{Kind: KindMissingScriptArtifact}
	ErrMissingBinaryArtifact   = &Error{Kind: KindMissingBinaryArtifact}
)

// Error is the single failure type surfaced by toolchain checks and builds.
//
// Message is user-facing. For KindCompilationFailed it holds the collected
// diagnostic text verbatim, escape sequences included.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
