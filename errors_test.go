package cargoweb

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("build asset: %w", newError(KindToolInstallFailed, "failed to install cargo-web", io.ErrUnexpectedEOF))

	if !errors.Is(err, ErrToolInstallFailed) {
		t.Error("expected wrapped error to match its kind sentinel")
	}
	if errors.Is(err, ErrCompilationFailed) {
		t.Error("expected no match for a different kind")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected the cause to stay reachable")
	}
	if KindOf(err) != KindToolInstallFailed {
		t.Errorf("unexpected kind %s", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindUnknown || KindOf(nil) != KindUnknown {
		t.Error("expected KindUnknown for untyped errors")
	}
}

func TestErrorString(t *testing.T) {
	testCases := []struct {
		err      *Error
		expected string
	}{
		{&Error{Kind: KindMalformedEvent, Message: "bad line", Err: io.EOF}, "bad line: EOF"},
		{&Error{Kind: KindMalformedEvent, Message: "bad line"}, "bad line"},
		{&Error{Kind: KindMalformedEvent, Err: io.EOF}, "MalformedEvent: EOF"},
		{&Error{Kind: KindMissingBinaryArtifact}, "MissingBinaryArtifact"},
	}

	for _, tc := range testCases {
		if got := tc.err.Error(); got != tc.expected {
			t.Errorf("expected %q, got %q", tc.expected, got)
		}
	}

	if got := ErrorKind(99).String(); got != "ErrorKind(99)" {
		t.Errorf("unexpected name for unknown kind %q", got)
	}
}
