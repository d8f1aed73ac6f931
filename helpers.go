package cargoweb

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// MatchesPattern checks if a filename matches any of the given regex patterns.
//
// Invalid patterns are silently skipped.
//
// # Example
//
//	if MatchesPattern(filename, `Cargo\.toml$`) {
//	    // Handle a crate manifest
//	}
func MatchesPattern(filename string, patterns ...string) bool {
	for _, pattern := range patterns {
		if matched, _ := regexp.MatchString(pattern, filename); matched {
			return true
		}
	}
	return false
}

// BuildError creates a standardized error for a failed helper command,
// including its output for debugging.
//
// # Format
//
// With error and output:
//
//	cargo clean failed: exit status 101
//
//	Build output:
//	error: could not find `Cargo.toml`
//
// With output but no error:
//
//	cargo clean failed
//
//	Build output:
//	... output lines ...
func BuildError(step string, output []string, err error) error {
	outputStr := strings.TrimRight(strings.Join(output, "\n"), "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s failed: %v", step, err)
	} else {
		prefix = fmt.Sprintf("%s failed", step)
	}

	if outputStr != "" {
		return fmt.Errorf("%s\n\nBuild output:\n%s", prefix, outputStr)
	}

	return errors.New(prefix)
}

// lineReset switches the terminal back to plain white text.
var lineReset = fmt.Sprintf("\x1b[%d;%dm", color.Reset, color.FgWhite)

// DisplayMessage renders err for the user.
//
// A compilation failure shows only its message, so compiler diagnostics
// appear verbatim, without wrapping noise. When the text carries ANSI escape
// sequences, every line break is followed by a reset to plain white so one
// unterminated red span does not color the rest of the output.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	var e *Error
	if errors.As(err, &e) && e.Kind == KindCompilationFailed && e.Message != "" {
		msg = e.Message
	}

	if strings.Contains(msg, "\x1b") {
		msg = strings.ReplaceAll(msg, "\n", "\n"+lineReset)
	}
	return msg
}
