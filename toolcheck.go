package cargoweb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner runs the one-shot external commands used to inspect and
// install tools.
//
// ExecRunner is the production implementation. Tests substitute a fake so
// no real tool is probed or installed.
type CommandRunner interface {
	// LookPath resolves file to an executable. A name containing a path
	// separator is checked directly, without consulting PATH.
	LookPath(file string) (string, error)

	// Output runs name and returns its standard output.
	Output(ctx context.Context, name string, args ...string) (string, error)

	// Run runs name with its output streamed to the runner's writers and
	// blocks until it exits.
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
//
// Stdout and Stderr receive the output of Run; nil means os.Stdout and
// os.Stderr.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// LookPath wraps exec.LookPath.
func (r ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Output runs the command and captures standard output. Standard error is
// included in the returned error on failure.
func (r ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return string(out), fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return string(out), fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// Run runs the command with output piped through.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// ToolRequirement describes a tool that must be present before building.
//
// # Examples
//
// Required tool:
//
//	ToolRequirement{
//	    Name:    "rustup",
//	    Purpose: "Rust toolchain manager",
//	    Hint:    "Visit https://rustup.rs/ for more info.",
//	}
type ToolRequirement struct {
	// Name is the tool binary name (e.g., "rustup", "cargo").
	Name string

	// Purpose is a human-readable description of why this tool is needed.
	Purpose string

	// Hint is appended to the error when the tool is missing.
	Hint string
}

// CheckToolAvailable checks if a tool resolves to an executable.
//
// # Example
//
//	if err := CheckToolAvailable(ExecRunner{}, "rustup"); err != nil {
//	    return fmt.Errorf("rustup is required: %w", err)
//	}
func CheckToolAvailable(runner CommandRunner, tool string) error {
	if _, err := runner.LookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available.
//
// All missing tools are reported in a single *Error of kind
// KindMissingBaseTool.
//
// # Error Format
//
// Single missing tool:
//
//	rustup not found in PATH (required for: Rust toolchain manager). Visit https://rustup.rs/ for more info.
//
// Multiple missing tools:
//
//	missing required tools: rustup (Rust toolchain manager), cargo (Rust package manager)
func CheckRequiredTools(runner CommandRunner, requirements []ToolRequirement) error {
	var missing []ToolRequirement

	for _, req := range requirements {
		if CheckToolAvailable(runner, req.Name) != nil {
			missing = append(missing, req)
		}
	}

	switch len(missing) {
	case 0:
		return nil
	case 1:
		req := missing[0]
		msg := fmt.Sprintf("%s not found in PATH", req.Name)
		if req.Purpose != "" {
			msg += fmt.Sprintf(" (required for: %s)", req.Purpose)
		}
		if req.Hint != "" {
			msg += ". " + req.Hint
		}
		return newError(KindMissingBaseTool, msg, nil)
	}

	names := make([]string, 0, len(missing))
	for _, req := range missing {
		if req.Purpose != "" {
			names = append(names, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
		} else {
			names = append(names, req.Name)
		}
	}
	return newError(KindMissingBaseTool, "missing required tools: "+strings.Join(names, ", "), nil)
}
