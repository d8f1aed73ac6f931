package cargoweb

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckRequiredTools(t *testing.T) {
	testCases := []struct {
		name     string
		present  []string
		reqs     []ToolRequirement
		wantErr  bool
		contains []string
	}{
		{
			name:    "all present",
			present: []string{"rustup", "cargo"},
			reqs:    []ToolRequirement{{Name: "rustup"}, {Name: "cargo"}},
		},
		{
			name: "nothing required",
		},
		{
			name:     "single missing with hint",
			reqs:     []ToolRequirement{{Name: "rustup", Purpose: "Rust toolchain manager", Hint: "Install it."}},
			wantErr:  true,
			contains: []string{"rustup not found in PATH (required for: Rust toolchain manager). Install it."},
		},
		{
			name:     "several missing",
			present:  []string{"git"},
			reqs:     []ToolRequirement{{Name: "rustup", Purpose: "toolchains"}, {Name: "git"}, {Name: "cargo"}},
			wantErr:  true,
			contains: []string{"missing required tools: rustup (toolchains), cargo"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := newFakeRunner()
			for _, name := range tc.present {
				runner.paths[name] = true
			}

			err := CheckRequiredTools(runner, tc.reqs)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrMissingBaseTool) {
				t.Fatalf("expected MissingBaseTool, got %v", err)
			}
			for _, want := range tc.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected %q in %q", want, err.Error())
				}
			}
		})
	}
}
