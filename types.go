package cargoweb

import (
	"sync"
	"time"
)

// Artifacts are the outputs a successful build must report.
type Artifacts struct {
	Script string // Companion .js glue emitted alongside the binary module
	Binary string // Compiled .wasm binary module
}

// Dependency is a file the host bundler should watch for rebuilds.
type Dependency struct {
	Path string

	// IncludedInParent marks files already folded into this asset's output,
	// which the host must not emit on their own.
	IncludedInParent bool
}

// BuildResult contains the outcome of one build session.
//
// A BuildResult is created once per session and not modified afterwards.
// After a build completes, this structure provides:
//   - Succeeded, true only if the helper exited 0 and reported both artifacts
//   - Artifacts reported by the helper's compiler-artifact events
//   - DiagnosticText, every rendered compiler message and stderr line
//   - Dependencies, the watched paths to register with the host
//   - Error, the failure cause when Succeeded is false
//
// CargoWebBuilder additionally fills AssetType and Loader after emitting the
// loader script.
type BuildResult struct {
	Succeeded      bool
	Artifacts      Artifacts
	DiagnosticText string
	Dependencies   []Dependency
	ExitCode       int
	Error          error

	AssetType string // "cargo-web-<id>", unique per source asset
	Loader    string // Path of the emitted loader script
}

// BuildConfig contains configuration for a build.
//
// Source paths:
//   - CacheDir: root of the host's cache; loaders go to CacheDir/.cargo-web
//
// Toolchain selection:
//   - HelperPath: pinned build-helper executable (CARGO_WEB); disables installs
//   - Toolchain: rustup release channel the helper runs on
//   - Target and Runtime: passed to the helper's build command
//
// Build behavior:
//   - BuildArgs: extra arguments appended to the helper's build command
//   - Env: extra environment for the build subprocess
//   - Timeout: kill the build after this long (0 = wait forever)
//   - StopOnFailure: BuilderFactory.BuildAll stops at the first failed asset
//   - WarmUp: skip the build entirely
type BuildConfig struct {
	// Source paths
	CacheDir string `yaml:"cacheDir,omitempty"`

	// Toolchain selection
	HelperPath string `yaml:"helperPath,omitempty"`
	Toolchain  string `yaml:"toolchain,omitempty"`
	Target     string `yaml:"target,omitempty"`
	Runtime    string `yaml:"runtime,omitempty"`

	// Build arguments
	BuildArgs []string          `yaml:"buildArgs,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`

	// Build options
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	Verbose       bool          `yaml:"verbose,omitempty"`
	StopOnFailure bool          `yaml:"stopOnFailure,omitempty"`
	WarmUp        bool          `yaml:"-"`
}

// dependencySet keeps unique dependencies in first-seen order.
type dependencySet struct {
	seen  map[string]struct{}
	items []Dependency
}

func newDependencySet() *dependencySet {
	return &dependencySet{seen: make(map[string]struct{})}
}

func (s *dependencySet) Add(dep Dependency) {
	if dep.Path == "" {
		return
	}
	if _, ok := s.seen[dep.Path]; ok {
		return
	}
	s.seen[dep.Path] = struct{}{}
	s.items = append(s.items, dep)
}

func (s *dependencySet) List() []Dependency {
	return append([]Dependency(nil), s.items...)
}

// diagnosticBuffer is the text shared by the stdout and stderr pipelines.
// Each pipeline appends in its own arrival order.
type diagnosticBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (d *diagnosticBuffer) Append(text string) {
	d.mu.Lock()
	d.buf = append(d.buf, text...)
	d.mu.Unlock()
}

func (d *diagnosticBuffer) AppendLine(line string) {
	d.mu.Lock()
	d.buf = append(d.buf, line...)
	d.buf = append(d.buf, '\n')
	d.mu.Unlock()
}

func (d *diagnosticBuffer) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.buf)
}
