package cargoweb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// Build-helper defaults.
const (
	HelperName       = "cargo-web"
	HelperEnvVar     = "CARGO_WEB"
	DefaultToolchain = "nightly"
)

// RequiredHelperVersion is the oldest cargo-web this adapter supports.
var RequiredHelperVersion = VersionTriple{Major: 0, Minor: 6, Patch: 2}

// ToolchainState is the outcome of probing one tool.
type ToolchainState int

const (
	StateUnknown ToolchainState = iota
	StateMissing
	StateWrongVersion
	StateCompliant
)

func (s ToolchainState) String() string {
	switch s {
	case StateMissing:
		return "Missing"
	case StateWrongVersion:
		return "WrongVersion"
	case StateCompliant:
		return "Compliant"
	default:
		return "Unknown"
	}
}

// ToolSpec describes a versioned tool the installer can manage.
type ToolSpec struct {
	// Name is the default command, looked up on PATH.
	Name string

	// Identity is the prefix the tool's `--version` output must start with.
	Identity string

	// Required is compared against the detected version with CompareVersions.
	Required VersionTriple

	// OverridePath pins the tool location. When set, only this path is
	// probed and the installer never installs or upgrades.
	OverridePath string

	// Install is the command that installs or force-upgrades the tool.
	Install []string
}

// CargoWebSpec returns the ToolSpec for the cargo-web build helper.
// overridePath is usually the value of the CARGO_WEB environment variable.
func CargoWebSpec(overridePath string) ToolSpec {
	return ToolSpec{
		Name:         HelperName,
		Identity:     HelperName + " ",
		Required:     RequiredHelperVersion,
		OverridePath: strings.TrimSpace(overridePath),
		Install:      []string{"cargo", "install", "-f", HelperName},
	}
}

func (s ToolSpec) constraint() string {
	return "^" + s.Required.String()
}

// ToolStatus is what the installer learned about a tool.
type ToolStatus struct {
	Command        string
	State          ToolchainState
	SourceOverride bool
	Version        VersionTriple
	Comparison     int  // CompareVersions result, meaningful for a present tool
	Installed      bool // true when Ensure ran the install command
}

// ToolchainInstaller inspects prerequisite tools and installs or upgrades
// them when allowed.
//
// # Decision Table
//
//	pinned, missing or wrong identity  -> KindPinnedToolInvalid
//	pinned, older than required        -> KindManualUpgradeRequired
//	pinned, newer major                -> KindManualDowngradeRequired
//	default, missing                   -> install, adopt default name
//	default, older than required       -> forced reinstall
//	default, newer major               -> KindManualDowngradeRequired
//	compliant                          -> nothing to do
//
// Install failures surface as KindToolInstallFailed and are not retried.
type ToolchainInstaller struct {
	Runner  CommandRunner
	Logger  logr.Logger
	Channel string // rustup release channel; DefaultToolchain when empty
}

// NewToolchainInstaller creates an installer backed by ExecRunner.
func NewToolchainInstaller(logger logr.Logger) *ToolchainInstaller {
	return &ToolchainInstaller{
		Runner:  ExecRunner{},
		Logger:  logger,
		Channel: DefaultToolchain,
	}
}

// Probe inspects spec's tool without changing anything.
//
// A tool that cannot be resolved, fails to report its version, or reports a
// different identity is StateMissing. A version string without a
// major.minor.patch triple returns a KindInvalidVersionFormat error.
func (i *ToolchainInstaller) Probe(ctx context.Context, spec ToolSpec) (ToolStatus, error) {
	status := ToolStatus{Command: spec.Name, State: StateUnknown}
	if spec.OverridePath != "" {
		status.Command = spec.OverridePath
		status.SourceOverride = true
	}

	if _, err := i.Runner.LookPath(status.Command); err != nil {
		status.State = StateMissing
		return status, nil
	}

	out, err := i.Runner.Output(ctx, status.Command, "--version")
	if err != nil {
		i.logger().V(1).Info("version probe failed", "command", status.Command, "error", err.Error())
		status.State = StateMissing
		return status, nil
	}

	if spec.Identity != "" && !strings.HasPrefix(out, spec.Identity) {
		status.State = StateMissing
		return status, nil
	}

	version, err := ParseVersion(out)
	if err != nil {
		return status, err
	}

	status.Version = version
	status.Comparison = CompareVersions(version, spec.Required)
	if status.Comparison == 0 {
		status.State = StateCompliant
	} else {
		status.State = StateWrongVersion
	}
	return status, nil
}

// Ensure brings spec's tool to a compliant state, installing or upgrading
// it once if that is allowed, and returns the command to invoke it with.
func (i *ToolchainInstaller) Ensure(ctx context.Context, spec ToolSpec) (ToolStatus, error) {
	log := i.logger()

	status, err := i.Probe(ctx, spec)
	if err != nil {
		if status.SourceOverride {
			return status, newError(KindPinnedToolInvalid,
				fmt.Sprintf("The %s location defined in %s isn't valid.", spec.Name, HelperEnvVar), err)
		}
		return status, err
	}

	if status.SourceOverride {
		return status, i.checkPinned(spec, status)
	}

	switch status.State {
	case StateCompliant:
		log.V(1).Info("tool is compliant", "tool", spec.Name, "version", status.Version.String())
		return status, nil

	case StateMissing:
		log.Info("installing tool", "tool", spec.Name)

	case StateWrongVersion:
		if status.Comparison > 0 {
			return status, newError(KindManualDowngradeRequired,
				fmt.Sprintf("The installed version of %s will need to be downgraded to satisfy the version constraint %s", spec.Name, spec.constraint()), nil)
		}
		log.Info("upgrading tool", "tool", spec.Name, "version", status.Version.String(), "required", spec.Required.String())
	}

	if err := i.install(ctx, spec); err != nil {
		return status, err
	}

	// A fresh install is the latest release, which is taken as compliant.
	status.Command = spec.Name
	status.State = StateCompliant
	status.Installed = true
	return status, nil
}

func (i *ToolchainInstaller) checkPinned(spec ToolSpec, status ToolStatus) error {
	switch {
	case status.State == StateMissing:
		return newError(KindPinnedToolInvalid,
			fmt.Sprintf("The %s location defined in %s isn't valid.", spec.Name, HelperEnvVar), nil)
	case status.Comparison < 0:
		return newError(KindManualUpgradeRequired,
			fmt.Sprintf("The %s executable defined in %s needs to be manually upgraded to satisfy the version constraint %s", spec.Name, HelperEnvVar, spec.constraint()), nil)
	case status.Comparison > 0:
		return newError(KindManualDowngradeRequired,
			fmt.Sprintf("The %s executable defined in %s needs to be manually downgraded to satisfy the version constraint %s", spec.Name, HelperEnvVar, spec.constraint()), nil)
	}
	return nil
}

func (i *ToolchainInstaller) install(ctx context.Context, spec ToolSpec) error {
	if len(spec.Install) == 0 {
		return newError(KindToolInstallFailed, fmt.Sprintf("no install command for %s", spec.Name), nil)
	}
	if err := i.Runner.Run(ctx, spec.Install[0], spec.Install[1:]...); err != nil {
		return newError(KindToolInstallFailed, fmt.Sprintf("failed to install %s", spec.Name), err)
	}
	return nil
}

// RequiredTools returns the base tools that must exist before any build.
func (i *ToolchainInstaller) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    "rustup",
			Purpose: "Rust toolchain manager",
			Hint:    "Rustup isn't installed. Visit https://rustup.rs/ for more info.",
		},
	}
}

// EnsureBaseToolchain checks that rustup is present and that the release
// channel is installed, running `rustup update` and
// `rustup toolchain install <channel>` once if it is not.
func (i *ToolchainInstaller) EnsureBaseToolchain(ctx context.Context) error {
	if err := CheckRequiredTools(i.Runner, i.RequiredTools()); err != nil {
		return err
	}

	channel := i.channel()
	out, err := i.Runner.Output(ctx, "rustup", "show")
	if err != nil {
		return newError(KindMissingBaseTool, "failed to list rustup toolchains", err)
	}
	if strings.Contains(out, channel) {
		return nil
	}

	i.logger().Info("installing rust toolchain", "channel", channel)
	if err := i.Runner.Run(ctx, "rustup", "update"); err != nil {
		return newError(KindToolInstallFailed, "failed to update rustup", err)
	}
	if err := i.Runner.Run(ctx, "rustup", "toolchain", "install", channel); err != nil {
		return newError(KindToolInstallFailed, fmt.Sprintf("failed to install the %s toolchain", channel), err)
	}
	return nil
}

func (i *ToolchainInstaller) channel() string {
	if i.Channel == "" {
		return DefaultToolchain
	}
	return i.Channel
}

func (i *ToolchainInstaller) logger() logr.Logger {
	if i.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return i.Logger
}

// ToolchainContext remembers, for one bundler run, which toolchain checks
// have passed and which helper command to use.
//
// Create one per run and share it between builds. Checks run under a lock,
// so concurrent builds never install the same tool twice. A resolved command
// is written once and reused without probing again; failures are not cached.
type ToolchainContext struct {
	Installer *ToolchainInstaller

	mu        sync.Mutex
	baseReady bool
	commands  map[string]string
}

// NewToolchainContext creates a context around installer.
func NewToolchainContext(installer *ToolchainInstaller) *ToolchainContext {
	return &ToolchainContext{
		Installer: installer,
		commands:  make(map[string]string),
	}
}

// HelperCommand returns the command that runs spec's tool, ensuring the
// base toolchain and the tool itself on first use.
func (c *ToolchainContext) HelperCommand(ctx context.Context, spec ToolSpec) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := spec.Name + "\x00" + spec.OverridePath
	if cmd, ok := c.commands[key]; ok {
		return cmd, nil
	}

	if !c.baseReady {
		if err := c.Installer.EnsureBaseToolchain(ctx); err != nil {
			return "", err
		}
		c.baseReady = true
	}

	status, err := c.Installer.Ensure(ctx, spec)
	if err != nil {
		return "", err
	}

	if c.commands == nil {
		c.commands = make(map[string]string)
	}
	c.commands[key] = status.Command
	return status.Command, nil
}

// Channel returns the release channel builds should run on.
func (c *ToolchainContext) Channel() string {
	return c.Installer.channel()
}
