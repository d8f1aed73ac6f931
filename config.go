package cargoweb

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/mattn/go-shellwords"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvHelperPath = HelperEnvVar // pins the helper, disables install/upgrade
	EnvBuildArgs  = "CARGO_WEB_ARGS"
	EnvCacheDir   = "CARGO_WEB_CACHE_DIR"
	EnvTimeout    = "CARGO_WEB_TIMEOUT"
)

// Defaults for the helper's build command.
const (
	DefaultTarget   = "wasm32-unknown-unknown"
	DefaultRuntime  = "experimental-only-loader"
	DefaultCacheDir = ".cache"
)

// DefaultConfig returns a BuildConfig with every default filled in.
func DefaultConfig() *BuildConfig {
	return &BuildConfig{
		CacheDir:  DefaultCacheDir,
		Toolchain: DefaultToolchain,
		Target:    DefaultTarget,
		Runtime:   DefaultRuntime,
	}
}

// LoadConfig builds a configuration from defaults, an optional YAML file and
// the process environment, in that order of precedence (environment wins).
//
// A path that is empty or does not exist is not an error.
//
// # File Format
//
//	cacheDir: ~/.cache/my-app
//	toolchain: nightly
//	buildArgs: ["--release"]
//	env:
//	  RUSTFLAGS: -C opt-level=s
//	timeout: 10m
func LoadConfig(path string) (*BuildConfig, error) {
	cfg := DefaultConfig()
	if err := loadConfigFile(cfg, path); err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(cfg *BuildConfig, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand config path: %w", err)
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", expanded, err)
	}
	return cfg.normalize()
}

// ApplyEnv overlays environment settings onto cfg. Empty values are ignored.
func ApplyEnv(cfg *BuildConfig, lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	if v := get(EnvHelperPath); v != "" {
		cfg.HelperPath = v
	}
	if v := get(EnvBuildArgs); v != "" {
		args, err := shellwords.Parse(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvBuildArgs, err)
		}
		cfg.BuildArgs = append(cfg.BuildArgs, args...)
	}
	if v := get(EnvCacheDir); v != "" {
		cfg.CacheDir = v
	}
	if v := get(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	return cfg.normalize()
}

func (c *BuildConfig) normalize() error {
	if c.CacheDir != "" {
		expanded, err := homedir.Expand(c.CacheDir)
		if err != nil {
			return fmt.Errorf("expand cache dir: %w", err)
		}
		c.CacheDir = expanded
	}
	if c.HelperPath != "" {
		expanded, err := homedir.Expand(c.HelperPath)
		if err != nil {
			return fmt.Errorf("expand helper path: %w", err)
		}
		c.HelperPath = expanded
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// NewToolchainContext creates the per-run toolchain context for this
// configuration, installing into the configured release channel.
func (c *BuildConfig) NewToolchainContext(logger logr.Logger) *ToolchainContext {
	installer := NewToolchainInstaller(logger)
	installer.Channel = c.withDefaults().Toolchain
	return NewToolchainContext(installer)
}

func (c *BuildConfig) withDefaults() BuildConfig {
	out := *c
	if out.Toolchain == "" {
		out.Toolchain = DefaultToolchain
	}
	if out.Target == "" {
		out.Target = DefaultTarget
	}
	if out.Runtime == "" {
		out.Runtime = DefaultRuntime
	}
	if out.CacheDir == "" {
		out.CacheDir = DefaultCacheDir
	}
	return out
}
