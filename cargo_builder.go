package cargoweb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

const manifestName = "Cargo.toml"

// CargoWebBuilder compiles a crate to WebAssembly with cargo-web.
//
// Build runs, in order:
//  1. Toolchain checks through the shared ToolchainContext (once per run)
//  2. `rustup run <channel> <cargo-web> build --target ... --message-format json`
//  3. Loader emission into <CacheDir>/.cargo-web
type CargoWebBuilder struct {
	Toolchain *ToolchainContext
	Spawner   Spawner       // nil means ExecSpawner
	Runner    CommandRunner // one-shot commands such as cargo clean; nil means ExecRunner
	Observer  BuildObserver // optional, receives every output line
	Logger    logr.Logger

	toolchainOnce sync.Once
}

// NewCargoWebBuilder creates a builder that shares toolchain.
func NewCargoWebBuilder(toolchain *ToolchainContext, logger logr.Logger) *CargoWebBuilder {
	return &CargoWebBuilder{
		Toolchain: toolchain,
		Logger:    logger,
	}
}

// Name returns the builder name
func (b *CargoWebBuilder) Name() string {
	return "CargoWeb"
}

// CanBuild checks if this builder can handle the asset file
func (b *CargoWebBuilder) CanBuild(assetFile string) bool {
	return MatchesPattern(filepath.Base(assetFile), `^Cargo\.toml$`)
}

// Build compiles the crate owning assetFile and emits its loader.
func (b *CargoWebBuilder) Build(ctx context.Context, config *BuildConfig, assetFile string) (*BuildResult, error) {
	if config.WarmUp {
		return nil, nil
	}
	cfg := config.withDefaults()
	log := b.logger().WithValues("asset", assetFile)

	manifest, err := FindManifest(assetFile)
	if err != nil {
		return &BuildResult{Error: err}, err
	}
	crateDir := filepath.Dir(manifest)

	toolchain := b.toolchain(&cfg)
	helper, err := toolchain.HelperCommand(ctx, CargoWebSpec(cfg.HelperPath))
	if err != nil {
		return &BuildResult{Error: err}, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	session := &BuildSession{
		Command:    buildCommand(&cfg, toolchain.Channel(), helper, crateDir),
		SourcePath: sourcePath(assetFile),
		Spawner:    b.Spawner,
		Observer:   b.Observer,
		Logger:     log,
	}
	result, err := session.Run(ctx)
	if err != nil {
		log.V(1).Info("build failed", "kind", KindOf(err).String())
		return result, err
	}

	if err := b.emitLoader(&cfg, assetFile, crateDir, result); err != nil {
		result.Succeeded = false
		result.Error = err
		return result, err
	}

	log.V(1).Info("build succeeded", "binary", result.Artifacts.Binary, "loader", result.Loader)
	return result, nil
}

// Clean removes build artifacts of the crate owning assetFile.
func (b *CargoWebBuilder) Clean(ctx context.Context, config *BuildConfig, assetFile string) error {
	manifest, err := FindManifest(assetFile)
	if err != nil {
		return err
	}

	runner := b.runner()
	if err := CheckRequiredTools(runner, []ToolRequirement{{Name: "cargo", Purpose: "cleaning build artifacts"}}); err != nil {
		return err
	}

	output, err := runner.Output(ctx, "cargo", "clean", "--manifest-path", manifest)
	if err != nil {
		return BuildError("cargo clean", strings.Split(output, "\n"), err)
	}
	b.logger().V(1).Info("cleaned crate", "manifest", manifest)
	return nil
}

func (b *CargoWebBuilder) runner() CommandRunner {
	if b.Runner == nil {
		return ExecRunner{}
	}
	return b.Runner
}

// toolchain returns the shared ToolchainContext, creating one from the first
// build's configuration when none was provided.
func (b *CargoWebBuilder) toolchain(cfg *BuildConfig) *ToolchainContext {
	b.toolchainOnce.Do(func() {
		if b.Toolchain == nil {
			b.Toolchain = cfg.NewToolchainContext(b.Logger)
		}
	})
	return b.Toolchain
}

// buildCommand returns the helper invocation for one build.
func buildCommand(cfg *BuildConfig, channel, helper, crateDir string) Command {
	args := []string{
		"run", channel, helper,
		"build",
		"--target", cfg.Target,
		"--runtime", cfg.Runtime,
		"--message-format", "json",
	}
	args = append(args, cfg.BuildArgs...)

	return Command{
		Name: "rustup",
		Args: args,
		Dir:  crateDir,
		Env:  buildEnv(cfg.Env),
	}
}

func (b *CargoWebBuilder) emitLoader(cfg *BuildConfig, assetFile, crateDir string, result *BuildResult) error {
	scratch, err := EnsureScratchDir(cfg.CacheDir)
	if err != nil {
		return err
	}

	source := sourcePath(assetFile)
	id := AssetID(source)
	loader, err := EmitLoader(scratch, id, resolveArtifact(crateDir, result.Artifacts.Script))
	if err != nil {
		return err
	}
	if _, err := EmitBundleLoader(scratch, id); err != nil {
		return err
	}

	result.AssetType = AssetType(source)
	result.Loader = loader
	result.Dependencies = append(result.Dependencies, Dependency{Path: loader})
	return nil
}

func (b *CargoWebBuilder) logger() logr.Logger {
	if b.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return b.Logger
}

// FindManifest returns the Cargo.toml owning assetFile: assetFile itself if
// it is a manifest, otherwise the nearest one in a parent directory.
func FindManifest(assetFile string) (string, error) {
	abs, err := filepath.Abs(assetFile)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", assetFile, err)
	}
	if filepath.Base(abs) == manifestName {
		return abs, nil
	}

	dir := filepath.Dir(abs)
	for {
		candidate := filepath.Join(dir, manifestName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found for %s", manifestName, assetFile)
		}
		dir = parent
	}
}

func sourcePath(assetFile string) string {
	if abs, err := filepath.Abs(assetFile); err == nil {
		return abs
	}
	return assetFile
}

func resolveArtifact(crateDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(crateDir, path)
}

// buildEnv returns the current environment plus extra, in a stable order.
func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, extra[k]))
	}
	return env
}
