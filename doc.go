// Package cargoweb compiles Rust crates to WebAssembly for a host bundler.
//
// The package drives cargo-web as a subprocess, streams its progress and
// diagnostics, and hands the bundler a binary module, a loader script and the
// set of files to watch for rebuilds.
//
// # Basic Usage
//
// Create one toolchain context per bundler run and share it between builds:
//
//	config, err := cargoweb.LoadConfig("cargo-web.yaml")
//	if err != nil {
//	    return err
//	}
//	toolchain := config.NewToolchainContext(logger)
//	builder := cargoweb.NewCargoWebBuilder(toolchain, logger)
//
//	result, err := builder.Build(ctx, config, "src/crate/Cargo.toml")
//	if err != nil {
//	    fmt.Fprintln(os.Stderr, cargoweb.DisplayMessage(err))
//	    return err
//	}
//	// result.Artifacts.Binary, result.Loader, result.Dependencies
//
// # Architecture
//
//	BuilderFactory (selects a builder per asset, BuildAll)
//	└── CargoWebBuilder
//	    ├── ToolchainContext (one per run, caches the resolved helper)
//	    │   └── ToolchainInstaller (rustup channel, cargo-web version gate)
//	    ├── BuildSession (one per build)
//	    │   ├── stdout: LineFramer -> ClassifyEvent -> event dispatch
//	    │   ├── stderr: LineFramer -> diagnostic text
//	    │   └── ReduceBuild -> BuildResult
//	    └── EmitLoader / EmitBundleLoader
//
// # Toolchain Policy
//
// Setting CARGO_WEB pins the helper executable. A pinned helper is never
// installed or upgraded; any problem with it is reported for the user to fix.
// An unpinned helper is installed when missing and force-reinstalled when
// older than RequiredHelperVersion. A helper with a newer major version is
// never downgraded automatically.
//
// # Requirements
//
// Requires Go 1.25 or later, and rustup on PATH at build time.
package cargoweb
