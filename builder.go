package cargoweb

import "context"

// Builder is the contract between the host bundler and an asset builder.
//
// # Builder Lifecycle
//
//  1. CanBuild() - the host asks whether an asset belongs to this builder
//  2. Build() - compile the asset and emit its loader
//  3. Clean() - optional cleanup of build artifacts
//
// # Thread Safety
//
// Builder implementations must be safe for concurrent use. The host may build
// several assets at once; each Build call runs its own session.
type Builder interface {
	// Name returns the human-readable name of this builder.
	Name() string

	// CanBuild checks if this builder can handle the given asset file.
	CanBuild(assetFile string) bool

	// Build compiles the asset and returns the result.
	//
	// Returns:
	//   - BuildResult with Succeeded=true, both artifacts and a loader on success
	//   - BuildResult with Succeeded=false and Error on failure, plus the error
	//   - nil, nil when the build was skipped
	Build(ctx context.Context, config *BuildConfig, assetFile string) (*BuildResult, error)

	// Clean removes build artifacts.
	Clean(ctx context.Context, config *BuildConfig, assetFile string) error
}
