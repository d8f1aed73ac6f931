package cargoweb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-logr/logr"
)

// BuilderFactory manages the registration and selection of asset builders.
//
// The factory maintains a registry of Builder implementations and provides
// methods to:
//   - Register new builders
//   - Find the appropriate builder for an asset file
//   - Build several assets in sequence with one shared toolchain
//
// # Usage
//
// Create a factory with the standard builder:
//
//	tc := config.NewToolchainContext(logger)
//	factory := cargoweb.NewBuilderFactory(tc, logger)
//	results, err := factory.BuildAll(ctx, config, []string{"crates/app/Cargo.toml"})
//
// # Builder Selection
//
// Builders are asked in registration order; the first whose CanBuild returns
// true for the asset's base name wins.
//
// # Thread Safety
//
// Register all builders before concurrent use. After registration, BuilderFor
// and BuildAll are safe to call concurrently.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory creates a factory with the cargo-web builder registered.
// All builds from the factory share toolchain, so toolchain checks and
// installs run at most once per run.
func NewBuilderFactory(toolchain *ToolchainContext, logger logr.Logger) *BuilderFactory {
	factory := &BuilderFactory{}
	factory.Register(NewCargoWebBuilder(toolchain, logger))
	return factory
}

// Register adds a new builder to the factory.
//
// Not thread-safe. Register all builders before concurrent use.
func (f *BuilderFactory) Register(builder Builder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the first builder that can handle assetFile.
func (f *BuilderFactory) BuilderFor(assetFile string) (Builder, error) {
	filename := filepath.Base(assetFile)

	for _, builder := range f.builders {
		if builder.CanBuild(filename) {
			return builder, nil
		}
	}

	return nil, fmt.Errorf("no builder found for asset: %s", filename)
}

// ListBuilders returns a copy of all registered builders.
func (f *BuilderFactory) ListBuilders() []Builder {
	return append([]Builder{}, f.builders...)
}

// BuildAll builds assets in order.
//
// It returns one BuildResult per processed asset and the first error met.
// Skipped builds (warm-up) produce no result. With config.StopOnFailure set,
// processing stops after the first failed asset; otherwise every asset is
// built and the first error is still returned.
//
// A canceled context stops processing; its error is recorded as the last
// result.
func (f *BuilderFactory) BuildAll(ctx context.Context, config *BuildConfig, assets []string) ([]*BuildResult, error) {
	if len(assets) == 0 {
		return nil, nil
	}

	var results []*BuildResult
	var firstError error

	for _, asset := range assets {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if firstError == nil {
				firstError = ctxErr
			}
			results = append(results, &BuildResult{Error: ctxErr})
			break
		}

		builder, err := f.BuilderFor(asset)
		if err != nil {
			if firstError == nil {
				firstError = err
			}
			results = append(results, &BuildResult{Error: err})
			if config.StopOnFailure {
				break
			}
			continue
		}

		result, err := builder.Build(ctx, config, asset)
		if err != nil {
			if firstError == nil {
				firstError = err
			}
			if result == nil {
				result = &BuildResult{Error: err}
			}
		}
		if result == nil {
			continue
		}

		results = append(results, result)
		if !result.Succeeded && config.StopOnFailure {
			break
		}
	}

	return results, firstError
}
