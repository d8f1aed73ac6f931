package cargoweb

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	digest "github.com/opencontainers/go-digest"
)

// ScratchDirName is the directory under the cache root that holds loaders.
const ScratchDirName = ".cargo-web"

const assetIDLength = 32

// AssetID returns the stable identifier of a source asset.
//
// It names the asset type ("cargo-web-<id>") and the loader files, so the
// same asset always maps to the same loader across rebuilds.
func AssetID(assetPath string) string {
	encoded := digest.FromString(assetPath).Encoded()
	if len(encoded) > assetIDLength {
		encoded = encoded[:assetIDLength]
	}
	return encoded
}

// AssetType returns the host asset type for assetPath.
func AssetType(assetPath string) string {
	return HelperName + "-" + AssetID(assetPath)
}

// EnsureScratchDir creates <cacheDir>/.cargo-web and returns its path.
func EnsureScratchDir(cacheDir string) (string, error) {
	dir := filepath.Join(cacheDir, ScratchDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

var loaderTemplate = template.Must(template.New("loader").Parse(`
module.exports = function( bundle ) {
    {{.Body}}
    return fetch( bundle )
        .then( response => response.arrayBuffer() )
        .then( bytes => WebAssembly.compile( bytes ) )
        .then( mod => __initialize( mod, true ) );
};
`))

var bundleLoaderTemplate = template.Must(template.New("bundle-loader").Parse(`
module.exports = function( bundle ) {
    var loader = require( "./loader-{{.ID}}.js" );
    return loader( bundle );
};
`))

// LoaderPath returns where EmitLoader writes the loader for id.
func LoaderPath(scratchDir, id string) string {
	return filepath.Join(scratchDir, "loader-"+id+".js")
}

// BundleLoaderPath returns where EmitBundleLoader writes the bundle loader
// for id.
func BundleLoaderPath(scratchDir, id string) string {
	return filepath.Join(scratchDir, "bundle-loader-"+id+".js")
}

// EmitLoader wraps the companion script at scriptPath into the loader for
// id and publishes it atomically, so a watcher never sees a partial file.
func EmitLoader(scratchDir, id, scriptPath string) (string, error) {
	body, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", fmt.Errorf("read companion script: %w", err)
	}

	var buf bytes.Buffer
	if err := loaderTemplate.Execute(&buf, struct{ Body string }{Body: string(body)}); err != nil {
		return "", fmt.Errorf("render loader: %w", err)
	}

	path := LoaderPath(scratchDir, id)
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// EmitBundleLoader writes the static bundle loader for id if it does not
// exist yet. It only forwards to the loader written by EmitLoader.
func EmitBundleLoader(scratchDir, id string) (string, error) {
	path := BundleLoaderPath(scratchDir, id)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	var buf bytes.Buffer
	if err := bundleLoaderTemplate.Execute(&buf, struct{ ID string }{ID: id}); err != nil {
		return "", fmt.Errorf("render bundle loader: %w", err)
	}
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes data to a temporary file next to destPath and
// renames it into place.
func writeFileAtomic(destPath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish %s: %w", destPath, err)
	}
	return nil
}
