package cargoweb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAssetIDIsStable(t *testing.T) {
	a := AssetID("/work/crate/Cargo.toml")
	b := AssetID("/work/crate/Cargo.toml")
	c := AssetID("/work/other/Cargo.toml")

	if a != b {
		t.Errorf("expected same id for same path, got %q and %q", a, b)
	}
	if a == c {
		t.Errorf("expected different ids for different paths, got %q", a)
	}
	if len(a) != assetIDLength {
		t.Errorf("expected %d characters, got %d", assetIDLength, len(a))
	}
	if got := AssetType("/work/crate/Cargo.toml"); got != "cargo-web-"+a {
		t.Errorf("unexpected asset type %q", got)
	}
}

func TestEnsureScratchDir(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "nested", "cache")

	dir, err := EnsureScratchDir(cacheDir)
	if err != nil {
		t.Fatalf("EnsureScratchDir returned error: %v", err)
	}
	if dir != filepath.Join(cacheDir, ScratchDirName) {
		t.Errorf("unexpected scratch dir %s", dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s: %v", dir, err)
	}
}

func TestEmitLoaderWrapsScript(t *testing.T) {
	scratch := t.TempDir()
	script := filepath.Join(t.TempDir(), "a.js")
	body := "var __initialize = function( mod, run ) { return mod; };"
	if err := os.WriteFile(script, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	path, err := EmitLoader(scratch, "abc", script)
	if err != nil {
		t.Fatalf("EmitLoader returned error: %v", err)
	}
	if path != LoaderPath(scratch, "abc") {
		t.Errorf("unexpected loader path %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read loader: %v", err)
	}
	content := string(raw)
	for _, want := range []string{body, "WebAssembly.compile( bytes )", "__initialize( mod, true )"} {
		if !strings.Contains(content, want) {
			t.Errorf("loader missing %q:\n%s", want, content)
		}
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatalf("failed to list scratch dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the loader in scratch dir, found %d entries", len(entries))
	}
}

func TestEmitLoaderMissingScript(t *testing.T) {
	scratch := t.TempDir()
	if _, err := EmitLoader(scratch, "abc", filepath.Join(scratch, "missing.js")); err == nil {
		t.Fatal("expected error for missing script")
	}
	if _, err := os.Stat(LoaderPath(scratch, "abc")); !os.IsNotExist(err) {
		t.Errorf("expected no loader to be written, stat error: %v", err)
	}
}

func TestEmitLoaderReplacesPrevious(t *testing.T) {
	scratch := t.TempDir()
	script := filepath.Join(t.TempDir(), "a.js")

	for _, body := range []string{"// first", "// second"} {
		if err := os.WriteFile(script, []byte(body), 0o600); err != nil {
			t.Fatalf("failed to write script: %v", err)
		}
		if _, err := EmitLoader(scratch, "abc", script); err != nil {
			t.Fatalf("EmitLoader returned error: %v", err)
		}
	}

	raw, err := os.ReadFile(LoaderPath(scratch, "abc"))
	if err != nil {
		t.Fatalf("failed to read loader: %v", err)
	}
	if strings.Contains(string(raw), "// first") || !strings.Contains(string(raw), "// second") {
		t.Errorf("expected loader to hold the latest script, got:\n%s", raw)
	}
}

func TestEmitBundleLoaderWritesOnce(t *testing.T) {
	scratch := t.TempDir()

	path, err := EmitBundleLoader(scratch, "abc")
	if err != nil {
		t.Fatalf("EmitBundleLoader returned error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read bundle loader: %v", err)
	}
	if !strings.Contains(string(raw), `require( "./loader-abc.js" )`) {
		t.Errorf("bundle loader must forward to the loader, got:\n%s", raw)
	}

	if err := os.WriteFile(path, []byte("// edited"), 0o600); err != nil {
		t.Fatalf("failed to edit bundle loader: %v", err)
	}
	if _, err := EmitBundleLoader(scratch, "abc"); err != nil {
		t.Fatalf("second EmitBundleLoader returned error: %v", err)
	}
	raw, _ = os.ReadFile(path)
	if string(raw) != "// edited" {
		t.Errorf("existing bundle loader must be left alone, got:\n%s", raw)
	}
}
