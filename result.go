package cargoweb

// ReduceBuild combines what a session collected into its final BuildResult.
//
// A non-zero exit code fails with KindCompilationFailed and the diagnostic
// text as message. A zero exit code still fails when the helper reported no
// binary module (KindMissingBinaryArtifact) or no companion script
// (KindMissingScriptArtifact); the binary is checked first.
//
// The returned error, when non-nil, is also stored in result.Error.
func ReduceBuild(exitCode int, artifacts Artifacts, diagnostics string, deps []Dependency) (*BuildResult, error) {
	result := &BuildResult{
		Succeeded:      false,
		Artifacts:      artifacts,
		DiagnosticText: diagnostics,
		Dependencies:   deps,
		ExitCode:       exitCode,
	}

	var err error
	switch {
	case exitCode != 0:
		err = newError(KindCompilationFailed, "Compilation failed!\n"+diagnostics, nil)
	case artifacts.Binary == "":
		err = newError(KindMissingBinaryArtifact, "No .wasm artifact found! This should never happen!", nil)
	case artifacts.Script == "":
		err = newError(KindMissingScriptArtifact, "No .js artifact found! Are you sure your crate is of proper type?", nil)
	}

	if err != nil {
		result.Error = err
		return result, err
	}

	result.Succeeded = true
	return result, nil
}
