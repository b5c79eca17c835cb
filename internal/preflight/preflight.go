package preflight

import (
	"context"

	"reelsmith/internal/config"
	"reelsmith/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// RunLocal executes the checks that need no network access.
func RunLocal(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := CheckCredentials(cfg)
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		results = append(results, binaryResult(status))
	}
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	for _, dir := range []struct {
		name string
		path string
	}{
		{"Scripts directory", cfg.Paths.ScriptsDir},
		{"Audio directory", cfg.Paths.AudioDir},
		{"Video directory", cfg.Paths.VideoDir},
		{"Final directory", cfg.Paths.FinalDir},
	} {
		results = append(results, CheckDirectoryAccess(dir.name, dir.path))
	}
	return results
}

// RunAll executes the local checks followed by the remote API probes.
// Remote probes are skipped when the matching credential is missing.
func RunAll(ctx context.Context, cfg *config.Config, remotes ...Remote) []Result {
	results := RunLocal(cfg)
	for _, remote := range remotes {
		results = append(results, CheckRemote(ctx, remote))
	}
	return results
}

func binaryResult(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available || status.Optional}
	switch {
	case status.Available:
		result.Detail = status.Path
	case status.Optional:
		result.Detail = status.Detail + " (optional)"
	default:
		result.Detail = status.Detail
	}
	return result
}
