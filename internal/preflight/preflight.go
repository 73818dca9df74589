package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"ffglitch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll executes the applicable preflight checks for cfg. outputPath may be
// empty when no run is planned.
func RunAll(ctx context.Context, cfg *config.Config, outputPath string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Temporary documents (always checked)
	results = append(results, CheckDirectoryAccess("Temp directory", cfg.TempDir()))

	if strings.TrimSpace(outputPath) != "" {
		dir := filepath.Dir(outputPath)
		results = append(results, CheckDirectoryAccess("Output directory", dir))
	}

	results = append(results, CheckFFedit(ctx, cfg))

	if cfg.History.Enabled {
		results = append(results, optional(CheckDirectoryAccess("History directory", filepath.Dir(cfg.History.Path))))
	}
	if file := strings.TrimSpace(cfg.Metrics.Textfile); file != "" {
		results = append(results, optional(CheckDirectoryAccess("Metrics directory", filepath.Dir(file))))
	}
	if file := strings.TrimSpace(cfg.Logging.File); file != "" {
		results = append(results, optional(CheckDirectoryAccess("Log directory", filepath.Dir(file))))
	}

	return results
}

func optional(r Result) Result {
	r.Optional = true
	return r
}
