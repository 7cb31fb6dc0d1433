package preflight

import (
	"context"

	"voiceloom/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config. Directory and
// disk checks report on the workspace as it exists; callers that want a
// fresh workspace created first should call cfg.EnsureDirectories before
// running the checks.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDiskSpace(cfg.Paths.WorkspaceDir))
	results = append(results, CheckDatabase(cfg))
	results = append(results, CheckVoiceService(ctx, cfg.Voice))
	results = append(results, CheckNtfyFromConfig(cfg))

	return results
}
