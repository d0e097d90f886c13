package preflight

import (
	"context"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("Reports directory", cfg.Paths.ReportsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckGit(ctx, cfg),
		CheckLLM(ctx, "Review LLM", cfg.GetLLM()),
	}
	return results
}
