package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/deps"
	"github.com/aidino/aicode-reviewer-sub001/internal/services/gitcli"
	"github.com/aidino/aicode-reviewer-sub001/internal/services/llm"
)

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckGit verifies the configured git binary exists and actually executes.
// LookPath alone misses broken installs, so the version command runs too.
func CheckGit(ctx context.Context, cfg *config.Config) Result {
	const name = "Git"
	if cfg == nil {
		return Result{Name: name, Detail: "configuration unavailable"}
	}
	binary := cfg.GitBinary()
	if _, err := exec.LookPath(binary); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", binary)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := gitcli.New(binary).Version(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%q found but not runnable (%v)", binary, err)}
	}
	return Result{Name: name, Passed: true, Detail: version}
}

// CheckLLM verifies that the review model API is reachable and the key is
// valid. It uses a 30-second timeout and a single attempt (no retries).
// A missing key passes; reviews fall back to heuristics without one.
func CheckLLM(ctx context.Context, name string, settings config.LLMSettings) Result {
	if settings.APIKey == "" {
		return Result{Name: name, Passed: true, Detail: "not configured (reviews use heuristics)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Referer: settings.Referer,
		Title:   settings.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckSystemDeps evaluates the binary dependencies for the given config.
// Both the daemon status and the CLI health command use this so the
// requirements list is not duplicated.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	gitBinary := "git"
	if cfg != nil {
		gitBinary = cfg.GitBinary()
	}
	requirements := []deps.Requirement{
		{
			Name:        "Git",
			Command:     gitBinary,
			Description: "Required for cloning repositories and reading diffs",
			Version:     "--version",
		},
	}
	return deps.CheckBinaries(requirements)
}

// summarizeLLMError produces a short summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
