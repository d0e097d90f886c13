package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/services/gitcli"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// GitClient is the subset of git operations the fetch stage needs.
type GitClient interface {
	Clone(ctx context.Context, src, dst string) error
	Checkout(ctx context.Context, dir, ref string) error
	HeadCommit(ctx context.Context, dir string) (string, error)
	DiffNameStatus(ctx context.Context, dir, base, head string) (string, error)
	DiffUnified(ctx context.Context, dir, base, head string) (string, error)
}

// Fetcher prepares the scan workspace and captures pull request diffs.
type Fetcher struct {
	cfg    *config.Config
	logger *slog.Logger
	git    GitClient
}

// NewFetcher constructs the fetch stage handler using the configured git binary.
func NewFetcher(cfg *config.Config, logger *slog.Logger) *Fetcher {
	return NewFetcherWithDependencies(cfg, logger, gitcli.New(cfg.GitBinary()))
}

// NewFetcherWithDependencies allows injecting the git client (used in tests).
func NewFetcherWithDependencies(cfg *config.Config, logger *slog.Logger, git GitClient) *Fetcher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "fetch"))
	}
	return &Fetcher{cfg: cfg, logger: stageLogger, git: git}
}

func (f *Fetcher) Name() string { return stage.Fetch }

func (f *Fetcher) Execute(ctx context.Context, state *scan.State) error {
	logger := logging.WithContext(ctx, f.logger)

	repo := strings.TrimSpace(state.Repository)
	if repo == "" {
		return services.Wrap(services.ErrValidation, stage.Fetch, "validate inputs", "repository must be set", nil)
	}

	workspace, cloned, err := f.prepareWorkspace(ctx, logger, state, repo)
	if err != nil {
		return err
	}
	state.WorkspacePath = workspace

	gitRepo := isGitWorkspace(workspace)
	if state.ScanType == scan.TypePR && !gitRepo {
		return services.Wrap(
			services.ErrValidation,
			stage.Fetch,
			"inspect workspace",
			fmt.Sprintf("pr scans need a git repository; %s has no .git", repo),
			nil,
		)
	}

	// Branch selection only applies to workspaces we cloned; a local
	// repository is analyzed at whatever it has checked out.
	if cloned && strings.TrimSpace(state.Branch) != "" {
		if err := f.git.Checkout(ctx, workspace, state.Branch); err != nil {
			return services.Wrap(
				services.ErrExternalTool,
				stage.Fetch,
				"checkout branch",
				fmt.Sprintf("checkout of %s failed", state.Branch),
				err,
			)
		}
	}

	if gitRepo {
		commit, err := f.git.HeadCommit(ctx, workspace)
		switch {
		case err != nil && state.ScanType == scan.TypePR:
			return services.Wrap(services.ErrExternalTool, stage.Fetch, "resolve head", "head commit could not be resolved", err)
		case err != nil:
			logger.Debug("head commit unavailable", logging.Error(err))
		default:
			state.HeadCommit = commit
		}
	}

	if state.ScanType == scan.TypePR {
		if err := f.captureDiff(ctx, state, workspace); err != nil {
			return err
		}
		if len(state.Diff) == 0 {
			logger.Warn(
				"diff against base branch is empty",
				logging.String("base_branch", state.BaseBranch),
				logging.String("branch", state.Branch),
			)
		}
	}

	logger.Info(
		"workspace ready",
		logging.String("repository", repo),
		logging.String("workspace", workspace),
		logging.String("head_commit", state.HeadCommit),
		logging.Bool("cloned", cloned),
		logging.Int("changed_files", len(state.Diff)),
	)
	return nil
}

// prepareWorkspace resolves a local repository path or clones a remote one
// into a per-scan directory. The second return reports whether a clone happened.
func (f *Fetcher) prepareWorkspace(ctx context.Context, logger *slog.Logger, state *scan.State, repo string) (string, bool, error) {
	if !isRemoteRepository(repo) {
		abs, err := filepath.Abs(repo)
		if err != nil {
			return "", false, services.Wrap(services.ErrValidation, stage.Fetch, "resolve repository path", "repository path could not be resolved", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", false, services.Wrap(
				services.ErrValidation,
				stage.Fetch,
				"resolve repository path",
				fmt.Sprintf("repository path %s does not exist", abs),
				err,
			)
		}
		if !info.IsDir() {
			return "", false, services.Wrap(
				services.ErrValidation,
				stage.Fetch,
				"resolve repository path",
				fmt.Sprintf("repository path %s is not a directory", abs),
				nil,
			)
		}
		return abs, false, nil
	}

	root := strings.TrimSpace(f.cfg.Paths.WorkspaceDir)
	if root == "" {
		return "", false, services.Wrap(services.ErrConfiguration, stage.Fetch, "prepare workspace", "workspace_dir is not configured", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", false, services.Wrap(services.ErrConfiguration, stage.Fetch, "prepare workspace", "workspace_dir could not be created", err)
	}
	dest := filepath.Join(root, state.ScanID)
	if err := os.RemoveAll(dest); err != nil {
		return "", false, services.Wrap(services.ErrInternal, stage.Fetch, "prepare workspace", "stale workspace could not be removed", err)
	}
	if err := f.cloneWithRetry(ctx, logger, repo, dest); err != nil {
		return "", false, err
	}
	return dest, true, nil
}

// cloneWithRetry retries transport failures with exponential backoff up to
// the configured retry budget. Partial clones are removed between attempts.
func (f *Fetcher) cloneWithRetry(ctx context.Context, logger *slog.Logger, repo, dest string) error {
	retries := f.cfg.Scan.FetchRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := f.git.Clone(ctx, repo, dest)
		if err == nil {
			return nil
		}
		if removeErr := os.RemoveAll(dest); removeErr != nil {
			logger.Warn("partial clone cleanup failed", logging.Error(removeErr))
		}
		logger.Warn(
			"clone attempt failed",
			logging.String("repository", repo),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		return err
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			stage.Fetch,
			"clone repository",
			fmt.Sprintf("clone failed after %d attempts", attempt),
			err,
		)
	}
	return nil
}

func (f *Fetcher) captureDiff(ctx context.Context, state *scan.State, workspace string) error {
	base := strings.TrimSpace(state.BaseBranch)
	if base == "" {
		base = "main"
	}
	head := strings.TrimSpace(state.Branch)

	nameStatus, err := f.git.DiffNameStatus(ctx, workspace, base, head)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			stage.Fetch,
			"diff repository",
			fmt.Sprintf("name-status diff against %s failed", base),
			err,
		)
	}
	unified, err := f.git.DiffUnified(ctx, workspace, base, head)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			stage.Fetch,
			"diff repository",
			fmt.Sprintf("unified diff against %s failed", base),
			err,
		)
	}

	state.Diff = mergeDiff(parseNameStatus(nameStatus), parseUnifiedDiff(unified))
	return nil
}

func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	if f.cfg == nil {
		return stage.Unhealthy(stage.Fetch, "configuration unavailable")
	}
	if strings.TrimSpace(f.cfg.Paths.WorkspaceDir) == "" {
		return stage.Unhealthy(stage.Fetch, "workspace directory not configured")
	}
	binary := f.cfg.GitBinary()
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(stage.Fetch, fmt.Sprintf("git binary %q not found", binary))
	}
	return stage.Healthy(stage.Fetch)
}

// isRemoteRepository reports whether the reference needs a network clone
// rather than a local directory walk.
func isRemoteRepository(repo string) bool {
	if strings.Contains(repo, "://") {
		return true
	}
	return strings.HasPrefix(repo, "git@")
}

// isGitWorkspace accepts both .git directories and the .git files that
// worktrees and submodules use.
func isGitWorkspace(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
