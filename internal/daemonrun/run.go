// Package daemonrun hosts the daemon runtime loop shared by the aicoded
// binary and the CLI's foreground daemon command. It wires configuration,
// logging, the job store, the workflow manager with the full scan pipeline,
// the IPC socket, and the HTTP status API into one process.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/daemon"
	"github.com/aidino/aicode-reviewer-sub001/internal/errorsink"
	"github.com/aidino/aicode-reviewer-sub001/internal/fetch"
	"github.com/aidino/aicode-reviewer-sub001/internal/impact"
	"github.com/aidino/aicode-reviewer-sub001/internal/ipc"
	"github.com/aidino/aicode-reviewer-sub001/internal/llmreview"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/notify"
	"github.com/aidino/aicode-reviewer-sub001/internal/parse"
	"github.com/aidino/aicode-reviewer-sub001/internal/projectscan"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/reporting"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/staticanalysis"
	"github.com/aidino/aicode-reviewer-sub001/internal/workflow"
)

// Options configures daemon runtime behavior.
type Options struct {
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Run starts the reviewer daemon loop and blocks until the context is
// cancelled or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "aicoded.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notify.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	if err := manager.ConfigureStages(StageHandlers(cfg, logger)...); err != nil {
		return fmt.Errorf("configure scan pipeline: %w", err)
	}

	d, err := daemon.New(cfg, store, logger, manager, notifier)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and job database access"))
	}

	<-signalCtx.Done()
	logger.Info("reviewer daemon shutting down")
	return nil
}

// StageHandlers constructs the scan pipeline handlers in execution order. The
// workflow table decides which of them actually run for a given scan type; the
// list only has to cover every stage the table can route to.
func StageHandlers(cfg *config.Config, logger *slog.Logger) []stage.Handler {
	if cfg == nil {
		return nil
	}

	return []stage.Handler{
		fetch.NewFetcher(cfg, logger),
		parse.NewParser(cfg, logger),
		staticanalysis.NewAnalyzer(cfg, logger),
		impact.NewAnalyzer(cfg, logger),
		projectscan.NewAggregator(cfg, logger),
		llmreview.NewReviewer(cfg, logger),
		reporting.NewReporter(cfg, logger),
		errorsink.NewSink(cfg, logger),
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	git := cfg.GitBinary()
	_, gitErr := exec.LookPath(git)
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("git_binary", git),
		logging.Bool("git_available", gitErr == nil),
		logging.Bool("llm_key_present", cfg.GetLLM().APIKey != ""),
		logging.Bool("webhook_configured", strings.TrimSpace(cfg.Notifications.WebhookURL) != ""))
}
