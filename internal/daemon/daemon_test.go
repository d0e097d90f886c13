package daemon_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/daemon"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/testsupport"
	"github.com/aidino/aicode-reviewer-sub001/internal/workflow"
)

func noopHandlers() []stage.Handler {
	names := []string{
		stage.Fetch,
		stage.Parse,
		stage.StaticAnalysis,
		stage.ImpactAnalysis,
		stage.ProjectScan,
		stage.LLMAnalysis,
		stage.Reporting,
		stage.ErrorHandling,
	}
	handlers := make([]stage.Handler, 0, len(names))
	for _, name := range names {
		handlers = append(handlers, stage.Func{StageName: name})
	}
	return handlers
}

func newManager(t *testing.T, cfg *config.Config, store *queue.Store) *workflow.Manager {
	t.Helper()
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	if err := mgr.ConfigureStages(noopHandlers()...); err != nil {
		t.Fatalf("ConfigureStages: %v", err)
	}
	return mgr
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop(), newManager(t, cfg, store), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.PID <= 0 {
		t.Fatalf("expected positive pid, got %d", status.PID)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	storeOne := testsupport.MustOpenStore(t, cfg)
	first, err := daemon.New(cfg, storeOne, logging.NewNop(), newManager(t, cfg, storeOne), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		first.Close()
	})

	storeTwo, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		storeTwo.Close()
	})
	second, err := daemon.New(cfg, storeTwo, logging.NewNop(), newManager(t, cfg, storeTwo), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	err = second.Start(ctx)
	if err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail while lock is held")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected lock error: %v", err)
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second instance should start after lock release: %v", err)
	}
	second.Stop()
}

func TestDaemonStatusReportsPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop(), newManager(t, cfg, store), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.JobDBPath != cfg.Paths.DBPath {
		t.Fatalf("unexpected job db path: %q", status.JobDBPath)
	}
	if status.LockFilePath != cfg.Paths.LockPath {
		t.Fatalf("unexpected lock path: %q", status.LockFilePath)
	}
	if status.LogPath == "" || !strings.HasPrefix(status.LogPath, cfg.Paths.LogDir) {
		t.Fatalf("log path should live under the log dir, got %q", status.LogPath)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
	if status.Dependencies[0].Name != "Git" {
		t.Fatalf("expected git dependency first, got %q", status.Dependencies[0].Name)
	}
}

func TestDaemonTestNotificationUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop(), newManager(t, cfg, store), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ok, detail, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if ok {
		t.Fatal("expected notification test to be skipped without a webhook")
	}
	if !strings.Contains(detail, "not configured") {
		t.Fatalf("unexpected detail: %q", detail)
	}
}

func TestDaemonNewValidatesDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if _, err := daemon.New(cfg, nil, logging.NewNop(), newManager(t, cfg, store), nil); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := daemon.New(nil, store, logging.NewNop(), newManager(t, cfg, store), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
