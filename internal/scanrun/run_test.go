package scanrun_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/scanrun"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/testsupport"
)

func stubHandlers(overrides map[string]func(context.Context, *scan.State) error) []stage.Handler {
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
		handlers = append(handlers, stage.Func{StageName: name, Run: overrides[name]})
	}
	return handlers
}

func TestRunCompletesPRScan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var progressStages []string
	result, err := scanrun.Run(ctx, scanrun.Options{
		Config:   cfg,
		Store:    store,
		Handlers: stubHandlers(nil),
		Request: scan.Request{
			ScanType:   scan.TypePR,
			Repository: "git@example.com:team/service.git",
			PRID:       11,
		},
		Progress: func(stageName, _ string, _ float64) {
			progressStages = append(progressStages, stageName)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Job.Status != queue.StatusCompleted {
		t.Fatalf("expected completed job, got %s", result.Job.Status)
	}
	if result.Job.ProgressPercent != 100 {
		t.Fatalf("expected 100%% progress, got %v", result.Job.ProgressPercent)
	}
	if result.Job.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
	if !result.State.HasVisited(stage.ImpactAnalysis) {
		t.Fatal("pr scan should run impact analysis")
	}
	if result.State.HasVisited(stage.ProjectScan) {
		t.Fatal("pr scan should not run the project scan stage")
	}

	if len(progressStages) == 0 || progressStages[0] != stage.Fetch {
		t.Fatalf("expected progress to start at fetch, got %v", progressStages)
	}

	stored, err := store.GetByJobID(ctx, result.Job.JobID)
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if stored == nil || stored.Status != queue.StatusCompleted {
		t.Fatalf("expected persisted completion, got %#v", stored)
	}
}

func TestRunRoutesFailureThroughErrorSink(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	overrides := map[string]func(context.Context, *scan.State) error{
		stage.StaticAnalysis: func(context.Context, *scan.State) error {
			return services.Wrap(services.ErrExternalTool, stage.StaticAnalysis, "lint", "linter exploded", nil)
		},
	}
	result, err := scanrun.Run(context.Background(), scanrun.Options{
		Config:   cfg,
		Store:    store,
		Handlers: stubHandlers(overrides),
		Request: scan.Request{
			ScanType:   scan.TypeProject,
			Repository: "git@example.com:team/service.git",
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Job.Status != queue.StatusFailed {
		t.Fatalf("expected failed job, got %s", result.Job.Status)
	}
	if result.Job.ErrorStage != stage.StaticAnalysis {
		t.Fatalf("unexpected error stage: %q", result.Job.ErrorStage)
	}
	if result.Job.ErrorKind != services.KindExternal {
		t.Fatalf("unexpected error kind: %q", result.Job.ErrorKind)
	}
	if !result.State.HasVisited(stage.ErrorHandling) {
		t.Fatal("failure should route through the error handling stage")
	}
	if result.State.HasVisited(stage.LLMAnalysis) {
		t.Fatal("failed run should not reach llm analysis")
	}
}

func TestRunValidatesRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := scanrun.Run(context.Background(), scanrun.Options{
		Config:   cfg,
		Store:    store,
		Handlers: stubHandlers(nil),
		Request: scan.Request{
			ScanType:   scan.TypePR,
			Repository: "git@example.com:team/service.git",
		},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	jobs, listErr := store.List(context.Background())
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no persisted jobs, got %d", len(jobs))
	}
}
