package workflow_test

import (
	"errors"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/workflow"
)

func walkTable(t *testing.T, table *workflow.Table, state *scan.State) []string {
	t.Helper()

	visited := make([]string, 0, 8)
	current := table.Start()
	for current != stage.End {
		visited = append(visited, current)
		if len(visited) > 16 {
			t.Fatalf("table walk did not terminate: %v", visited)
		}
		next, err := table.Next(current, state)
		if err != nil {
			t.Fatalf("Next(%q) failed: %v", current, err)
		}
		current = next
	}
	return visited
}

func TestDefaultTableRoutesPRScan(t *testing.T) {
	state := scan.NewState(scan.Request{ScanType: scan.TypePR, Repository: "repo", PRID: 7})
	visited := walkTable(t, workflow.DefaultTable(), state)

	want := []string{
		stage.Fetch,
		stage.Parse,
		stage.StaticAnalysis,
		stage.ImpactAnalysis,
		stage.LLMAnalysis,
		stage.Reporting,
	}
	if len(visited) != len(want) {
		t.Fatalf("expected %v, got %v", want, visited)
	}
	for i, name := range want {
		if visited[i] != name {
			t.Fatalf("stage %d: expected %q, got %q", i, name, visited[i])
		}
	}
}

func TestDefaultTableRoutesProjectScan(t *testing.T) {
	state := scan.NewState(scan.Request{ScanType: scan.TypeProject, Repository: "repo"})
	visited := walkTable(t, workflow.DefaultTable(), state)

	sawProjectScan := false
	for _, name := range visited {
		if name == stage.ImpactAnalysis {
			t.Fatalf("project scan visited %q: %v", stage.ImpactAnalysis, visited)
		}
		if name == stage.ProjectScan {
			sawProjectScan = true
		}
	}
	if !sawProjectScan {
		t.Fatalf("project scan skipped %q: %v", stage.ProjectScan, visited)
	}
}

func TestNextRoutesFailuresToErrorSink(t *testing.T) {
	table := workflow.DefaultTable()
	state := scan.NewState(scan.Request{ScanType: scan.TypePR, Repository: "repo", PRID: 1})
	state.SetError(stage.Parse, errors.New("parse exploded"))

	for _, from := range []string{stage.Fetch, stage.Parse, stage.StaticAnalysis, stage.Reporting} {
		next, err := table.Next(from, state)
		if err != nil {
			t.Fatalf("Next(%q) failed: %v", from, err)
		}
		if next != stage.ErrorHandling {
			t.Fatalf("Next(%q) = %q, expected error sink", from, next)
		}
	}

	// The sink itself must keep its declared exit even though the state
	// still carries the failure.
	next, err := table.Next(stage.ErrorHandling, state)
	if err != nil {
		t.Fatalf("Next(error sink) failed: %v", err)
	}
	if next != stage.End {
		t.Fatalf("Next(error sink) = %q, expected end marker", next)
	}
}

func TestNextRejectsUnknownStage(t *testing.T) {
	state := scan.NewState(scan.Request{ScanType: scan.TypePR, Repository: "repo", PRID: 1})
	if _, err := workflow.DefaultTable().Next("mystery", state); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestStagesListsEveryStageOnce(t *testing.T) {
	stages := workflow.DefaultTable().Stages()
	if stages[0] != stage.Fetch {
		t.Fatalf("expected start stage first, got %q", stages[0])
	}
	seen := make(map[string]bool, len(stages))
	for _, name := range stages {
		if name == stage.End {
			t.Fatal("end marker listed as a stage")
		}
		if seen[name] {
			t.Fatalf("stage %q listed twice", name)
		}
		seen[name] = true
	}
	for _, name := range []string{stage.ImpactAnalysis, stage.ProjectScan, stage.ErrorHandling} {
		if !seen[name] {
			t.Fatalf("stage %q missing from %v", name, stages)
		}
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	handlers := stubHandlers(
		stage.Fetch,
		stage.Parse,
		stage.StaticAnalysis,
		stage.ImpactAnalysis,
		stage.ProjectScan,
		stage.LLMAnalysis,
		stage.Reporting,
		stage.ErrorHandling,
	)

	tests := []struct {
		name  string
		table *workflow.Table
	}{
		{
			name: "missing handler",
			table: workflow.NewTable(stage.Fetch, []workflow.Rule{
				{From: stage.Fetch, To: "mystery"},
				{From: "mystery", To: stage.End},
				{From: stage.ErrorHandling, To: stage.End},
			}),
		},
		{
			name: "no unconditional exit",
			table: workflow.NewTable(stage.Fetch, []workflow.Rule{
				{From: stage.Fetch, When: workflow.ScanTypeIs(scan.TypePR), To: stage.End},
				{From: stage.ErrorHandling, To: stage.End},
			}),
		},
		{
			name: "rule shadowed by unconditional rule",
			table: workflow.NewTable(stage.Fetch, []workflow.Rule{
				{From: stage.Fetch, To: stage.Parse},
				{From: stage.Fetch, When: workflow.ScanTypeIs(scan.TypePR), To: stage.End},
				{From: stage.Parse, To: stage.End},
				{From: stage.ErrorHandling, To: stage.End},
			}),
		},
		{
			name: "end marker with outgoing rule",
			table: workflow.NewTable(stage.Fetch, []workflow.Rule{
				{From: stage.Fetch, To: stage.End},
				{From: stage.End, To: stage.Fetch},
				{From: stage.ErrorHandling, To: stage.End},
			}),
		},
		{
			name: "error sink not exiting to end",
			table: workflow.NewTable(stage.Fetch, []workflow.Rule{
				{From: stage.Fetch, To: stage.End},
				{From: stage.ErrorHandling, To: stage.Fetch},
			}),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.table.Validate(handlers); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsDefaultTable(t *testing.T) {
	handlers := stubHandlers(
		stage.Fetch,
		stage.Parse,
		stage.StaticAnalysis,
		stage.ImpactAnalysis,
		stage.ProjectScan,
		stage.LLMAnalysis,
		stage.Reporting,
		stage.ErrorHandling,
	)
	if err := workflow.DefaultTable().Validate(handlers); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func stubHandlers(names ...string) map[string]stage.Handler {
	handlers := make(map[string]stage.Handler, len(names))
	for _, name := range names {
		handlers[name] = &stage.Func{StageName: name}
	}
	return handlers
}
