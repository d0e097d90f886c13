package workflow_test

import (
	"strings"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/workflow"
)

func TestPercentAfterFollowsSchedule(t *testing.T) {
	tracker := workflow.NewTracker()

	tests := []struct {
		scanType scan.Type
		stage    string
		want     int
	}{
		{scan.TypePR, stage.Fetch, 10},
		{scan.TypePR, stage.StaticAnalysis, 45},
		{scan.TypePR, stage.ImpactAnalysis, 65},
		{scan.TypePR, stage.Reporting, 99},
		{scan.TypeProject, stage.ProjectScan, 65},
		{scan.TypeProject, stage.Reporting, 99},
	}
	for _, tc := range tests {
		got, ok := tracker.PercentAfter(tc.scanType, tc.stage)
		if !ok {
			t.Fatalf("PercentAfter(%s, %s) missing from schedule", tc.scanType, tc.stage)
		}
		if got != tc.want {
			t.Fatalf("PercentAfter(%s, %s) = %d, expected %d", tc.scanType, tc.stage, got, tc.want)
		}
	}
}

func TestPercentAfterNeverReaches100(t *testing.T) {
	tracker := workflow.NewTracker()
	for _, scanType := range []scan.Type{scan.TypePR, scan.TypeProject} {
		for _, name := range workflow.DefaultTable().Stages() {
			percent, ok := tracker.PercentAfter(scanType, name)
			if ok && percent >= 100 {
				t.Fatalf("stage %s reports %d; 100 is reserved for completed jobs", name, percent)
			}
		}
	}
}

func TestPercentAfterUnknownStage(t *testing.T) {
	tracker := workflow.NewTracker()
	if _, ok := tracker.PercentAfter(scan.TypePR, stage.ErrorHandling); ok {
		t.Fatal("error sink should not advance progress")
	}
	if _, ok := tracker.PercentAfter(scan.TypePR, stage.ProjectScan); ok {
		t.Fatal("project_scan is not on the pr schedule")
	}
	if _, ok := tracker.PercentAfter(scan.Type("mystery"), stage.Fetch); ok {
		t.Fatal("unknown scan type should report no schedule")
	}
}

func TestValidateAcceptsDefaultSchedule(t *testing.T) {
	if err := workflow.NewTracker().Validate(workflow.DefaultTable()); err != nil {
		t.Fatalf("default schedule rejected: %v", err)
	}
}

func TestValidateRejectsUnscheduledStage(t *testing.T) {
	table := workflow.NewTable(stage.Fetch, []workflow.Rule{
		{From: stage.Fetch, To: stage.Parse},
		{From: stage.Parse, To: stage.StaticAnalysis},
		{From: stage.StaticAnalysis, When: workflow.ScanTypeIs(scan.TypePR), To: stage.ImpactAnalysis},
		{From: stage.StaticAnalysis, To: stage.ProjectScan},
		{From: stage.ImpactAnalysis, To: stage.LLMAnalysis},
		{From: stage.ProjectScan, To: stage.LLMAnalysis},
		{From: stage.LLMAnalysis, To: "quality_gate"},
		{From: "quality_gate", To: stage.Reporting},
		{From: stage.Reporting, To: stage.End},
		{From: stage.ErrorHandling, To: stage.End},
	})

	err := workflow.NewTracker().Validate(table)
	if err == nil {
		t.Fatal("expected error for stage missing from the schedule")
	}
	if !strings.Contains(err.Error(), "no progress entry") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsRegressingSchedule(t *testing.T) {
	// Visits impact_analysis (65) after llm_analysis (90) on the pr path.
	table := workflow.NewTable(stage.Fetch, []workflow.Rule{
		{From: stage.Fetch, To: stage.Parse},
		{From: stage.Parse, To: stage.StaticAnalysis},
		{From: stage.StaticAnalysis, When: workflow.ScanTypeIs(scan.TypePR), To: stage.LLMAnalysis},
		{From: stage.StaticAnalysis, To: stage.ProjectScan},
		{From: stage.ProjectScan, To: stage.LLMAnalysis},
		{From: stage.LLMAnalysis, When: workflow.ScanTypeIs(scan.TypePR), To: stage.ImpactAnalysis},
		{From: stage.LLMAnalysis, To: stage.Reporting},
		{From: stage.ImpactAnalysis, To: stage.Reporting},
		{From: stage.Reporting, To: stage.End},
		{From: stage.ErrorHandling, To: stage.End},
	})

	err := workflow.NewTracker().Validate(table)
	if err == nil {
		t.Fatal("expected error for progress that moves backward")
	}
	if !strings.Contains(err.Error(), "does not advance") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsOrphanedEntry(t *testing.T) {
	// Neither fork stage is reachable, so both schedules carry an entry the
	// table never visits.
	table := workflow.NewTable(stage.Fetch, []workflow.Rule{
		{From: stage.Fetch, To: stage.Parse},
		{From: stage.Parse, To: stage.StaticAnalysis},
		{From: stage.StaticAnalysis, To: stage.LLMAnalysis},
		{From: stage.LLMAnalysis, To: stage.Reporting},
		{From: stage.Reporting, To: stage.End},
		{From: stage.ErrorHandling, To: stage.End},
	})

	err := workflow.NewTracker().Validate(table)
	if err == nil {
		t.Fatal("expected error for a progress entry off the path")
	}
	if !strings.Contains(err.Error(), "never reaches") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsCyclicTable(t *testing.T) {
	table := workflow.NewTable(stage.Fetch, []workflow.Rule{
		{From: stage.Fetch, To: stage.Parse},
		{From: stage.Parse, To: stage.Fetch},
		{From: stage.ErrorHandling, To: stage.End},
	})

	if err := workflow.NewTracker().Validate(table); err == nil {
		t.Fatal("expected error for a table that never ends")
	}
}

func TestValidateRejectsNilTable(t *testing.T) {
	if err := workflow.NewTracker().Validate(nil); err == nil {
		t.Fatal("expected error for nil table")
	}
}
