package api

import (
	"strings"
	"testing"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/workflow"
)

func TestFromJobMapsFields(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	started := created.Add(2 * time.Second)
	job := &queue.Job{
		ID:              12,
		JobID:           "job-0012",
		ScanID:          "scan-abc",
		ScanType:        scan.TypePR,
		Repository:      "https://example.com/demo.git",
		PRID:            42,
		Branch:          "feature/login",
		Status:          queue.StatusRunning,
		CurrentStage:    stage.StaticAnalysis,
		ProgressPercent: 37.5,
		ProgressMessage: "static analysis running",
		ResultJSON:      `{"summary":"ok"}`,
		CreatedAt:       created,
		StartedAt:       &started,
		UpdatedAt:       started,
	}

	dto := FromJob(job)
	if dto.JobID != "job-0012" || dto.ScanID != "scan-abc" {
		t.Fatalf("unexpected identifiers: %+v", dto)
	}
	if dto.ScanType != "pr" || dto.PRID != 42 || dto.Branch != "feature/login" {
		t.Fatalf("unexpected scan fields: %+v", dto)
	}
	if dto.Status != string(queue.StatusRunning) {
		t.Fatalf("unexpected status: %q", dto.Status)
	}
	if dto.Progress.Stage != stage.StaticAnalysis || dto.Progress.Percent != 37.5 {
		t.Fatalf("unexpected progress: %+v", dto.Progress)
	}
	if dto.Error != nil {
		t.Fatalf("expected no error detail, got %+v", dto.Error)
	}
	if string(dto.Result) != `{"summary":"ok"}` {
		t.Fatalf("unexpected result payload: %s", dto.Result)
	}
	if !strings.HasPrefix(dto.CreatedAt, "2026-03-14T09:30:00") {
		t.Fatalf("unexpected createdAt: %q", dto.CreatedAt)
	}
	if dto.StartedAt == "" || dto.CompletedAt != "" {
		t.Fatalf("unexpected run timestamps: started=%q completed=%q", dto.StartedAt, dto.CompletedAt)
	}
}

func TestFromJobCarriesFailureDetail(t *testing.T) {
	job := &queue.Job{
		JobID:        "job-9",
		Status:       queue.StatusFailed,
		ErrorStage:   stage.Fetch,
		ErrorKind:    "external",
		ErrorMessage: "clone failed after 3 attempts",
	}
	dto := FromJob(job)
	if dto.Error == nil {
		t.Fatal("expected error detail")
	}
	if dto.Error.Stage != stage.Fetch || dto.Error.Kind != "external" {
		t.Fatalf("unexpected error detail: %+v", dto.Error)
	}
	if dto.Result != nil {
		t.Fatalf("expected empty result, got %s", dto.Result)
	}
}

func TestFromStatusSummaryOrdersStageHealth(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:    true,
		Workers:    2,
		Uptime:     90 * time.Second,
		ActiveJobs: []string{"job-b", "job-a"},
		QueueStats: map[queue.Status]int{queue.StatusPending: 3},
		StageHealth: map[string]stage.Health{
			stage.Parse:       stage.Healthy(stage.Parse),
			stage.Fetch:       stage.Unhealthy(stage.Fetch, "git binary missing"),
			stage.LLMAnalysis: stage.Healthy(stage.LLMAnalysis),
		},
		LastError: "boom",
		LastJob:   &queue.Job{JobID: "job-a", Status: queue.StatusRunning},
	}

	wf := FromStatusSummary(summary)
	if !wf.Running || wf.Workers != 2 {
		t.Fatalf("unexpected workflow flags: %+v", wf)
	}
	if wf.UptimeSeconds != 90 {
		t.Fatalf("unexpected uptime: %v", wf.UptimeSeconds)
	}
	if len(wf.ActiveJobs) != 2 || wf.ActiveJobs[0] != "job-a" {
		t.Fatalf("expected sorted active jobs, got %v", wf.ActiveJobs)
	}
	if wf.QueueStats["pending"] != 3 {
		t.Fatalf("unexpected queue stats: %v", wf.QueueStats)
	}
	if len(wf.StageHealth) != 3 {
		t.Fatalf("expected 3 health entries, got %d", len(wf.StageHealth))
	}
	if wf.StageHealth[0].Name != stage.Fetch || wf.StageHealth[0].Ready {
		t.Fatalf("expected fetch first and unready, got %+v", wf.StageHealth[0])
	}
	if wf.LastError != "boom" {
		t.Fatalf("unexpected last error: %q", wf.LastError)
	}
	if wf.LastJob == nil || wf.LastJob.JobID != "job-a" {
		t.Fatalf("unexpected last job: %+v", wf.LastJob)
	}
}

func TestSortJobsNewestFirst(t *testing.T) {
	jobs := []JobSnapshot{
		{ID: 1, CreatedAt: "2026-03-14T09:00:00.000Z"},
		{ID: 3, CreatedAt: "2026-03-14T11:00:00.000Z"},
		{ID: 2, CreatedAt: "2026-03-14T11:00:00.000Z"},
	}
	sorted := SortJobsNewestFirst(jobs)
	if sorted[0].ID != 3 || sorted[1].ID != 2 || sorted[2].ID != 1 {
		t.Fatalf("unexpected order: %v", []int64{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	}
	if jobs[0].ID != 1 {
		t.Fatal("expected input slice to stay untouched")
	}
}
