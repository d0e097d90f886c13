package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/api"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/testsupport"
	"github.com/aidino/aicode-reviewer-sub001/internal/workflow"
)

func newHandlerDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	handlers := []stage.Handler{
		stage.Func{StageName: stage.Fetch},
		stage.Func{StageName: stage.Parse},
		stage.Func{StageName: stage.StaticAnalysis},
		stage.Func{StageName: stage.ImpactAnalysis},
		stage.Func{StageName: stage.ProjectScan},
		stage.Func{StageName: stage.LLMAnalysis},
		stage.Func{StageName: stage.Reporting},
		stage.Func{StageName: stage.ErrorHandling},
	}
	if err := mgr.ConfigureStages(handlers...); err != nil {
		t.Fatalf("ConfigureStages: %v", err)
	}
	d, err := New(cfg, store, logging.NewNop(), mgr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestAPIServerHandleHealthz(t *testing.T) {
	d := newHandlerDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	d.api.handleHealthz(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", body)
	}

	w = httptest.NewRecorder()
	d.api.handleHealthz(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", w.Code)
	}
}

func TestAPIServerHandleJobs(t *testing.T) {
	d := newHandlerDaemon(t)
	ctx := context.Background()

	job, err := d.Jobs().Submit(ctx, scan.Request{
		ScanType:   scan.TypePR,
		Repository: "git@example.com:team/service.git",
		PRID:       42,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	d.api.handleJobs(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0].JobID != job.JobID {
		t.Fatalf("unexpected job id: %q", resp.Jobs[0].JobID)
	}
	if resp.Jobs[0].Status != string(queue.StatusPending) {
		t.Fatalf("unexpected status: %q", resp.Jobs[0].Status)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed", nil)
	w = httptest.NewRecorder()
	d.api.handleJobs(w, req)
	resp = api.JobListResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode filtered response: %v", err)
	}
	if len(resp.Jobs) != 0 {
		t.Fatalf("expected no completed jobs, got %d", len(resp.Jobs))
	}
}

func TestAPIServerHandleJob(t *testing.T) {
	d := newHandlerDaemon(t)
	ctx := context.Background()

	job, err := d.Jobs().Submit(ctx, scan.Request{
		ScanType:   scan.TypeProject,
		Repository: "git@example.com:team/service.git",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.JobID, nil)
	w := httptest.NewRecorder()
	d.api.handleJob(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.JobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Job.JobID != job.JobID {
		t.Fatalf("unexpected job id: %q", resp.Job.JobID)
	}
	if resp.Job.ScanType != string(scan.TypeProject) {
		t.Fatalf("unexpected scan type: %q", resp.Job.ScanType)
	}

	w = httptest.NewRecorder()
	d.api.handleJob(w, httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", w.Code)
	}
}

func TestAPIServerHandleStatus(t *testing.T) {
	d := newHandlerDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	d.api.handleStatus(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Running {
		t.Fatal("daemon was never started")
	}
	if resp.PID <= 0 {
		t.Fatalf("expected positive pid, got %d", resp.PID)
	}
	if resp.JobDBPath == "" || resp.LogPath == "" {
		t.Fatalf("expected paths in status, got %+v", resp)
	}
	if len(resp.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
}

func TestAPIServerHandleLogs(t *testing.T) {
	d := newHandlerDaemon(t)
	content := "alpha\nbravo\ncharlie\n"
	if err := os.WriteFile(d.LogPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/logs?offset=-1&limit=2", nil)
	w := httptest.NewRecorder()
	d.api.handleLogs(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.LogTailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[0] != "bravo" || resp.Lines[1] != "charlie" {
		t.Fatalf("unexpected tail lines: %v", resp.Lines)
	}
	if resp.Offset != int64(len(content)) {
		t.Fatalf("expected offset %d, got %d", len(content), resp.Offset)
	}
}
