package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/api"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "running (pid 42)", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Queue", false)
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %d lines", len(lines))
	}
	if lines[0] != "== Queue ==" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", len(lines[0])) {
		t.Fatalf("rule length does not match header: %q", lines[1])
	}
}

func TestDependencyLines(t *testing.T) {
	deps := []api.DependencyStatus{
		{Name: "Git", Available: false},
		{Name: "Notification webhook", Available: false, Optional: true, Detail: "not configured"},
	}
	lines := dependencyLines(deps, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] not available") {
		t.Fatalf("expected missing required dependency, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[WARN] not configured (optional)") {
		t.Fatalf("expected optional warning, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "Missing:") || !strings.Contains(lines[2], "Git") {
		t.Fatalf("expected missing summary, got %q", lines[2])
	}
}

func TestDependencyLinesReady(t *testing.T) {
	deps := []api.DependencyStatus{
		{Name: "Git", Available: true, Command: "/usr/bin/git"},
	}
	lines := dependencyLines(deps, false)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] Ready (command: /usr/bin/git)") {
		t.Fatalf("expected ready line, got %q", lines[0])
	}
}

func TestStageHealthLines(t *testing.T) {
	health := []api.StageHealth{
		{Name: "fetch", Ready: true},
		{Name: "static_analysis", Ready: false, Detail: "no rules loaded"},
	}
	lines := stageHealthLines(health, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "Fetch:") || !strings.Contains(lines[0], "[OK] ready") {
		t.Fatalf("expected ready stage, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "Static Analysis:") || !strings.Contains(lines[1], "[WARN] no rules loaded") {
		t.Fatalf("expected stage warning, got %q", lines[1])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
