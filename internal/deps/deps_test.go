package deps_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/deps"
)

func TestCheckBinariesResolvesPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-git")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}

	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "Git", Command: bin, Description: "Required for repository access"},
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected binary to be available: %+v", results[0])
	}
	if results[0].Command != bin {
		t.Fatalf("expected resolved command %q, got %q", bin, results[0].Command)
	}
}

func TestCheckBinariesRunsVersionProbe(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-git")
	script := "#!/bin/sh\necho 'git version 2.49.0'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}

	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "Git", Command: bin, Version: "--version"},
	})
	if !results[0].Available {
		t.Fatalf("expected probe to pass: %+v", results[0])
	}
	if results[0].Detail != "git version 2.49.0" {
		t.Fatalf("expected probe output in detail, got %q", results[0].Detail)
	}
}

func TestCheckBinariesReportsFailedProbe(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "broken-git")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}

	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "Git", Command: bin, Version: "--version"},
	})
	if results[0].Available {
		t.Fatal("expected failed probe to mark the binary unavailable")
	}
}

func TestCheckBinariesReportsMissing(t *testing.T) {
	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "Git", Command: "definitely-not-a-real-binary-4921"},
		{Name: "Unset", Command: "  "},
	})
	if results[0].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[0].Detail == "" {
		t.Fatal("expected detail for missing binary")
	}
	if results[1].Available || results[1].Detail != "command not configured" {
		t.Fatalf("unexpected unset result: %+v", results[1])
	}
}
