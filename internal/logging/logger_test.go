package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
)

func TestNewWritesConsoleFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("scan queued",
		logging.String(logging.FieldComponent, "queue"),
		logging.String(logging.FieldJobID, "abc123"),
	)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "INFO queue: scan queued") {
		t.Fatalf("console line missing component prefix: %q", line)
	}
	if !strings.Contains(line, "job_id=abc123") {
		t.Fatalf("console line missing job_id attr: %q", line)
	}
}

func TestNewWritesJSONFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Debug("stage started", logging.String(logging.FieldStage, "fetch"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"level":"debug"`, `"msg":"stage started"`, `"stage":"fetch"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("json line missing %s: %q", want, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "job-9")
	ctx = services.WithStage(ctx, "parse")
	logging.WithContext(ctx, logger).Info("working")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "job_id=job-9") || !strings.Contains(line, "stage=parse") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored", logging.Error(nil))
}
