// Package testsupport provides shared fixtures for package tests: temp-dir
// configs, queue stores, and small file trees standing in for repositories.
package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, applies any provided options, and normalizes the
// result so derived paths (database, socket, lock) are populated.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.ReportsDir = filepath.Join(base, "reports")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Workflow.WorkerCount = 1
	cfg.Workflow.QueuePollInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize test config: %v", err)
	}
	return &cfg
}

// WithWorkerCount overrides the workflow worker count on the test config.
func WithWorkerCount(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.WorkerCount = count
	}
}

// WithLLMKey sets the LLM API key on the test config.
func WithLLMKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.APIKey = key
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
