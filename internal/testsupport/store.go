package testsupport

import (
	"context"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewPRJob inserts a pr scan job for tests using the provided store.
func NewPRJob(t testing.TB, store *queue.Store, repository string, prID int64) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), scan.Request{
		ScanType:   scan.TypePR,
		Repository: repository,
		PRID:       prID,
	})
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}

// NewProjectJob inserts a project scan job for tests using the provided store.
func NewProjectJob(t testing.TB, store *queue.Store, repository string) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), scan.Request{
		ScanType:   scan.TypeProject,
		Repository: repository,
	})
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
