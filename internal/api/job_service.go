package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/notify"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
)

// JobReader abstracts the job persistence reads needed for API queries.
type JobReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByJobID(ctx context.Context, jobID string) (*queue.Job, error)
}

// JobStore widens JobReader with the mutations the service performs.
type JobStore interface {
	JobReader
	NewJob(ctx context.Context, req scan.Request) (*queue.Job, error)
	RequestCancel(ctx context.Context, jobID string) (queue.CancelOutcome, error)
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	ClearTerminal(ctx context.Context) (int64, error)
}

// Canceller flags a job for cancellation. The workflow manager implements it
// so a running job also gets its in-memory token flipped; the bare store only
// sets the database flag.
type Canceller interface {
	Cancel(ctx context.Context, jobID string) (queue.CancelOutcome, error)
}

// JobService exposes scan submission and queue operations returning API DTOs.
type JobService struct {
	store     JobStore
	notifier  notify.Service
	canceller Canceller
	logger    *slog.Logger
}

// NewJobService constructs a JobService around the provided store. Cancel
// requests go straight to the store.
func NewJobService(store JobStore, notifier notify.Service, logger *slog.Logger) *JobService {
	return NewJobServiceWithCanceller(store, notifier, nil, logger)
}

// NewJobServiceWithCanceller constructs a JobService that routes cancel
// requests through the given canceller, typically the workflow manager.
func NewJobServiceWithCanceller(store JobStore, notifier notify.Service, canceller Canceller, logger *slog.Logger) *JobService {
	if store == nil {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &JobService{store: store, notifier: notifier, canceller: canceller, logger: logger}
}

// Submit validates a scan request, persists a pending job, and emits the
// queued notification. Notification failures are logged, not returned; the
// job is already durable at that point.
func (s *JobService) Submit(ctx context.Context, req scan.Request) (JobSnapshot, error) {
	if s == nil || s.store == nil {
		return JobSnapshot{}, services.Wrap(services.ErrInternal, "", "submit scan", "job service not configured", nil)
	}
	if err := req.Validate(); err != nil {
		return JobSnapshot{}, err
	}
	job, err := s.store.NewJob(ctx, req)
	if err != nil {
		return JobSnapshot{}, err
	}
	s.logger.Info("scan queued",
		logging.String(logging.FieldJobID, job.JobID),
		logging.String(logging.FieldScanID, job.ScanID),
		logging.String(logging.FieldScanType, string(job.ScanType)),
		logging.String("repository", job.Repository),
	)
	if s.notifier != nil {
		if err := s.notifier.JobQueued(ctx, job); err != nil {
			s.logger.Warn("job queued notification failed", logging.Error(err))
		}
	}
	return FromJob(job), nil
}

// List returns job snapshots filtered by status.
func (s *JobService) List(ctx context.Context, statuses ...queue.Status) ([]JobSnapshot, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Stats returns job summary counts keyed by status string.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeJobStats(stats), nil
}

// Describe fetches a single job snapshot, or nil when no job matches.
func (s *JobService) Describe(ctx context.Context, jobID string) (*JobSnapshot, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.GetByJobID(ctx, jobID)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// Cancel requests cancellation of a job by its public identifier.
func (s *JobService) Cancel(ctx context.Context, jobID string) (queue.CancelOutcome, error) {
	if s == nil || s.store == nil {
		return queue.CancelNotFound, nil
	}
	var (
		outcome queue.CancelOutcome
		err     error
	)
	if s.canceller != nil {
		outcome, err = s.canceller.Cancel(ctx, jobID)
	} else {
		outcome, err = s.store.RequestCancel(ctx, jobID)
	}
	if err != nil {
		return outcome, err
	}
	s.logger.Info("cancel requested",
		logging.String(logging.FieldJobID, jobID),
		logging.String("outcome", string(outcome)),
	)
	return outcome, nil
}

// Cleanup removes terminal jobs older than the retention window and reports
// how many rows were deleted.
func (s *JobService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	removed, err := s.store.Cleanup(ctx, retention)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("cleaned up finished jobs", logging.Int64("removed", removed))
	}
	return removed, nil
}

// ClearFailed removes failed jobs regardless of age.
func (s *JobService) ClearFailed(ctx context.Context) (int64, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	return s.store.ClearFailed(ctx)
}

// ClearTerminal removes all finished jobs regardless of age.
func (s *JobService) ClearTerminal(ctx context.Context) (int64, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	return s.store.ClearTerminal(ctx)
}
