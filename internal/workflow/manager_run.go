package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

func (m *Manager) runWorker(ctx context.Context, worker int) {
	defer m.wg.Done()

	workerCtx := services.WithWorker(ctx, worker)
	logger := logging.WithContext(workerCtx, m.logger)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.ClaimNextPending(workerCtx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.handleClaimError(workerCtx, logger, err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if err := m.processJob(workerCtx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) handleClaimError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to claim next job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_claim_failed"),
		logging.String(logging.FieldErrorHint, "check job database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.errorRetryInterval):
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

// processJob drives one claimed job to a terminal status. The worker owns
// the job for the whole run; all persistence flows through the stage hooks
// and the terminal writes below.
func (m *Manager) processJob(ctx context.Context, job *queue.Job) error {
	m.registerRun(job)
	defer m.unregisterRun(job)

	jobCtx := services.WithJobID(ctx, job.JobID)
	jobCtx = services.WithScanID(jobCtx, job.ScanID)
	jobCtx = services.WithRequestID(jobCtx, uuid.NewString())
	logger := logging.WithContext(jobCtx, m.logger)

	state := m.stateFromJob(job)

	logger.Info("job started",
		logging.String(logging.FieldScanType, string(job.ScanType)),
		logging.String("repository", job.Repository),
		logging.String(logging.FieldEventType, "job_start"),
	)
	jobStart := time.Now()

	hbCtx, hbCancel := context.WithCancel(jobCtx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	result, runErr := m.engine.Run(jobCtx, state)
	hbCancel()
	hbWG.Wait()

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			// Shutdown interrupted the run; startup recovery will fail the
			// job as interrupted when the daemon comes back.
			logger.Debug("job interrupted by shutdown", logging.String(logging.FieldStage, result.LastStage))
			return runErr
		}
		m.setLastError(runErr)
		logger.Error("job aborted",
			logging.Error(runErr),
			logging.String(logging.FieldStage, result.LastStage),
			logging.String(logging.FieldEventType, "job_abort"),
		)
		job.SetFailed(result.LastStage, services.FailureKind(runErr), runErr.Error())
		if err := m.store.Update(jobCtx, job); err != nil {
			logger.Error("failed to persist job abort", logging.Error(err))
		}
		m.setLastJob(job)
		return runErr
	}

	if result.Cancelled {
		job.SetCancelled("cancelled by user")
		if err := m.store.Update(jobCtx, job); err != nil {
			m.setLastError(err)
			logger.Error("failed to persist cancellation", logging.Error(err))
			return err
		}
		logger.Info("job cancelled",
			logging.String(logging.FieldStage, result.LastStage),
			logging.String(logging.FieldEventType, "job_cancelled"),
			logging.Duration("job_duration", time.Since(jobStart)),
		)
		m.setLastJob(job)
		m.notify(jobCtx, logger, "cancellation", m.notifier.JobCancelled, job)
		return nil
	}

	if resultJSON, err := encodeResult(state.Result); err != nil {
		logger.Warn("failed to encode result reference", logging.Error(err))
	} else if resultJSON != "" {
		job.ResultJSON = resultJSON
	}

	if state.Failed() {
		job.SetFailed(state.Error.Stage, state.Error.Kind, state.Error.Message)
		if err := m.store.Update(jobCtx, job); err != nil {
			m.setLastError(err)
			logger.Error("failed to persist job failure", logging.Error(err))
			return err
		}
		logger.Error("job failed",
			logging.String(logging.FieldStage, state.Error.Stage),
			logging.String("error_kind", state.Error.Kind),
			logging.String("error_message", state.Error.Message),
			logging.String(logging.FieldEventType, "job_failure"),
			logging.Duration("job_duration", time.Since(jobStart)),
		)
		m.setLastJob(job)
		m.notify(jobCtx, logger, "failure", m.notifier.JobFailed, job)
		return nil
	}

	job.SetCompleted(completionMessage(state))
	if err := m.store.Update(jobCtx, job); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist job completion", logging.Error(err))
		return err
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Duration("job_duration", time.Since(jobStart)),
		logging.Int("stages_run", result.StagesRun),
	)
	m.setLastJob(job)
	m.notify(jobCtx, logger, "completion", m.notifier.JobCompleted, job)
	return nil
}

// stateFromJob rebuilds the scan state a claimed job describes. The scan
// identifier was assigned at submission and is reused so logs correlate.
func (m *Manager) stateFromJob(job *queue.Job) *scan.State {
	return &scan.State{
		ScanID:     job.ScanID,
		ScanType:   job.ScanType,
		Repository: job.Repository,
		PRID:       job.PRID,
		Branch:     job.Branch,
		BaseBranch: m.cfg.Scan.BaseBranch,
		CreatedAt:  job.CreatedAt,
	}
}

// cancelRequested is the engine's cooperative cancellation probe. The
// in-memory token catches cancels routed through this process; the database
// flag catches cancels issued while another process holds the store.
func (m *Manager) cancelRequested(ctx context.Context, state *scan.State) bool {
	job := m.activeJob(state.ScanID)
	if job == nil {
		return false
	}
	m.mu.RLock()
	token := m.cancels[job.JobID]
	m.mu.RUnlock()
	if token != nil && token.Load() {
		return true
	}
	flagged, err := m.store.CancelRequestedFor(ctx, job.ID)
	if err != nil {
		logging.WithContext(ctx, m.logger).Warn("cancel flag check failed", logging.Error(err))
		return false
	}
	return flagged
}

func (m *Manager) onStageStart(ctx context.Context, stageName string, state *scan.State, _ error) error {
	job := m.activeJob(state.ScanID)
	if job == nil {
		return nil
	}
	job.SetProgress(stageName, stage.Label(stageName)+" started", job.ProgressPercent)
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist stage start: %w", err)
	}
	logging.WithContext(ctx, m.logger).Info("stage started",
		logging.String(logging.FieldStage, stageName),
		logging.String(logging.FieldEventType, "stage_start"),
	)
	return nil
}

func (m *Manager) onStageDone(ctx context.Context, stageName string, state *scan.State, stageErr error) error {
	job := m.activeJob(state.ScanID)
	if job == nil {
		return nil
	}
	logger := logging.WithContext(ctx, m.logger)

	if stageErr != nil {
		job.SetProgress(stageName, stage.Label(stageName)+" failed", job.ProgressPercent)
		logger.Error("stage failed",
			logging.String(logging.FieldStage, stageName),
			logging.String("error_kind", services.FailureKind(stageErr)),
			logging.Error(stageErr),
			logging.String(logging.FieldEventType, "stage_failure"),
		)
	} else {
		percent := job.ProgressPercent
		if next, ok := m.tracker.PercentAfter(job.ScanType, stageName); ok && float64(next) > percent {
			percent = float64(next)
		}
		job.SetProgress(stageName, stage.Label(stageName)+" completed", percent)
		logger.Info("stage completed",
			logging.String(logging.FieldStage, stageName),
			logging.Float64("progress", percent),
			logging.String(logging.FieldEventType, "stage_complete"),
		)
	}

	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}
	return nil
}

func (m *Manager) runMaintenance(ctx context.Context) {
	defer m.wg.Done()
	if m.cleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.store.Cleanup(ctx, m.retention)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				m.logger.Warn("job cleanup failed", logging.Error(err))
			} else if removed > 0 {
				m.logger.Info("removed expired jobs",
					logging.Int64("count", removed),
					logging.String(logging.FieldEventType, "job_cleanup"),
				)
			}
			m.heartbeat.ObserveStale(ctx)
		}
	}
}

func (m *Manager) notify(ctx context.Context, logger *slog.Logger, label string, fn func(context.Context, *queue.Job) error, job *queue.Job) {
	if m.notifier == nil {
		return
	}
	if err := fn(ctx, job.Clone()); err != nil {
		logger.Debug("notification failed",
			logging.String("notification", label),
			logging.Error(err),
		)
	}
}

func encodeResult(result *scan.ResultRef) (string, error) {
	if result == nil {
		return "", nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func completionMessage(state *scan.State) string {
	if state.Result != nil && state.Result.Summary != "" {
		return state.Result.Summary
	}
	return "review complete"
}
