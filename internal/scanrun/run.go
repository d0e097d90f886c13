// Package scanrun executes a scan synchronously in the calling process. The
// CLI uses it for one-shot runs without a daemon; the job row is still
// written so history, progress, and reports stay in one place.
package scanrun

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/notify"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/workflow"
)

// Options bundles everything a one-shot scan needs.
type Options struct {
	Config   *config.Config
	Store    *queue.Store
	Logger   *slog.Logger
	Notifier notify.Service
	Handlers []stage.Handler
	Request  scan.Request

	// Progress, when set, receives stage transitions for interactive
	// display. It runs on the engine goroutine; keep it fast.
	Progress func(stageName, message string, percent float64)
}

// Result reports the terminal job row and the state the pipeline produced.
// Job.Status tells whether the scan completed or failed; Run only returns an
// error for faults that kept the pipeline from finishing at all.
type Result struct {
	Job   *queue.Job
	State *scan.State
}

// Run drives one scan from submission to a terminal status.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("job store is required")
	}
	if len(opts.Handlers) == 0 {
		return nil, errors.New("stage handlers are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	job, err := opts.Store.NewJob(ctx, opts.Request)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job.Status = queue.StatusRunning
	job.StartedAt = &now
	if err := opts.Store.Update(ctx, job); err != nil {
		return nil, err
	}

	runCtx := services.WithJobID(ctx, job.JobID)
	runCtx = services.WithScanID(runCtx, job.ScanID)
	runCtx = services.WithRequestID(runCtx, uuid.NewString())
	logger = logging.WithContext(runCtx, logger)

	state := &scan.State{
		ScanID:     job.ScanID,
		ScanType:   job.ScanType,
		Repository: job.Repository,
		PRID:       job.PRID,
		Branch:     job.Branch,
		BaseBranch: opts.Config.Scan.BaseBranch,
		CreatedAt:  job.CreatedAt,
	}

	table := workflow.DefaultTable()
	tracker := workflow.NewTracker()
	if err := tracker.Validate(table); err != nil {
		return nil, err
	}
	engine, err := workflow.NewEngine(
		table,
		logger,
		opts.Handlers,
		workflow.WithStageTimeout(time.Duration(opts.Config.Workflow.StageTimeout)*time.Second),
		workflow.WithStageStart(func(hookCtx context.Context, stageName string, _ *scan.State, _ error) error {
			job.SetProgress(stageName, stage.Label(stageName)+" started", job.ProgressPercent)
			if err := opts.Store.Update(hookCtx, job); err != nil {
				return err
			}
			report(opts.Progress, job)
			return nil
		}),
		workflow.WithStageDone(func(hookCtx context.Context, stageName string, _ *scan.State, stageErr error) error {
			if stageErr != nil {
				job.SetProgress(stageName, stage.Label(stageName)+" failed", job.ProgressPercent)
			} else {
				percent := job.ProgressPercent
				if next, ok := tracker.PercentAfter(job.ScanType, stageName); ok && float64(next) > percent {
					percent = float64(next)
				}
				job.SetProgress(stageName, stage.Label(stageName)+" completed", percent)
			}
			if err := opts.Store.Update(hookCtx, job); err != nil {
				return err
			}
			report(opts.Progress, job)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("scan started",
		logging.String(logging.FieldScanType, string(job.ScanType)),
		logging.String("repository", job.Repository),
		logging.String(logging.FieldEventType, "job_start"),
	)
	start := time.Now()

	runResult, runErr := engine.Run(runCtx, state)
	if runErr != nil {
		job.SetFailed(runResult.LastStage, services.FailureKind(runErr), runErr.Error())
		if updateErr := opts.Store.Update(runCtx, job); updateErr != nil {
			logger.Error("failed to persist scan abort", logging.Error(updateErr))
		}
		return nil, runErr
	}

	if state.Result != nil {
		if data, err := json.Marshal(state.Result); err != nil {
			logger.Warn("failed to encode result reference", logging.Error(err))
		} else {
			job.ResultJSON = string(data)
		}
	}

	if state.Failed() {
		job.SetFailed(state.Error.Stage, state.Error.Kind, state.Error.Message)
		if err := opts.Store.Update(runCtx, job); err != nil {
			return nil, err
		}
		logger.Error("scan failed",
			logging.String(logging.FieldStage, state.Error.Stage),
			logging.String("error_kind", state.Error.Kind),
			logging.String(logging.FieldEventType, "job_failure"),
			logging.Duration("job_duration", time.Since(start)),
		)
		notifyTerminal(runCtx, logger, opts.Notifier, job, false)
		return &Result{Job: job, State: state}, nil
	}

	message := "review complete"
	if state.Result != nil && state.Result.Summary != "" {
		message = state.Result.Summary
	}
	job.SetCompleted(message)
	if err := opts.Store.Update(runCtx, job); err != nil {
		return nil, err
	}
	logger.Info("scan completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Duration("job_duration", time.Since(start)),
		logging.Int("stages_run", runResult.StagesRun),
	)
	notifyTerminal(runCtx, logger, opts.Notifier, job, true)
	return &Result{Job: job, State: state}, nil
}

func report(progress func(string, string, float64), job *queue.Job) {
	if progress == nil {
		return
	}
	progress(job.CurrentStage, job.ProgressMessage, job.ProgressPercent)
}

func notifyTerminal(ctx context.Context, logger *slog.Logger, notifier notify.Service, job *queue.Job, completed bool) {
	if notifier == nil {
		return
	}
	fn := notifier.JobFailed
	if completed {
		fn = notifier.JobCompleted
	}
	if err := fn(ctx, job.Clone()); err != nil {
		logger.Debug("scan notification failed", logging.Error(err))
	}
}
