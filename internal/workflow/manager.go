package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/notify"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// staleMultiplier sets how many missed heartbeat intervals mark a running
// job as stale in diagnostics.
const staleMultiplier = 4

// Manager coordinates the worker pool that drains the job queue. Workers
// claim pending jobs, run the engine, and persist progress between stages.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	logger    *slog.Logger
	notifier  notify.Service
	tracker   *Tracker
	heartbeat *HeartbeatMonitor

	pollInterval       time.Duration
	errorRetryInterval time.Duration
	cleanupInterval    time.Duration
	retention          time.Duration

	engine *Engine

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
	active  map[string]*queue.Job   // scan id -> job owned by a worker
	cancels map[string]*atomic.Bool // job id -> cooperative cancel token
	started time.Time
}

// NewManager constructs a workflow manager with the default notifier.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notify.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom
// notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notify.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	heartbeatInterval := time.Duration(cfg.Workflow.HeartbeatInterval) * time.Second
	return &Manager{
		cfg:                cfg,
		store:              store,
		logger:             logger.With(logging.String(logging.FieldComponent, "workflow-manager")),
		notifier:           notifier,
		tracker:            NewTracker(),
		heartbeat:          NewHeartbeatMonitor(store, logger, heartbeatInterval, staleMultiplier*heartbeatInterval),
		pollInterval:       time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		cleanupInterval:    time.Duration(cfg.Workflow.CleanupInterval) * time.Second,
		retention:          time.Duration(cfg.Workflow.RetentionHours) * time.Hour,
		active:             make(map[string]*queue.Job),
		cancels:            make(map[string]*atomic.Bool),
	}
}

// ConfigureStages builds the engine over the default transition table with
// the given handlers. Must be called before Start; the table is validated
// here so a miswired pipeline fails at startup, not mid-run.
func (m *Manager) ConfigureStages(handlers ...stage.Handler) error {
	return m.ConfigureTable(DefaultTable(), handlers...)
}

// ConfigureTable builds the engine over a custom transition table.
func (m *Manager) ConfigureTable(table *Table, handlers ...stage.Handler) error {
	engine, err := NewEngine(
		table,
		m.logger,
		handlers,
		WithStageTimeout(time.Duration(m.cfg.Workflow.StageTimeout)*time.Second),
		WithCancelCheck(m.cancelRequested),
		WithStageStart(m.onStageStart),
		WithStageDone(m.onStageDone),
	)
	if err != nil {
		return err
	}
	if err := m.tracker.Validate(table); err != nil {
		return fmt.Errorf("validate progress schedule: %w", err)
	}
	m.mu.Lock()
	m.engine = engine
	m.mu.Unlock()
	return nil
}

// Start fails over jobs orphaned by an earlier process, then begins
// background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.RLock()
	engine := m.engine
	running := m.running
	m.mu.RUnlock()
	if running {
		return errors.New("workflow already running")
	}
	if engine == nil {
		return errors.New("workflow stages not configured")
	}

	recovered, err := m.store.ResetStuckRunning(ctx)
	if err != nil {
		return fmt.Errorf("recover interrupted jobs: %w", err)
	}
	if recovered > 0 {
		m.logger.Info("failed jobs interrupted by an earlier shutdown",
			logging.Int64("count", recovered),
			logging.String(logging.FieldEventType, "startup_recovery"),
		)
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.started = time.Now().UTC()
	workers := m.cfg.Workflow.WorkerCount
	m.wg.Add(workers + 1)
	m.mu.Unlock()

	for i := 0; i < workers; i++ {
		go m.runWorker(runCtx, i+1)
	}
	go m.runMaintenance(runCtx)

	m.logger.Info("workflow started",
		logging.Int("workers", workers),
		logging.String(logging.FieldEventType, "workflow_start"),
	)
	return nil
}

// Stop terminates background processing and waits for workers to finish
// their in-flight stage.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stop"))
}

// Cancel requests cancellation of a job. Pending jobs cancel immediately;
// running jobs owned by this process also get their in-memory token flipped
// so the worker stops at the next stage boundary without a database read.
func (m *Manager) Cancel(ctx context.Context, jobID string) (queue.CancelOutcome, error) {
	outcome, err := m.store.RequestCancel(ctx, jobID)
	if err != nil {
		return outcome, err
	}
	if outcome == queue.CancelRequested {
		m.mu.RLock()
		token := m.cancels[jobID]
		m.mu.RUnlock()
		if token != nil {
			token.Store(true)
		}
	}
	return outcome, nil
}

func (m *Manager) registerRun(job *queue.Job) *atomic.Bool {
	token := &atomic.Bool{}
	m.mu.Lock()
	m.active[job.ScanID] = job
	m.cancels[job.JobID] = token
	m.mu.Unlock()
	return token
}

func (m *Manager) unregisterRun(job *queue.Job) {
	m.mu.Lock()
	delete(m.active, job.ScanID)
	delete(m.cancels, job.JobID)
	m.mu.Unlock()
}

// activeJob returns the job a worker is currently driving for the scan.
// Only the owning worker mutates the job, so handing the pointer back to
// that worker's hooks is safe.
func (m *Manager) activeJob(scanID string) *queue.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[scanID]
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	m.lastJob = job.Clone()
	m.mu.Unlock()
}
