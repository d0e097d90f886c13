package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// CancelCheck reports whether a run should stop at the next stage boundary.
type CancelCheck func(context.Context, *scan.State) bool

// StageHook observes stage boundaries. A returned error aborts the run; the
// manager uses this to stop when progress can no longer be persisted.
type StageHook func(ctx context.Context, stageName string, state *scan.State, stageErr error) error

// Engine walks one scan through the transition table. It owns no goroutines
// and no storage; each Run call drives a single state to the end marker.
type Engine struct {
	table        *Table
	handlers     map[string]stage.Handler
	logger       *slog.Logger
	stageTimeout time.Duration
	cancelCheck  CancelCheck
	onStageStart StageHook
	onStageDone  StageHook
}

// EngineOption configures optional Engine behavior.
type EngineOption func(*Engine)

// WithStageTimeout bounds each handler execution. Zero disables the bound.
func WithStageTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) { e.stageTimeout = timeout }
}

// WithCancelCheck installs the cooperative cancellation probe evaluated
// before every stage.
func WithCancelCheck(check CancelCheck) EngineOption {
	return func(e *Engine) { e.cancelCheck = check }
}

// WithStageStart installs a hook invoked before each stage executes. The
// hook's stageErr argument is always nil.
func WithStageStart(hook StageHook) EngineOption {
	return func(e *Engine) { e.onStageStart = hook }
}

// WithStageDone installs a hook invoked after each stage executes, carrying
// the stage error when one occurred.
func WithStageDone(hook StageHook) EngineOption {
	return func(e *Engine) { e.onStageDone = hook }
}

// NewEngine validates the table against the handlers and returns a ready
// engine. Handler names key the registry; duplicates are rejected.
func NewEngine(table *Table, logger *slog.Logger, handlers []stage.Handler, opts ...EngineOption) (*Engine, error) {
	if table == nil {
		return nil, fmt.Errorf("transition table is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	registry := make(map[string]stage.Handler, len(handlers))
	for _, handler := range handlers {
		if handler == nil {
			return nil, fmt.Errorf("nil stage handler")
		}
		name := handler.Name()
		if name == "" {
			return nil, fmt.Errorf("stage handler with empty name")
		}
		if _, ok := registry[name]; ok {
			return nil, fmt.Errorf("duplicate stage handler %q", name)
		}
		registry[name] = handler
	}

	if err := table.Validate(registry); err != nil {
		return nil, fmt.Errorf("validate transition table: %w", err)
	}

	engine := &Engine{
		table:    table,
		handlers: registry,
		logger:   logger.With(logging.String(logging.FieldComponent, "workflow-engine")),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// RunResult summarizes how a run ended.
type RunResult struct {
	// Cancelled is true when the cancel check stopped the run at a stage
	// boundary. The in-flight stage before the boundary completed normally.
	Cancelled bool
	// LastStage names the final stage that executed (or, for cancelled
	// runs, the stage that would have executed next).
	LastStage string
	// StagesRun counts executed stages, the error sink included.
	StagesRun int
}

// Table returns the engine's transition table.
func (e *Engine) Table() *Table {
	return e.table
}

// Handlers returns the registered handlers keyed by stage name. The map is
// shared; callers must not mutate it.
func (e *Engine) Handlers() map[string]stage.Handler {
	return e.handlers
}

// Run drives the state from the start stage to the end marker. Stage
// failures do not abort the run: they are recorded on the state and routed
// through error_handling. The returned error reports engine-level faults
// only, such as context expiry or an aborting hook.
func (e *Engine) Run(ctx context.Context, state *scan.State) (RunResult, error) {
	result := RunResult{}
	if state == nil {
		return result, fmt.Errorf("scan state is required")
	}

	current := e.table.Start()
	for current != stage.End {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if e.cancelCheck != nil && e.cancelCheck(ctx, state) {
			result.Cancelled = true
			result.LastStage = current
			return result, nil
		}

		handler, ok := e.handlers[current]
		if !ok {
			return result, fmt.Errorf("no handler registered for stage %q", current)
		}

		if e.onStageStart != nil {
			if err := e.onStageStart(ctx, current, state, nil); err != nil {
				return result, err
			}
		}

		started := time.Now()
		execErr := e.executeStage(ctx, handler, state)
		if execErr != nil {
			if current == stage.ErrorHandling {
				// The sink is contractually infallible; a failure here is a
				// handler bug. The original failure is already recorded, so
				// log and proceed to the end marker.
				e.logger.Error("error handling stage failed",
					logging.String(logging.FieldStage, current),
					logging.String(logging.FieldScanID, state.ScanID),
					logging.Error(execErr),
				)
			}
			state.SetError(current, execErr)
		}
		state.MarkVisited(current)
		result.LastStage = current
		result.StagesRun++

		e.logger.Debug("stage executed",
			logging.String(logging.FieldStage, current),
			logging.String(logging.FieldScanID, state.ScanID),
			logging.Bool("failed", execErr != nil),
			logging.Duration("stage_duration", time.Since(started)),
		)

		if e.onStageDone != nil {
			if err := e.onStageDone(ctx, current, state, execErr); err != nil {
				return result, err
			}
		}

		next, err := e.table.Next(current, state)
		if err != nil {
			return result, err
		}
		current = next
	}
	return result, nil
}

// executeStage runs one handler under the stage timeout, converting panics
// into internal errors so a misbehaving stage cannot take the worker down.
func (e *Engine) executeStage(ctx context.Context, handler stage.Handler, state *scan.State) (err error) {
	stageCtx := ctx
	if e.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, e.stageTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrInternal, handler.Name(), "execute stage", fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	return handler.Execute(stageCtx, state)
}
