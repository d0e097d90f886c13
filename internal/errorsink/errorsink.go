// Package errorsink implements the error handling stage every failed run is
// routed through. It turns the recorded stage failure into a partial report
// and result reference, and it never fails itself: a run that reached the
// sink always proceeds to a terminal status.
package errorsink

import (
	"context"
	"strings"

	"log/slog"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/reporting"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// Sink normalizes failures into partial reports.
type Sink struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewSink constructs the error handling stage handler.
func NewSink(cfg *config.Config, logger *slog.Logger) *Sink {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "error_handling"))
	}
	return &Sink{cfg: cfg, logger: stageLogger}
}

func (s *Sink) Name() string { return stage.ErrorHandling }

// Execute builds the partial report for a failed run. It always returns nil:
// problems inside the sink are logged and swallowed so the job still reaches
// its terminal status.
func (s *Sink) Execute(ctx context.Context, state *scan.State) error {
	logger := logging.WithContext(ctx, s.logger)

	if state.Error == nil {
		logger.Warn("error handling reached without a recorded failure")
	} else {
		logger.Info(
			"normalizing stage failure",
			logging.String("failed_stage", state.Error.Stage),
			logging.String("error_kind", state.Error.Kind),
			logging.String("error_message", state.Error.Message),
			logging.Int("completed_stages", len(state.Visited)),
		)
	}

	report := reporting.BuildReport(state, true)
	jsonPath, markdownPath, err := reporting.WriteReportFiles(s.cfg, report)
	if err != nil {
		logger.Error("partial report files could not be written", logging.Error(err))
		jsonPath, markdownPath = "", ""
	}

	state.Report = report
	state.Result = reporting.ResultFor(report, jsonPath, markdownPath)

	if jsonPath != "" {
		logger.Info(
			"partial report written",
			logging.String("json_path", jsonPath),
			logging.String("markdown_path", markdownPath),
		)
	}
	return nil
}

func (s *Sink) HealthCheck(ctx context.Context) stage.Health {
	if s.cfg == nil {
		return stage.Unhealthy(stage.ErrorHandling, "configuration unavailable")
	}
	if strings.TrimSpace(s.cfg.Paths.ReportsDir) == "" {
		return stage.Unhealthy(stage.ErrorHandling, "reports directory not configured")
	}
	return stage.Healthy(stage.ErrorHandling)
}
