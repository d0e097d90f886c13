package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

const resultSummaryLimit = 200

// Reporter renders the final report artifacts for a completed scan.
type Reporter struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewReporter constructs the reporting stage handler.
func NewReporter(cfg *config.Config, logger *slog.Logger) *Reporter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "reporting"))
	}
	return &Reporter{cfg: cfg, logger: stageLogger}
}

func (r *Reporter) Name() string { return stage.Reporting }

func (r *Reporter) Execute(ctx context.Context, state *scan.State) error {
	logger := logging.WithContext(ctx, r.logger)

	report := BuildReport(state, false)
	jsonPath, markdownPath, err := WriteReportFiles(r.cfg, report)
	if err != nil {
		return services.Wrap(services.ErrInternal, stage.Reporting, "write report", "report files could not be written", err)
	}

	state.Report = report
	state.Result = ResultFor(report, jsonPath, markdownPath)

	logger.Info(
		"report written",
		logging.String("json_path", jsonPath),
		logging.String("markdown_path", markdownPath),
		logging.Int("findings", len(report.Findings)),
		logging.Int("comments", len(report.Comments)),
	)
	return nil
}

func (r *Reporter) HealthCheck(ctx context.Context) stage.Health {
	if r.cfg == nil {
		return stage.Unhealthy(stage.Reporting, "configuration unavailable")
	}
	if strings.TrimSpace(r.cfg.Paths.ReportsDir) == "" {
		return stage.Unhealthy(stage.Reporting, "reports directory not configured")
	}
	return stage.Healthy(stage.Reporting)
}

// BuildReport assembles a report from whatever the run produced so far. The
// partial flag marks reports built for failed runs by the error handling
// stage.
func BuildReport(state *scan.State, partial bool) *scan.Report {
	report := &scan.Report{
		ScanID:      state.ScanID,
		ScanType:    state.ScanType,
		Repository:  state.Repository,
		PRID:        state.PRID,
		Branch:      state.Branch,
		GeneratedAt: time.Now().UTC(),
		Partial:     partial,
		Findings:    state.Findings,
		Impact:      state.Impact,
		Project:     state.Project,
		Error:       state.Error,
	}
	if state.Review != nil {
		report.Summary = strings.TrimSpace(state.Review.Summary)
		report.Comments = state.Review.Comments
	}
	if report.Summary == "" {
		report.Summary = defaultSummary(state, partial)
	}
	return report
}

// WriteReportFiles renders the report as <scanID>.json and <scanID>.md under
// the reports directory, creating it as needed.
func WriteReportFiles(cfg *config.Config, report *scan.Report) (string, string, error) {
	dir := strings.TrimSpace(cfg.Paths.ReportsDir)
	if dir == "" {
		return "", "", fmt.Errorf("reports directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create reports directory: %w", err)
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode report: %w", err)
	}
	jsonPath := filepath.Join(dir, report.ScanID+".json")
	if err := os.WriteFile(jsonPath, append(payload, '\n'), 0o644); err != nil {
		return "", "", fmt.Errorf("write json report: %w", err)
	}

	markdownPath := filepath.Join(dir, report.ScanID+".md")
	if err := os.WriteFile(markdownPath, []byte(renderMarkdown(report)), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown report: %w", err)
	}
	return jsonPath, markdownPath, nil
}

// ResultFor builds the compact result reference persisted on the job row.
func ResultFor(report *scan.Report, jsonPath, markdownPath string) *scan.ResultRef {
	return &scan.ResultRef{
		ReportJSONPath:     jsonPath,
		ReportMarkdownPath: markdownPath,
		Summary:            resultSummary(report),
		FindingCount:       len(report.Findings),
		CommentCount:       len(report.Comments),
		Partial:            report.Partial,
	}
}

// resultSummary keeps the first line of the report summary, truncated so job
// rows stay small.
func resultSummary(report *scan.Report) string {
	summary := report.Summary
	if idx := strings.IndexByte(summary, '\n'); idx >= 0 {
		summary = summary[:idx]
	}
	summary = strings.TrimSpace(summary)
	runes := []rune(summary)
	if len(runes) > resultSummaryLimit {
		summary = string(runes[:resultSummaryLimit-3]) + "..."
	}
	return summary
}

func defaultSummary(state *scan.State, partial bool) string {
	if partial && state.Error != nil {
		return fmt.Sprintf(
			"Scan failed during %s (%s); partial results from %d completed stages.",
			state.Error.Stage, state.Error.Kind, len(state.Visited),
		)
	}
	files := 0
	if state.Parsed != nil {
		files = len(state.Parsed.Files)
	}
	return fmt.Sprintf("Scan completed: %d findings across %d files.", len(state.Findings), files)
}
