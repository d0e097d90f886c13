package staticanalysis

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"log/slog"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// Analyzer runs the static rule set over the parsed file inventory.
type Analyzer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewAnalyzer constructs the static analysis stage handler.
func NewAnalyzer(cfg *config.Config, logger *slog.Logger) *Analyzer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "static_analysis"))
	}
	return &Analyzer{cfg: cfg, logger: stageLogger}
}

func (a *Analyzer) Name() string { return stage.StaticAnalysis }

func (a *Analyzer) Execute(ctx context.Context, state *scan.State) error {
	logger := logging.WithContext(ctx, a.logger)

	if state.Parsed == nil {
		return services.Wrap(services.ErrValidation, stage.StaticAnalysis, "validate inputs", "no parse summary; run parse before static analysis", nil)
	}
	workspace := strings.TrimSpace(state.WorkspacePath)
	if workspace == "" {
		return services.Wrap(services.ErrValidation, stage.StaticAnalysis, "validate inputs", "no workspace prepared", nil)
	}

	var findings []scan.Finding
	for _, file := range state.Parsed.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		findings = append(findings, a.analyzeFile(workspace, file)...)
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Rule < findings[j].Rule
	})
	state.Findings = findings

	counts := make(map[scan.Severity]int)
	for _, finding := range findings {
		counts[finding.Severity]++
	}
	logger.Info(
		"static analysis complete",
		logging.Int("files", len(state.Parsed.Files)),
		logging.Int("findings", len(findings)),
		logging.Int("critical", counts[scan.SeverityCritical]),
		logging.Int("warnings", counts[scan.SeverityWarning]),
	)
	return nil
}

// analyzeFile combines outline-derived findings with line rule matches. A
// file that vanished since parsing keeps its structural findings only.
func (a *Analyzer) analyzeFile(workspace string, file scan.SourceFile) []scan.Finding {
	findings := structuralFindings(file)

	rules := rulesFor(file.Language)
	if len(rules) == 0 {
		return findings
	}
	data, err := os.ReadFile(filepath.Join(workspace, filepath.FromSlash(file.Path)))
	if err != nil {
		return findings
	}
	for i, line := range strings.Split(string(data), "\n") {
		for _, rule := range rules {
			if !rule.pattern.MatchString(line) {
				continue
			}
			findings = append(findings, scan.Finding{
				Rule:     rule.name,
				Severity: rule.severity,
				Path:     file.Path,
				Line:     i + 1,
				Message:  rule.message,
			})
		}
	}
	return findings
}

func (a *Analyzer) HealthCheck(ctx context.Context) stage.Health {
	if a.cfg == nil {
		return stage.Unhealthy(stage.StaticAnalysis, "configuration unavailable")
	}
	return stage.Healthy(stage.StaticAnalysis)
}
