package impact

import (
	"context"
	"math"
	"sort"

	"log/slog"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// Risk level cut points on the 0-100 score.
const (
	riskHigh   = 75.0
	riskMedium = 40.0
	riskLow    = 10.0
)

// Analyzer maps pull request hunks onto parsed symbols and grades risk.
type Analyzer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewAnalyzer constructs the impact analysis stage handler.
func NewAnalyzer(cfg *config.Config, logger *slog.Logger) *Analyzer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "impact_analysis"))
	}
	return &Analyzer{cfg: cfg, logger: stageLogger}
}

func (a *Analyzer) Name() string { return stage.ImpactAnalysis }

func (a *Analyzer) Execute(ctx context.Context, state *scan.State) error {
	logger := logging.WithContext(ctx, a.logger)

	if state.Parsed == nil {
		return services.Wrap(services.ErrValidation, stage.ImpactAnalysis, "validate inputs", "no parse summary; run parse before impact analysis", nil)
	}

	symbolsByPath := make(map[string][]scan.Symbol, len(state.Parsed.Files))
	for _, file := range state.Parsed.Files {
		symbolsByPath[file.Path] = file.Symbols
	}

	summary := &scan.ImpactSummary{}
	seen := make(map[string]bool)
	for _, changed := range state.Diff {
		summary.ChangedFiles++
		summary.ChangedLines += changed.Additions + changed.Deletions
		for _, symbol := range symbolsByPath[changed.Path] {
			if !overlapsAny(symbol, changed.Hunks) {
				continue
			}
			key := changed.Path + "\x00" + symbol.Name + "\x00" + symbol.Kind
			if seen[key] {
				continue
			}
			seen[key] = true
			summary.ImpactedSymbols = append(summary.ImpactedSymbols, scan.ImpactedSymbol{Path: changed.Path, Symbol: symbol})
		}
	}
	sort.Slice(summary.ImpactedSymbols, func(i, j int) bool {
		a, b := summary.ImpactedSymbols[i], summary.ImpactedSymbols[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Symbol.StartLine < b.Symbol.StartLine
	})

	summary.RiskScore = riskScore(summary, findingsOnChangedPaths(state))
	summary.RiskLevel = riskLevel(summary.RiskScore)
	state.Impact = summary

	logger.Info(
		"impact analysis complete",
		logging.Int("changed_files", summary.ChangedFiles),
		logging.Int("changed_lines", summary.ChangedLines),
		logging.Int("impacted_symbols", len(summary.ImpactedSymbols)),
		logging.Float64("risk_score", summary.RiskScore),
		logging.String("risk_level", summary.RiskLevel),
	)
	return nil
}

func (a *Analyzer) HealthCheck(ctx context.Context) stage.Health {
	if a.cfg == nil {
		return stage.Unhealthy(stage.ImpactAnalysis, "configuration unavailable")
	}
	return stage.Healthy(stage.ImpactAnalysis)
}

// overlapsAny reports whether any hunk intersects the symbol's line extent.
func overlapsAny(symbol scan.Symbol, hunks []scan.Hunk) bool {
	for _, hunk := range hunks {
		hunkEnd := hunk.StartLine + hunk.LineCount - 1
		if hunk.StartLine <= symbol.EndLine && hunkEnd >= symbol.StartLine {
			return true
		}
	}
	return false
}

func findingsOnChangedPaths(state *scan.State) []scan.Finding {
	changed := make(map[string]bool, len(state.Diff))
	for _, file := range state.Diff {
		changed[file.Path] = true
	}
	var findings []scan.Finding
	for _, finding := range state.Findings {
		if changed[finding.Path] {
			findings = append(findings, finding)
		}
	}
	return findings
}

// riskScore combines change size, symbol spread, and finding density into a
// 0-100 score. Weights are heuristic; the level cut points are what the
// report surfaces.
func riskScore(summary *scan.ImpactSummary, findings []scan.Finding) float64 {
	score := float64(summary.ChangedLines)*0.2 +
		float64(summary.ChangedFiles)*2 +
		float64(len(summary.ImpactedSymbols))*3
	for _, finding := range findings {
		switch finding.Severity {
		case scan.SeverityCritical:
			score += 15
		case scan.SeverityError:
			score += 8
		case scan.SeverityWarning:
			score += 3
		default:
			score += 1
		}
	}
	return math.Round(math.Min(score, 100)*10) / 10
}

func riskLevel(score float64) string {
	switch {
	case score >= riskHigh:
		return "high"
	case score >= riskMedium:
		return "medium"
	case score >= riskLow:
		return "low"
	default:
		return "minimal"
	}
}
