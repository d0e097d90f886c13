package projectscan

import (
	"context"
	"fmt"
	"sort"

	"log/slog"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

const (
	maxHotspots           = 5
	hotspotLineThreshold  = 500
	hotspotFindingMinimum = 1
)

// Aggregator builds the repository-wide summary for project scans.
type Aggregator struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewAggregator constructs the project scan stage handler.
func NewAggregator(cfg *config.Config, logger *slog.Logger) *Aggregator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "project_scan"))
	}
	return &Aggregator{cfg: cfg, logger: stageLogger}
}

func (a *Aggregator) Name() string { return stage.ProjectScan }

func (a *Aggregator) Execute(ctx context.Context, state *scan.State) error {
	logger := logging.WithContext(ctx, a.logger)

	if state.Parsed == nil {
		return services.Wrap(services.ErrValidation, stage.ProjectScan, "validate inputs", "no parse summary; run parse before project scan", nil)
	}

	summary := &scan.ProjectSummary{
		FileCount:     len(state.Parsed.Files),
		TotalLines:    state.Parsed.TotalLines,
		Languages:     make(map[string]int, len(state.Parsed.Languages)),
		FindingCounts: make(map[string]int),
	}
	for language, count := range state.Parsed.Languages {
		summary.Languages[language] = count
	}

	findingsByPath := make(map[string]int)
	for _, finding := range state.Findings {
		summary.FindingCounts[string(finding.Severity)]++
		findingsByPath[finding.Path]++
	}

	summary.Hotspots = hotspots(state.Parsed.Files, findingsByPath)
	state.Project = summary

	logger.Info(
		"project scan complete",
		logging.Int("files", summary.FileCount),
		logging.Int("total_lines", summary.TotalLines),
		logging.Int("languages", len(summary.Languages)),
		logging.Int("hotspots", len(summary.Hotspots)),
	)
	return nil
}

func (a *Aggregator) HealthCheck(ctx context.Context) stage.Health {
	if a.cfg == nil {
		return stage.Unhealthy(stage.ProjectScan, "configuration unavailable")
	}
	return stage.Healthy(stage.ProjectScan)
}

// hotspots ranks files that concentrate findings or size: finding count
// first, then line count. The list is capped so reports stay scannable.
func hotspots(files []scan.SourceFile, findingsByPath map[string]int) []scan.Hotspot {
	var spots []scan.Hotspot
	for _, file := range files {
		findings := findingsByPath[file.Path]
		large := file.LineCount >= hotspotLineThreshold
		if findings < hotspotFindingMinimum && !large {
			continue
		}
		spots = append(spots, scan.Hotspot{
			Path:     file.Path,
			Lines:    file.LineCount,
			Findings: findings,
			Reason:   hotspotReason(findings, large),
		})
	}

	sort.Slice(spots, func(i, j int) bool {
		if spots[i].Findings != spots[j].Findings {
			return spots[i].Findings > spots[j].Findings
		}
		if spots[i].Lines != spots[j].Lines {
			return spots[i].Lines > spots[j].Lines
		}
		return spots[i].Path < spots[j].Path
	})
	if len(spots) > maxHotspots {
		spots = spots[:maxHotspots]
	}
	return spots
}

func hotspotReason(findings int, large bool) string {
	switch {
	case findings > 0 && large:
		return fmt.Sprintf("%d findings in a large file", findings)
	case findings > 0:
		return fmt.Sprintf("%d findings", findings)
	default:
		return "large file"
	}
}
