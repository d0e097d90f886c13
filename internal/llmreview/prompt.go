package llmreview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

const (
	maxPromptFiles    = 40
	maxPromptFindings = 40
	maxPromptSymbols  = 20
	maxPromptHotspots = 5
)

const reviewSystemPrompt = `You are a senior code reviewer. Reply with a single JSON object shaped as
{"summary": string, "comments": [{"path": string, "line": number, "severity": "info"|"warning"|"error"|"critical", "comment": string}]}.
Ground every comment in the evidence provided. Keep the summary under 120 words. Return JSON only.`

// buildUserPrompt condenses the scan state into the evidence block the model
// reviews. Lists are capped so prompts stay bounded on large changes.
func buildUserPrompt(state *scan.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Scan type: %s\nRepository: %s\n", state.ScanType, state.Repository)
	if state.ScanType == scan.TypePR {
		fmt.Fprintf(&b, "Pull request: #%d\n", state.PRID)
		if state.Branch != "" {
			fmt.Fprintf(&b, "Branch: %s (base %s)\n", state.Branch, state.BaseBranch)
		}
	}
	if state.HeadCommit != "" {
		fmt.Fprintf(&b, "Head commit: %s\n", state.HeadCommit)
	}

	if len(state.Diff) > 0 {
		fmt.Fprintf(&b, "\nChanged files (%d):\n", len(state.Diff))
		for i, file := range state.Diff {
			if i == maxPromptFiles {
				fmt.Fprintf(&b, "... and %d more\n", len(state.Diff)-maxPromptFiles)
				break
			}
			fmt.Fprintf(&b, "- %s (%s, +%d/-%d)\n", file.Path, file.ChangeKind, file.Additions, file.Deletions)
		}
	}

	if state.Parsed != nil {
		fmt.Fprintf(&b, "\nParsed: %d files, %d lines, languages: %s\n",
			len(state.Parsed.Files), state.Parsed.TotalLines, languageList(state.Parsed.Languages))
	}

	if len(state.Findings) > 0 {
		fmt.Fprintf(&b, "\nStatic findings (%d):\n", len(state.Findings))
		for i, finding := range state.Findings {
			if i == maxPromptFindings {
				fmt.Fprintf(&b, "... and %d more\n", len(state.Findings)-maxPromptFindings)
				break
			}
			fmt.Fprintf(&b, "- %s:%d [%s] %s: %s\n", finding.Path, finding.Line, finding.Severity, finding.Rule, finding.Message)
		}
	}

	if state.Impact != nil {
		fmt.Fprintf(&b, "\nImpact: %d files, %d lines changed, risk %s (%.1f)\n",
			state.Impact.ChangedFiles, state.Impact.ChangedLines, state.Impact.RiskLevel, state.Impact.RiskScore)
		for i, impacted := range state.Impact.ImpactedSymbols {
			if i == maxPromptSymbols {
				fmt.Fprintf(&b, "... and %d more symbols\n", len(state.Impact.ImpactedSymbols)-maxPromptSymbols)
				break
			}
			fmt.Fprintf(&b, "- touches %s %s (%s:%d)\n", impacted.Symbol.Kind, impacted.Symbol.Name, impacted.Path, impacted.Symbol.StartLine)
		}
	}

	if state.Project != nil {
		fmt.Fprintf(&b, "\nProject: %d files, %d lines, languages: %s\n",
			state.Project.FileCount, state.Project.TotalLines, languageList(state.Project.Languages))
		for i, spot := range state.Project.Hotspots {
			if i == maxPromptHotspots {
				break
			}
			fmt.Fprintf(&b, "- hotspot %s: %s\n", spot.Path, spot.Reason)
		}
	}

	b.WriteString("\nWrite the review JSON now.")
	return b.String()
}

func languageList(languages map[string]int) string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%d)", name, languages[name]))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
