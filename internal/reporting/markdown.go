package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

// renderMarkdown produces the human-readable report companion to the JSON
// artifact.
func renderMarkdown(report *scan.Report) string {
	var b strings.Builder

	b.WriteString("# Code Review Report\n\n")
	fmt.Fprintf(&b, "- Scan: `%s` (%s)\n", report.ScanID, report.ScanType)
	fmt.Fprintf(&b, "- Repository: %s\n", report.Repository)
	if report.ScanType == scan.TypePR {
		fmt.Fprintf(&b, "- Pull request: #%d", report.PRID)
		if report.Branch != "" {
			fmt.Fprintf(&b, " (branch `%s`)", report.Branch)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	if report.Partial {
		b.WriteString("- Status: **PARTIAL** (the scan did not finish)\n")
	}

	b.WriteString("\n## Summary\n\n")
	b.WriteString(report.Summary)
	b.WriteString("\n")

	if report.Error != nil {
		b.WriteString("\n## Failure\n\n")
		fmt.Fprintf(&b, "- Stage: `%s`\n- Kind: `%s`\n- Message: %s\n",
			report.Error.Stage, report.Error.Kind, report.Error.Message)
	}

	if len(report.Comments) > 0 {
		fmt.Fprintf(&b, "\n## Review Comments (%d)\n\n", len(report.Comments))
		for _, comment := range report.Comments {
			location := ""
			if comment.Path != "" {
				location = fmt.Sprintf("`%s", comment.Path)
				if comment.Line > 0 {
					location += fmt.Sprintf(":%d", comment.Line)
				}
				location += "` "
			}
			fmt.Fprintf(&b, "- %s**%s** %s\n", location, comment.Severity, comment.Comment)
		}
	}

	if len(report.Findings) > 0 {
		fmt.Fprintf(&b, "\n## Findings (%d)\n\n", len(report.Findings))
		b.WriteString(findingsTable(report.Findings))
		b.WriteString("\n")
	}

	if report.Impact != nil {
		b.WriteString("\n## Impact\n\n")
		fmt.Fprintf(&b, "- Changed: %d files, %d lines\n", report.Impact.ChangedFiles, report.Impact.ChangedLines)
		fmt.Fprintf(&b, "- Risk: **%s** (score %.1f)\n", report.Impact.RiskLevel, report.Impact.RiskScore)
		for _, impacted := range report.Impact.ImpactedSymbols {
			fmt.Fprintf(&b, "- Touches %s `%s` (`%s:%d`)\n",
				impacted.Symbol.Kind, impacted.Symbol.Name, impacted.Path, impacted.Symbol.StartLine)
		}
	}

	if report.Project != nil {
		b.WriteString("\n## Project\n\n")
		fmt.Fprintf(&b, "- Files: %d\n- Lines: %d\n", report.Project.FileCount, report.Project.TotalLines)
		fmt.Fprintf(&b, "- Languages: %s\n", languageLine(report.Project.Languages))
		if len(report.Project.Hotspots) > 0 {
			b.WriteString("\n### Hotspots\n\n")
			b.WriteString(hotspotsTable(report.Project.Hotspots))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func findingsTable(findings []scan.Finding) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Severity", "Location", "Rule", "Message"})
	for _, finding := range findings {
		tw.AppendRow(table.Row{
			string(finding.Severity),
			fmt.Sprintf("%s:%d", finding.Path, finding.Line),
			finding.Rule,
			finding.Message,
		})
	}
	return tw.RenderMarkdown()
}

func hotspotsTable(hotspots []scan.Hotspot) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"File", "Lines", "Findings", "Reason"})
	for _, spot := range hotspots {
		tw.AppendRow(table.Row{spot.Path, spot.Lines, spot.Findings, spot.Reason})
	}
	return tw.RenderMarkdown()
}

func languageLine(languages map[string]int) string {
	if len(languages) == 0 {
		return "none detected"
	}
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%d)", name, languages[name]))
	}
	return strings.Join(parts, ", ")
}
