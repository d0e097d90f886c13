package llmreview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

const maxHeuristicComments = 10

var severityRank = map[scan.Severity]int{
	scan.SeverityCritical: 3,
	scan.SeverityError:    2,
	scan.SeverityWarning:  1,
	scan.SeverityInfo:     0,
}

// heuristicReview builds a deterministic review from the static evidence
// alone. It stands in for the model when no API key is configured.
func heuristicReview(state *scan.State) *scan.ReviewResult {
	result := &scan.ReviewResult{Heuristic: true}

	counts := make(map[scan.Severity]int)
	for _, finding := range state.Findings {
		counts[finding.Severity]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Heuristic review (no LLM configured): %d findings", len(state.Findings))
	if state.Parsed != nil {
		fmt.Fprintf(&b, " across %d files", len(state.Parsed.Files))
	}
	if counts[scan.SeverityCritical] > 0 {
		fmt.Fprintf(&b, ", %d critical", counts[scan.SeverityCritical])
	}
	if state.Impact != nil {
		fmt.Fprintf(&b, "; change risk %s", state.Impact.RiskLevel)
	}
	b.WriteString(".")
	result.Summary = b.String()

	ranked := append([]scan.Finding(nil), state.Findings...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return severityRank[ranked[i].Severity] > severityRank[ranked[j].Severity]
	})
	for i, finding := range ranked {
		if i == maxHeuristicComments {
			break
		}
		result.Comments = append(result.Comments, scan.ReviewComment{
			Path:     finding.Path,
			Line:     finding.Line,
			Severity: finding.Severity,
			Comment:  fmt.Sprintf("[%s] %s", finding.Rule, finding.Message),
		})
	}
	return result
}
