package workflow

import (
	"fmt"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// Tracker maps completed stages to cumulative progress percentages. Each
// scan type has its own schedule because the fork stage differs; both end at
// the reporting stage just short of 100, which is reserved for the completed
// status itself.
type Tracker struct {
	schedule map[scan.Type]map[string]int
}

// NewTracker returns the default progress schedule.
func NewTracker() *Tracker {
	prWeights := map[string]int{
		stage.Fetch:          10,
		stage.Parse:          25,
		stage.StaticAnalysis: 45,
		stage.ImpactAnalysis: 65,
		stage.LLMAnalysis:    90,
		stage.Reporting:      99,
	}
	projectWeights := map[string]int{
		stage.Fetch:          10,
		stage.Parse:          25,
		stage.StaticAnalysis: 45,
		stage.ProjectScan:    65,
		stage.LLMAnalysis:    90,
		stage.Reporting:      99,
	}
	return &Tracker{schedule: map[scan.Type]map[string]int{
		scan.TypePR:      prWeights,
		scan.TypeProject: projectWeights,
	}}
}

// PercentAfter returns the cumulative progress once the named stage has
// completed. The second return is false for stages outside the schedule
// (the error sink, unknown names); callers keep the current value then.
func (t *Tracker) PercentAfter(scanType scan.Type, stageName string) (int, bool) {
	if t == nil {
		return 0, false
	}
	weights, ok := t.schedule[scanType]
	if !ok {
		return 0, false
	}
	percent, ok := weights[stageName]
	return percent, ok
}

// Validate checks every schedule against the table it will report on: each
// stage on a scan type's success path needs an entry, percentages must
// strictly increase along the path, and the last stage must stay below 100
// because 100 belongs to the completed status. Entries for stages the path
// never reaches are rejected too; a renamed stage would otherwise keep a
// stale percentage here.
func (t *Tracker) Validate(table *Table) error {
	if table == nil {
		return fmt.Errorf("transition table is required")
	}
	for scanType, weights := range t.schedule {
		path, err := successPath(table, scanType)
		if err != nil {
			return err
		}
		last := 0
		onPath := make(map[string]struct{}, len(path))
		for _, name := range path {
			onPath[name] = struct{}{}
			percent, ok := weights[name]
			if !ok {
				return fmt.Errorf("scan type %s: stage %q has no progress entry", scanType, name)
			}
			if percent <= last {
				return fmt.Errorf("scan type %s: stage %q progress %d does not advance past %d", scanType, name, percent, last)
			}
			last = percent
		}
		if last >= 100 {
			return fmt.Errorf("scan type %s: schedule ends at %d; 100 is reserved for completed jobs", scanType, last)
		}
		for name := range weights {
			if _, ok := onPath[name]; !ok {
				return fmt.Errorf("scan type %s: progress entry for %q, which the table never reaches", scanType, name)
			}
		}
	}
	return nil
}

// successPath walks the table along the failure-free route for one scan
// type, start to end marker. The walk is bounded so a cyclic table errors
// instead of spinning.
func successPath(table *Table, scanType scan.Type) ([]string, error) {
	state := &scan.State{ScanType: scanType}
	limit := len(table.Stages()) + 1
	var path []string
	for from := table.Start(); from != stage.End; {
		path = append(path, from)
		if len(path) > limit {
			return nil, fmt.Errorf("scan type %s: transition table never reaches the end marker", scanType)
		}
		next, err := table.Next(from, state)
		if err != nil {
			return nil, fmt.Errorf("scan type %s: %w", scanType, err)
		}
		from = next
	}
	return path, nil
}
