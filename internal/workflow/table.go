package workflow

import (
	"fmt"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// Predicate inspects run state to choose between alternative transitions.
type Predicate func(*scan.State) bool

// Rule is one edge of the stage graph: when a run finishes From and the
// predicate holds, it moves to To. A nil predicate always matches, so rules
// for the same stage are tried in declaration order with the unconditional
// rule last.
type Rule struct {
	From string
	When Predicate
	To   string
}

// Table is the declarative transition table the engine routes by. It is
// immutable after construction; Validate proves every stage can always
// resolve a next hop before any job runs.
type Table struct {
	start string
	rules []Rule
}

// NewTable builds a table starting at the given stage.
func NewTable(start string, rules []Rule) *Table {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Table{start: start, rules: cp}
}

// ScanTypeIs builds a predicate matching runs of the given scan type.
func ScanTypeIs(scanType scan.Type) Predicate {
	return func(state *scan.State) bool {
		return state != nil && state.ScanType == scanType
	}
}

// DefaultTable returns the review pipeline graph.
func DefaultTable() *Table {
	return NewTable(stage.Fetch, []Rule{
		{From: stage.Fetch, To: stage.Parse},
		{From: stage.Parse, To: stage.StaticAnalysis},
		{From: stage.StaticAnalysis, When: ScanTypeIs(scan.TypePR), To: stage.ImpactAnalysis},
		{From: stage.StaticAnalysis, To: stage.ProjectScan},
		{From: stage.ImpactAnalysis, To: stage.LLMAnalysis},
		{From: stage.ProjectScan, To: stage.LLMAnalysis},
		{From: stage.LLMAnalysis, To: stage.Reporting},
		{From: stage.Reporting, To: stage.End},
		{From: stage.ErrorHandling, To: stage.End},
	})
}

// Start returns the stage new runs enter first.
func (t *Table) Start() string {
	return t.start
}

// Next resolves the stage following from. A recorded stage failure overrides
// the declared rules and routes to error_handling, except from
// error_handling itself, which always proceeds to its declared target so a
// failing sink cannot loop.
func (t *Table) Next(from string, state *scan.State) (string, error) {
	if state != nil && state.Failed() && from != stage.ErrorHandling {
		return stage.ErrorHandling, nil
	}
	for _, rule := range t.rules {
		if rule.From != from {
			continue
		}
		if rule.When == nil || rule.When(state) {
			return rule.To, nil
		}
	}
	return "", fmt.Errorf("no transition from stage %q", from)
}

// Stages returns every stage the table references, start first, without the
// end marker. Order is deterministic: start, then rule order.
func (t *Table) Stages() []string {
	seen := map[string]struct{}{t.start: {}}
	stages := []string{t.start}
	add := func(name string) {
		if name == "" || name == stage.End {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		stages = append(stages, name)
	}
	for _, rule := range t.rules {
		add(rule.From)
		add(rule.To)
	}
	// The error sink is reachable from everywhere even when no rule names it.
	add(stage.ErrorHandling)
	return stages
}

// Validate proves the table is total over the registered handlers: every
// stage has a handler, every stage ends in an unconditional rule so Next
// always resolves, no rule shadows a later one, and the error sink exits to
// the end marker.
func (t *Table) Validate(handlers map[string]stage.Handler) error {
	if t.start == "" {
		return fmt.Errorf("transition table has no start stage")
	}
	if t.start == stage.End {
		return fmt.Errorf("start stage must not be the end marker")
	}

	unconditional := make(map[string]bool)
	for _, rule := range t.rules {
		if rule.From == "" || rule.To == "" {
			return fmt.Errorf("transition rule has empty stage: %+v", rule)
		}
		if rule.From == stage.End {
			return fmt.Errorf("end marker cannot have outgoing transitions")
		}
		if unconditional[rule.From] {
			return fmt.Errorf("stage %q has transitions after its unconditional rule", rule.From)
		}
		if rule.When == nil {
			unconditional[rule.From] = true
		}
	}

	for _, name := range t.Stages() {
		if _, ok := handlers[name]; !ok {
			return fmt.Errorf("stage %q has no registered handler", name)
		}
		if !unconditional[name] {
			return fmt.Errorf("stage %q has no unconditional transition; runs could strand there", name)
		}
	}

	errorNext, err := t.Next(stage.ErrorHandling, &scan.State{})
	if err != nil {
		return err
	}
	if errorNext != stage.End {
		return fmt.Errorf("error_handling must transition to the end marker, not %q", errorNext)
	}
	return nil
}
