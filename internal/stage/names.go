package stage

// Canonical stage names. The workflow transition table, job records, and
// handler registrations all share these strings.
const (
	Fetch          = "fetch"
	Parse          = "parse"
	StaticAnalysis = "static_analysis"
	ImpactAnalysis = "impact_analysis"
	ProjectScan    = "project_scan"
	LLMAnalysis    = "llm_analysis"
	Reporting      = "reporting"
	ErrorHandling  = "error_handling"

	// End is a terminal marker, not a stage: no handler runs for it.
	End = "end"
)
