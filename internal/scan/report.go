package scan

import "time"

// Severity grades a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Finding is one static analysis result tied to a source location.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
}

// ImpactSummary is produced on the pr path: the symbols a diff touches and a
// coarse risk grade derived from change size and finding density.
type ImpactSummary struct {
	ImpactedSymbols []ImpactedSymbol `json:"impactedSymbols"`
	ChangedFiles    int              `json:"changedFiles"`
	ChangedLines    int              `json:"changedLines"`
	RiskScore       float64          `json:"riskScore"`
	RiskLevel       string           `json:"riskLevel"`
}

// ImpactedSymbol names a symbol overlapping a diff hunk.
type ImpactedSymbol struct {
	Path   string `json:"path"`
	Symbol Symbol `json:"symbol"`
}

// ProjectSummary is produced on the project path: repository-wide aggregates.
type ProjectSummary struct {
	FileCount     int            `json:"fileCount"`
	TotalLines    int            `json:"totalLines"`
	Languages     map[string]int `json:"languages"`
	Hotspots      []Hotspot      `json:"hotspots"`
	FindingCounts map[string]int `json:"findingCounts"`
}

// Hotspot flags a file that concentrates size or findings.
type Hotspot struct {
	Path     string `json:"path"`
	Lines    int    `json:"lines"`
	Findings int    `json:"findings"`
	Reason   string `json:"reason"`
}

// ReviewComment is one LLM (or heuristic) review remark.
type ReviewComment struct {
	Path     string   `json:"path,omitempty"`
	Line     int      `json:"line,omitempty"`
	Severity Severity `json:"severity"`
	Comment  string   `json:"comment"`
}

// ReviewResult is the llm_analysis stage output.
type ReviewResult struct {
	Summary   string          `json:"summary"`
	Comments  []ReviewComment `json:"comments"`
	Model     string          `json:"model,omitempty"`
	Heuristic bool            `json:"heuristic"`
}

// Report is the assembled result of a scan. Failed runs carry a partial
// report built by the error handling stage from whatever stages completed.
type Report struct {
	ScanID      string          `json:"scanId"`
	ScanType    Type            `json:"scanType"`
	Repository  string          `json:"repository"`
	PRID        int64           `json:"prId,omitempty"`
	Branch      string          `json:"branch,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Partial     bool            `json:"partial"`
	Summary     string          `json:"summary"`
	Findings    []Finding       `json:"findings,omitempty"`
	Comments    []ReviewComment `json:"comments,omitempty"`
	Impact      *ImpactSummary  `json:"impact,omitempty"`
	Project     *ProjectSummary `json:"project,omitempty"`
	Error       *StageError     `json:"error,omitempty"`
}

// ResultRef is the compact report reference stored on a completed job.
type ResultRef struct {
	ReportJSONPath     string `json:"reportJsonPath,omitempty"`
	ReportMarkdownPath string `json:"reportMarkdownPath,omitempty"`
	Summary            string `json:"summary"`
	FindingCount       int    `json:"findingCount"`
	CommentCount       int    `json:"commentCount"`
	Partial            bool   `json:"partial,omitempty"`
}
