package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aidino/aicode-reviewer-sub001/internal/services"
)

// StageError records which stage failed and why. Once set on a State the
// router sends the run to the error handling stage.
type StageError struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewStageError normalizes a stage failure into its persisted form.
func NewStageError(stage string, err error) *StageError {
	if err == nil {
		return nil
	}
	return &StageError{
		Stage:   stage,
		Kind:    services.FailureKind(err),
		Message: err.Error(),
	}
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("stage %s failed (%s): %s", e.Stage, e.Kind, e.Message)
}

// DiffFile is one changed file of a pull request diff.
type DiffFile struct {
	Path       string `json:"path"`
	ChangeKind string `json:"changeKind"`
	Additions  int    `json:"additions"`
	Deletions  int    `json:"deletions"`
	Hunks      []Hunk `json:"hunks,omitempty"`
}

// Hunk is a contiguous changed region within a file.
type Hunk struct {
	StartLine int `json:"startLine"`
	LineCount int `json:"lineCount"`
}

// Symbol is a function or type extracted from a source file.
type Symbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// SourceFile summarizes one parsed file.
type SourceFile struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	LineCount int      `json:"lineCount"`
	Symbols   []Symbol `json:"symbols,omitempty"`
}

// ParseSummary is the parse stage output.
type ParseSummary struct {
	Files      []SourceFile   `json:"files"`
	Languages  map[string]int `json:"languages"`
	TotalLines int            `json:"totalLines"`
}

// State is the mutable context threaded through the stages of one scan.
// It is owned exclusively by the single engine run processing it; stages
// mutate it in sequence and nothing else may observe it mid-run.
type State struct {
	ScanID     string
	ScanType   Type
	Repository string
	PRID       int64
	Branch     string
	BaseBranch string
	CreatedAt  time.Time

	// Populated progressively by stages.
	WorkspacePath string
	HeadCommit    string
	Diff          []DiffFile
	Parsed        *ParseSummary
	Findings      []Finding
	Impact        *ImpactSummary
	Project       *ProjectSummary
	Review        *ReviewResult
	Report        *Report
	Result        *ResultRef

	// Error routes the run into the error handling stage once set.
	Error *StageError

	// Visited records completed stage names in execution order.
	Visited []string
}

// NewState builds the initial state for a validated request.
func NewState(req Request) *State {
	return &State{
		ScanID:     uuid.NewString(),
		ScanType:   req.ScanType,
		Repository: strings.TrimSpace(req.Repository),
		PRID:       req.PRID,
		Branch:     strings.TrimSpace(req.Branch),
		CreatedAt:  time.Now().UTC(),
	}
}

// SetError records the first stage failure; later failures do not overwrite it.
func (s *State) SetError(stage string, err error) {
	if s.Error != nil || err == nil {
		return
	}
	s.Error = NewStageError(stage, err)
}

// Failed reports whether a stage failure has been recorded.
func (s *State) Failed() bool {
	return s.Error != nil
}

// MarkVisited appends a completed stage to the run history.
func (s *State) MarkVisited(stage string) {
	s.Visited = append(s.Visited, stage)
}

// HasVisited reports whether the run already completed the named stage.
func (s *State) HasVisited(stage string) bool {
	for _, visited := range s.Visited {
		if visited == stage {
			return true
		}
	}
	return false
}
