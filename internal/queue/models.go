package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

// Status represents the lifecycle of a scan job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// InterruptedMessage is the error message set when running jobs are failed
// because the daemon stopped mid-execution.
const InterruptedMessage = "daemon stopped while job was running"

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from s to next. Writing the
// same status back is always allowed so progress updates need no special
// casing.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusCancelled
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	default:
		return false
	}
}

// ValidateTransition returns an error when moving from s to next would
// regress the lifecycle.
func (s Status) ValidateTransition(next Status) error {
	if s.CanTransition(next) {
		return nil
	}
	return fmt.Errorf("invalid status transition %s -> %s", s, next)
}

// CancelOutcome describes what a cancel request achieved.
type CancelOutcome string

const (
	// CancelNotFound means no job matched the identifier.
	CancelNotFound CancelOutcome = "not_found"
	// CancelTerminal means the job had already finished; nothing changed.
	CancelTerminal CancelOutcome = "terminal"
	// CancelImmediate means a pending job moved straight to cancelled.
	CancelImmediate CancelOutcome = "cancelled"
	// CancelRequested means a running job was flagged; the worker stops at
	// the next stage boundary.
	CancelRequested CancelOutcome = "cancelling"
)

// Job represents a scan job persisted in SQLite.
type Job struct {
	ID              int64
	JobID           string
	ScanID          string
	ScanType        scan.Type
	Repository      string
	PRID            int64
	Branch          string
	Status          Status
	CurrentStage    string
	ProgressPercent float64
	ProgressMessage string
	CancelRequested bool
	ResultJSON      string
	ErrorStage      string
	ErrorKind       string
	ErrorMessage    string
	LastHeartbeat   *time.Time
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing live references.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.LastHeartbeat != nil {
		hb := *j.LastHeartbeat
		cp.LastHeartbeat = &hb
	}
	if j.StartedAt != nil {
		at := *j.StartedAt
		cp.StartedAt = &at
	}
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

// SetProgress updates the stage and progress fields together.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.CurrentStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetFailed marks the job failed with the given stage failure detail.
// Progress keeps its last value so observers see how far the run got.
func (j *Job) SetFailed(stage, kind, message string) {
	now := time.Now().UTC()
	j.Status = StatusFailed
	j.ErrorStage = stage
	j.ErrorKind = kind
	j.ErrorMessage = message
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.CompletedAt = &now
}

// SetCompleted marks the job completed and pins progress to 100 percent.
func (j *Job) SetCompleted(message string) {
	now := time.Now().UTC()
	j.Status = StatusCompleted
	j.ProgressPercent = 100
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.CompletedAt = &now
}

// SetCancelled marks the job cancelled after a stop at a stage boundary.
func (j *Job) SetCancelled(message string) {
	now := time.Now().UTC()
	j.Status = StatusCancelled
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.CompletedAt = &now
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Cancelled int
}
