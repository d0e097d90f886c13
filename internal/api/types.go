package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobSnapshot describes a scan job in a transport-friendly format.
type JobSnapshot struct {
	ID              int64           `json:"id"`
	JobID           string          `json:"jobId"`
	ScanID          string          `json:"scanId"`
	ScanType        string          `json:"scanType"`
	Repository      string          `json:"repository"`
	PRID            int64           `json:"prId,omitempty"`
	Branch          string          `json:"branch,omitempty"`
	Status          string          `json:"status"`
	Progress        JobProgress     `json:"progress"`
	CancelRequested bool            `json:"cancelRequested,omitempty"`
	Error           *ErrorDetail    `json:"error,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	StartedAt       string          `json:"startedAt,omitempty"`
	CompletedAt     string          `json:"completedAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// JobProgress captures stage progress information for a scan job.
type JobProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// ErrorDetail carries the normalized failure recorded for a failed job.
type ErrorDetail struct {
	Stage   string `json:"stage,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running       bool           `json:"running"`
	Workers       int            `json:"workers"`
	UptimeSeconds float64        `json:"uptimeSeconds,omitempty"`
	ActiveJobs    []string       `json:"activeJobs,omitempty"`
	QueueStats    map[string]int `json:"queueStats"`
	LastError     string         `json:"lastError,omitempty"`
	LastJob       *JobSnapshot   `json:"lastJob,omitempty"`
	StageHealth   []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	JobDBPath    string             `json:"jobDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	LogPath      string             `json:"logPath,omitempty"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// JobStatsResponse provides a normalized job stats payload.
type JobStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// JobListResponse wraps a collection of job snapshots for API responses.
type JobListResponse struct {
	Jobs []JobSnapshot `json:"jobs"`
}

// JobResponse wraps a single job snapshot.
type JobResponse struct {
	Job JobSnapshot `json:"job"`
}

// LogTailResponse returns log lines and the byte offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
