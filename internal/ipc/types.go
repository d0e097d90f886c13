package ipc

import "github.com/aidino/aicode-reviewer-sub001/internal/api"

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// JobSnapshot mirrors the HTTP API job DTO for internal IPC callers.
type JobSnapshot = api.JobSnapshot

// StageHealth describes readiness of a pipeline stage.
type StageHealth = api.StageHealth

// DependencyStatus describes availability of an external dependency.
type DependencyStatus = api.DependencyStatus

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running       bool               `json:"running"`
	Workers       int                `json:"workers"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	QueueStats    map[string]int     `json:"queue_stats"`
	ActiveJobs    []string           `json:"active_jobs"`
	LastError     string             `json:"last_error"`
	LastJob       *JobSnapshot       `json:"last_job"`
	LockPath      string             `json:"lock_path"`
	JobDBPath     string             `json:"job_db_path"`
	LogPath       string             `json:"log_path"`
	StageHealth   []StageHealth      `json:"stage_health"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	PID           int                `json:"pid"`
}

// SubmitRequest enqueues a new scan.
type SubmitRequest struct {
	ScanType   string `json:"scan_type"`
	Repository string `json:"repository"`
	PRID       int64  `json:"pr_id"`
	Branch     string `json:"branch"`
}

// SubmitResponse returns the queued job.
type SubmitResponse struct {
	Job JobSnapshot `json:"job"`
}

// JobListRequest filters job listing by status.
type JobListRequest struct {
	Statuses []string `json:"statuses"`
}

// JobListResponse contains job entries, newest first.
type JobListResponse struct {
	Jobs []JobSnapshot `json:"jobs"`
}

// JobDescribeRequest fetches a single job by its public identifier.
type JobDescribeRequest struct {
	JobID string `json:"job_id"`
}

// JobDescribeResponse contains a single job entry. Found is false when no
// job carries the requested identifier.
type JobDescribeResponse struct {
	Job   JobSnapshot `json:"job"`
	Found bool        `json:"found"`
}

// JobCancelRequest asks the daemon to cancel a job.
type JobCancelRequest struct {
	JobID string `json:"job_id"`
}

// JobCancelResponse reports the cancellation outcome.
type JobCancelResponse struct {
	Outcome string `json:"outcome"`
}

// JobCleanupRequest removes terminal jobs older than the retention window.
// A non-positive RetentionHours uses the daemon's configured default.
type JobCleanupRequest struct {
	RetentionHours int `json:"retention_hours"`
}

// JobCleanupResponse reports number of removed entries.
type JobCleanupResponse struct {
	Removed int64 `json:"removed"`
}

// JobClearFailedRequest removes failed jobs.
type JobClearFailedRequest struct{}

// JobClearFailedResponse reports number of removed entries.
type JobClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// JobClearTerminalRequest removes all completed, failed, and cancelled jobs.
type JobClearTerminalRequest struct{}

// JobClearTerminalResponse reports number of removed entries.
type JobClearTerminalResponse struct {
	Removed int64 `json:"removed"`
}

// JobResetRequest fails jobs stuck in the running state.
type JobResetRequest struct{}

// JobResetResponse reports number of jobs reset.
type JobResetResponse struct {
	Updated int64 `json:"updated"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// JobHealthRequest fetches aggregate diagnostics.
type JobHealthRequest struct{}

// JobHealthResponse reports job counts per lifecycle state.
type JobHealthResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalJobs        int      `json:"total_jobs"`
	Error            string   `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
