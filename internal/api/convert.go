package api

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
	"github.com/aidino/aicode-reviewer-sub001/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) JobSnapshot {
	if job == nil {
		return JobSnapshot{}
	}

	dto := JobSnapshot{
		ID:         job.ID,
		JobID:      job.JobID,
		ScanID:     job.ScanID,
		ScanType:   string(job.ScanType),
		Repository: job.Repository,
		PRID:       job.PRID,
		Branch:     job.Branch,
		Status:     string(job.Status),
		Progress: JobProgress{
			Stage:   job.CurrentStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		CancelRequested: job.CancelRequested,
	}
	if job.ErrorMessage != "" || job.ErrorStage != "" {
		dto.Error = &ErrorDetail{
			Stage:   job.ErrorStage,
			Kind:    job.ErrorKind,
			Message: job.ErrorMessage,
		}
	}
	if raw := job.ResultJSON; raw != "" {
		dto.Result = json.RawMessage(raw)
	}
	dto.CreatedAt = FormatTime(job.CreatedAt)
	dto.UpdatedAt = FormatTime(job.UpdatedAt)
	if job.StartedAt != nil {
		dto.StartedAt = FormatTime(*job.StartedAt)
	}
	if job.CompletedAt != nil {
		dto.CompletedAt = FormatTime(*job.CompletedAt)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []JobSnapshot {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]JobSnapshot, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to an API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		Workers:     summary.Workers,
		QueueStats:  MergeJobStats(summary.QueueStats),
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.Uptime > 0 {
		wf.UptimeSeconds = summary.Uptime.Seconds()
	}
	if len(summary.ActiveJobs) > 0 {
		active := make([]string, len(summary.ActiveJobs))
		copy(active, summary.ActiveJobs)
		slices.Sort(active)
		wf.ActiveJobs = active
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob)
		wf.LastJob = &last
	}
	return wf
}

// MergeJobStats produces a string-keyed representation of queue stats.
func MergeJobStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
