// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal queue models into transport-friendly DTOs
// so clients can render scan state without coupling to internal types.
//
// # Key Types
//
// JobSnapshot: transport representation of a scan job with progress, failure
// detail, and the report result reference.
//
// WorkflowStatus: daemon running state, queue stats, stage health, and the
// most recently finished job.
//
// DaemonStatus: aggregated runtime information including dependency checks.
//
// # Converters
//
// FromJob: queue.Job -> JobSnapshot. FromStatusSummary: workflow.StatusSummary
// -> WorkflowStatus. StageHealthSlice renders the stage health map in
// deterministic order.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (queue.Status, scan.Type) are exposed as lowercase strings. Timestamps
// use RFC3339 with milliseconds. The report payload is passed through as
// json.RawMessage to avoid double-encoding.
package api
