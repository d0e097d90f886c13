// Package logging builds the slog loggers used across the daemon and CLI:
// a human-readable console handler for interactive use and a JSON handler
// for log files, plus the standardized field names and context helpers that
// keep job, scan, and stage identifiers consistent in every record.
package logging
