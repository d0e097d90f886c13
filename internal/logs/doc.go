// Package logs provides file tailing and offset helpers shared by the CLI
// and daemon diagnostics.
//
// It reads log files with bounded memory, supports a negative offset for
// "last N lines" requests, and powers follow-mode polling for `aicode logs
// --follow`. Callers supply context deadlines so background polling shuts
// down cleanly when the CLI exits.
package logs
