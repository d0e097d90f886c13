// Package queue persists scan jobs in SQLite and exposes helpers for driving
// their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, interrupted-job recovery, and the status
// transitions of the public job lifecycle. Jobs capture the scan request,
// progress, and the terminal result or failure detail so callers can observe
// a scan without touching workflow state.
//
// The database is treated as transient storage for in-flight and recently
// finished jobs rather than a long-term archive. Schema changes bump the
// version in schema.go; users clear the database to adopt the new schema.
//
// Treat this package as the single source of truth for job semantics; when
// you add new statuses or columns, update schema.sql and bump schemaVersion.
package queue
