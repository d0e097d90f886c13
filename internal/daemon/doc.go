// Package daemon coordinates the long-running reviewer process.
//
// It wires configuration, job storage, the workflow manager, and the HTTP
// status API into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes job maintenance helpers and owns
// the notifications triggered by daemon start/stop events.
//
// Keep orchestration logic here: individual pipeline stages live in their
// own packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
