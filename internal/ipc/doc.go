// Package ipc is the control channel between the CLI and the scan daemon: a
// JSON-RPC server on a Unix socket plus the client the commands dial.
//
// The wire types here are deliberately flat. Jobs cross the socket as
// JobSnapshot rather than queue.Job so the CLI never depends on storage
// internals, and every response carries plain strings and numbers that
// marshal the same way on both ends. New endpoints should follow the same
// request/response struct pattern so older clients keep working.
package ipc
