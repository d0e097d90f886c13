// Package preflight provides readiness checks for the external services and
// filesystem paths the reviewer depends on.
//
// These checks run in two contexts:
//   - The CLI "aicode health" command runs RunAll and renders each result.
//   - The daemon status surfaces CheckSystemDeps so operators see missing
//     binaries without grepping logs.
//
// A failed check never aborts anything by itself; callers decide whether a
// failure is fatal for their operation.
package preflight
