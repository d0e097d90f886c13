// Package scan defines the domain types threaded through the analysis
// pipeline: the scan request, the mutable per-run state that stages fill in,
// and the report structures assembled at the end of a run.
package scan
