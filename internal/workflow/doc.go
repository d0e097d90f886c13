// Package workflow drives scan jobs through the review pipeline.
//
// The transition Table declares the stage graph: a linear prefix (fetch,
// parse, static_analysis), a fork on scan type (impact_analysis for pull
// requests, project_scan for whole repositories), a converged tail
// (llm_analysis, reporting), and a universal error edge into error_handling.
// The Engine walks one scan through that graph, running stage handlers with
// per-stage timeouts and cooperative cancellation checks at every boundary.
// The Manager owns the worker pool: workers claim pending jobs from the
// queue, run the engine, and persist progress and terminal results between
// stages. A single worker owns a job from claim to terminal status; nothing
// else writes to it except the cancel flag.
package workflow
