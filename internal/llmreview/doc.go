// Package llmreview implements the llm_analysis stage: it condenses the scan
// evidence (diff, findings, impact or project summary) into a review prompt,
// asks the configured model for a JSON review, and merges the reply into the
// scan state. Without an API key the stage degrades to a deterministic
// heuristic review instead of failing the run.
package llmreview
