// Package staticanalysis implements the rule-based analysis stage. It walks
// the parsed file inventory and flags debug statements, unresolved TODO
// markers, suspected hardcoded credentials, and oversized files or functions.
// Findings feed the LLM review prompt and the final report.
package staticanalysis
