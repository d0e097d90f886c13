// Package fetch implements the first pipeline stage: it makes the repository
// under review available on disk and, for pull request scans, captures the
// diff against the base branch. Local paths are analyzed in place; remote
// URLs are cloned into a per-scan workspace with retry on transport failure.
package fetch
