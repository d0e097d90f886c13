// Package parse implements the second pipeline stage: it inventories the
// source files of the workspace (or just the changed files of a pull
// request), detects languages by extension, and extracts a line-level symbol
// outline used by the later analysis stages.
package parse
