// Package reporting implements the final pipeline stage: it assembles the
// scan report from the accumulated state and renders it as JSON and Markdown
// files under the configured reports directory. The error handling stage
// reuses the same builder to produce partial reports for failed runs.
package reporting
