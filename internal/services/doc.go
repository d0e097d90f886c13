// Package services holds cross-cutting helpers shared by stage
// implementations and the workflow manager: the sentinel error taxonomy with
// its kind classification, and context carriers for job, scan, stage, and
// request identifiers.
package services
