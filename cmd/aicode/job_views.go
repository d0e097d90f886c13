package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/api"
)

func buildJobStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildJobListRows(jobs []api.JobSnapshot) [][]string {
	if len(jobs) == 0 {
		return nil
	}
	sorted := api.SortJobsNewestFirst(jobs)

	rows := make([][]string, 0, len(sorted))
	for _, job := range sorted {
		rows = append(rows, []string{
			shortJobID(job.JobID),
			formatScanTarget(job),
			job.ScanType,
			formatStatusLabel(job.Status),
			formatStatusLabel(job.Progress.Stage),
			fmt.Sprintf("%.0f%%", job.Progress.Percent),
			formatDisplayTime(job.CreatedAt),
		})
	}
	return rows
}

// formatScanTarget renders the repository plus the PR number for pr scans.
func formatScanTarget(job api.JobSnapshot) string {
	repo := strings.TrimSpace(job.Repository)
	if repo == "" {
		repo = "unknown"
	}
	if job.PRID > 0 {
		return fmt.Sprintf("%s#%d", repo, job.PRID)
	}
	return repo
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func shortJobID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 12 {
		return id[:12]
	}
	if id == "" {
		return "-"
	}
	return id
}
