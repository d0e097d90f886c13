package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidino/aicode-reviewer-sub001/internal/api"
	"github.com/aidino/aicode-reviewer-sub001/internal/jobaccess"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage scan jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsCancelCommand(ctx))
	jobsCmd.AddCommand(newJobsCleanupCommand(ctx))
	jobsCmd.AddCommand(newJobsClearFailedCommand(ctx))
	jobsCmd.AddCommand(newJobsClearTerminalCommand(ctx))
	jobsCmd.AddCommand(newJobsResetCommand(ctx))
	jobsCmd.AddCommand(newJobsStatsCommand(ctx))
	jobsCmd.AddCommand(newJobsHealthCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scan jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(access jobaccess.Access) error {
				jobs, err := access.List(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.SortJobsNewestFirst(jobs))
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
					return nil
				}
				table := renderTable(
					[]string{"Job", "Target", "Type", "Status", "Stage", "Progress", "Created"},
					buildJobListRows(jobs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show details for one scan job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			return ctx.withJobs(func(access jobaccess.Access) error {
				job, err := access.Describe(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				if job == nil {
					if ctx.JSONMode() {
						return writeJSON(cmd, map[string]any{"error": "not_found", "jobId": jobID})
					}
					return fmt.Errorf("job %q not found", jobID)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, job)
				}
				printJobDetail(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}
}

func printJobDetail(out io.Writer, job *api.JobSnapshot) {
	fmt.Fprintf(out, "Job ID:      %s\n", job.JobID)
	fmt.Fprintf(out, "Scan ID:     %s\n", job.ScanID)
	fmt.Fprintf(out, "Type:        %s\n", job.ScanType)
	fmt.Fprintf(out, "Target:      %s\n", formatScanTarget(*job))
	if job.Branch != "" {
		fmt.Fprintf(out, "Branch:      %s\n", job.Branch)
	}
	fmt.Fprintf(out, "Status:      %s\n", formatStatusLabel(job.Status))
	fmt.Fprintf(out, "Stage:       %s\n", formatStatusLabel(job.Progress.Stage))
	fmt.Fprintf(out, "Progress:    %.0f%%\n", job.Progress.Percent)
	if job.Progress.Message != "" {
		fmt.Fprintf(out, "Message:     %s\n", job.Progress.Message)
	}
	fmt.Fprintf(out, "Created:     %s\n", formatDisplayTime(job.CreatedAt))
	if job.StartedAt != "" {
		fmt.Fprintf(out, "Started:     %s\n", formatDisplayTime(job.StartedAt))
	}
	if job.CompletedAt != "" {
		fmt.Fprintf(out, "Completed:   %s\n", formatDisplayTime(job.CompletedAt))
	}
	if job.CancelRequested {
		fmt.Fprintln(out, "Cancel:      requested")
	}
	if job.Error != nil {
		fmt.Fprintf(out, "Error:       [%s] %s (stage %s)\n", job.Error.Kind, job.Error.Message, job.Error.Stage)
	}
	printJobResult(out, job.Result)
}

func printJobResult(out io.Writer, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var ref scan.ResultRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return
	}
	if ref.Summary != "" {
		fmt.Fprintf(out, "Summary:     %s\n", ref.Summary)
	}
	fmt.Fprintf(out, "Findings:    %d (%d review comments)\n", ref.FindingCount, ref.CommentCount)
	if ref.ReportMarkdownPath != "" {
		fmt.Fprintf(out, "Report:      %s\n", ref.ReportMarkdownPath)
	}
	if ref.ReportJSONPath != "" {
		fmt.Fprintf(out, "Report JSON: %s\n", ref.ReportJSONPath)
	}
	if ref.Partial {
		fmt.Fprintln(out, "Note:        partial report (scan failed before reporting)")
	}
}

func newJobsCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending or running scan job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			return ctx.withJobSession(func(session jobaccess.Session) error {
				outcome, err := session.Access.Cancel(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"jobId": jobID, "outcome": string(outcome)})
				}
				out := cmd.OutOrStdout()
				switch outcome {
				case queue.CancelNotFound:
					fmt.Fprintf(out, "Job %s not found\n", jobID)
				case queue.CancelTerminal:
					fmt.Fprintf(out, "Job %s is already finished\n", jobID)
				case queue.CancelImmediate:
					fmt.Fprintf(out, "Job %s cancelled\n", jobID)
				case queue.CancelRequested:
					fmt.Fprintf(out, "Job %s cancellation requested (stops after the current stage)\n", jobID)
					if session.Direct {
						fmt.Fprintln(out, "Daemon not reachable: the flag is recorded, the running worker honors it at its next stage boundary")
					}
				default:
					fmt.Fprintf(out, "Job %s: %s\n", jobID, outcome)
				}
				return nil
			})
		},
	}
}

func newJobsCleanupCommand(ctx *commandContext) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove finished jobs older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			retention := hours
			if retention <= 0 {
				retention = cfg.Workflow.RetentionHours
			}
			return ctx.withJobs(func(access jobaccess.Access) error {
				removed, err := access.Cleanup(cmd.Context(), retention)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": removed, "retentionHours": retention})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs older than %dh\n", removed, retention)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 0, "Retention window in hours (defaults to the configured retention)")
	return cmd
}

func newJobsClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(access jobaccess.Access) error {
				removed, err := access.ClearFailed(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed jobs\n", removed)
				return nil
			})
		},
	}
}

func newJobsClearTerminalCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-terminal",
		Short: "Remove all completed, failed, and cancelled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(access jobaccess.Access) error {
				removed, err := access.ClearTerminal(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d finished jobs\n", removed)
				return nil
			})
		},
	}
}

func newJobsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Fail running jobs whose worker disappeared",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(access jobaccess.Access) error {
				updated, err := access.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"updated": updated})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d jobs\n", updated)
				return nil
			})
		},
	}
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show job counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(access jobaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, stats)
				}
				rows := buildJobStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newJobsHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show job queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(access jobaccess.Access) error {
				health, err := access.Health(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, health)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nRunning: %d\nCompleted: %d\nFailed: %d\nCancelled: %d\n",
					health.Total,
					health.Pending,
					health.Running,
					health.Completed,
					health.Failed,
					health.Cancelled,
				)
				return nil
			})
		},
	}
}
