package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidino/aicode-reviewer-sub001/internal/api"
	"github.com/aidino/aicode-reviewer-sub001/internal/daemonrun"
	"github.com/aidino/aicode-reviewer-sub001/internal/jobaccess"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/notify"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/scanrun"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Submit and run code review scans",
	}

	scanCmd.AddCommand(newScanPRCommand(ctx))
	scanCmd.AddCommand(newScanProjectCommand(ctx))
	scanCmd.AddCommand(newScanRunCommand(ctx))

	return scanCmd
}

func newScanPRCommand(ctx *commandContext) *cobra.Command {
	var repo string
	var prID int64
	var branch string

	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Queue a pull request scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := scan.Request{
				ScanType:   scan.TypePR,
				Repository: strings.TrimSpace(repo),
				PRID:       prID,
				Branch:     strings.TrimSpace(branch),
			}
			return submitScan(ctx, cmd, req)
		},
	}

	cmd.Flags().StringVarP(&repo, "repo", "r", "", "Repository URL or local path")
	cmd.Flags().Int64Var(&prID, "pr", 0, "Pull request number")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch holding the pull request changes")
	return cmd
}

func newScanProjectCommand(ctx *commandContext) *cobra.Command {
	var repo string
	var branch string

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Queue a full project scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := scan.Request{
				ScanType:   scan.TypeProject,
				Repository: strings.TrimSpace(repo),
				Branch:     strings.TrimSpace(branch),
			}
			return submitScan(ctx, cmd, req)
		},
	}

	cmd.Flags().StringVarP(&repo, "repo", "r", "", "Repository URL or local path")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to scan")
	return cmd
}

func submitScan(ctx *commandContext, cmd *cobra.Command, req scan.Request) error {
	return ctx.withJobs(func(access jobaccess.Access) error {
		snapshot, err := access.Submit(cmd.Context(), req)
		if err != nil {
			return err
		}
		if ctx.JSONMode() {
			return writeJSON(cmd, snapshot)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Submitted %s scan %s for %s\n", snapshot.ScanType, snapshot.JobID, formatScanTarget(snapshot))
		fmt.Fprintf(out, "Track progress with `aicode jobs show %s`\n", snapshot.JobID)
		return nil
	})
}

func newScanRunCommand(ctx *commandContext) *cobra.Command {
	var scanType string
	var repo string
	var prID int64
	var branch string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scan synchronously without the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			req, err := buildRunRequest(scanType, repo, prID, branch)
			if err != nil {
				return err
			}

			logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			logger, err := logging.New(logging.Options{
				Level:            cfg.Logging.Level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{logPath},
				ErrorOutputPaths: []string{logPath},
			})
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job store: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running %s scan of %s\n", req.ScanType, describeTarget(req))

			result, err := scanrun.Run(cmd.Context(), scanrun.Options{
				Config:   cfg,
				Store:    store,
				Logger:   logger,
				Notifier: notify.NewService(cfg),
				Handlers: daemonrun.StageHandlers(cfg, logger),
				Request:  req,
				Progress: func(stageName, message string, percent float64) {
					fmt.Fprintf(out, "  [%3.0f%%] %s\n", percent, message)
				},
			})
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, api.FromJob(result.Job))
			}
			return printRunOutcome(out, result)
		},
	}

	cmd.Flags().StringVarP(&scanType, "type", "t", "", "Scan type: pr or project (inferred from --pr when omitted)")
	cmd.Flags().StringVarP(&repo, "repo", "r", "", "Repository URL or local path")
	cmd.Flags().Int64Var(&prID, "pr", 0, "Pull request number")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to scan")
	return cmd
}

func buildRunRequest(scanType, repo string, prID int64, branch string) (scan.Request, error) {
	trimmed := strings.TrimSpace(scanType)
	var parsed scan.Type
	switch {
	case trimmed == "" && prID > 0:
		parsed = scan.TypePR
	case trimmed == "":
		parsed = scan.TypeProject
	default:
		var ok bool
		parsed, ok = scan.ParseType(trimmed)
		if !ok {
			return scan.Request{}, fmt.Errorf("unknown scan type %q (expected pr or project)", scanType)
		}
	}

	return scan.Request{
		ScanType:   parsed,
		Repository: strings.TrimSpace(repo),
		PRID:       prID,
		Branch:     strings.TrimSpace(branch),
	}, nil
}

func describeTarget(req scan.Request) string {
	if req.PRID > 0 {
		return fmt.Sprintf("%s#%d", req.Repository, req.PRID)
	}
	return req.Repository
}

func printRunOutcome(out io.Writer, result *scanrun.Result) error {
	if result == nil || result.Job == nil {
		return fmt.Errorf("scan finished without a job record")
	}
	job := result.Job
	switch job.Status {
	case queue.StatusCompleted:
		fmt.Fprintf(out, "Scan %s completed: %s\n", job.JobID, job.ProgressMessage)
		if result.State != nil && result.State.Result != nil {
			if path := result.State.Result.ReportMarkdownPath; path != "" {
				fmt.Fprintf(out, "Report: %s\n", path)
			} else if path := result.State.Result.ReportJSONPath; path != "" {
				fmt.Fprintf(out, "Report: %s\n", path)
			}
		}
	case queue.StatusFailed:
		fmt.Fprintf(out, "Scan %s failed at %s: %s\n", job.JobID, formatStatusLabel(job.ErrorStage), job.ErrorMessage)
	default:
		fmt.Fprintf(out, "Scan %s finished with status %s\n", job.JobID, job.Status)
	}
	return nil
}
