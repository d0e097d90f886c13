package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidino/aicode-reviewer-sub001/internal/api"
	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/ipc"
	"github.com/aidino/aicode-reviewer-sub001/internal/jobaccess"
	"github.com/aidino/aicode-reviewer-sub001/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and queue status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(ctx, cmd)
		},
	}
}

// runStatus backs both `aicode status` and `aicode daemon status`. It prefers
// the live daemon snapshot and falls back to direct store access when the
// daemon is not running.
func runStatus(ctx *commandContext, cmd *cobra.Command) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	status := fetchDaemonStatus(ctx)

	queueStats := map[string]int{}
	if status != nil {
		queueStats = status.QueueStats
	} else {
		err := ctx.withJobs(func(access jobaccess.Access) error {
			stats, err := access.Stats(cmd.Context())
			if err != nil {
				return err
			}
			queueStats = stats
			return nil
		})
		if err != nil {
			return err
		}
	}

	dependencies := collectDependencies(cfg, status)

	if ctx.JSONMode() {
		return writeJSON(cmd, buildStatusPayload(cfg, status, queueStats, dependencies))
	}

	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range daemonStatusLines(cfg, ctx.socketPath(), status, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range dependencyLines(dependencies, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	if status != nil && len(status.StageHealth) > 0 {
		for _, line := range renderSectionHeader("Stage Health", colorize) {
			fmt.Fprintln(stdout, line)
		}
		for _, line := range stageHealthLines(status.StageHealth, colorize) {
			fmt.Fprintln(stdout, line)
		}
		fmt.Fprintln(stdout)
	}

	for _, line := range renderSectionHeader("Queue", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := buildJobStatusRows(queueStats)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Queue is empty")
		return nil
	}
	table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(stdout, table)
	return nil
}

// fetchDaemonStatus returns nil when the daemon is unreachable; callers treat
// nil as "daemon not running" rather than an error.
func fetchDaemonStatus(ctx *commandContext) *ipc.StatusResponse {
	client, err := ipc.Dial(ctx.socketPath())
	if err != nil {
		return nil
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return nil
	}
	return status
}

func daemonStatusLines(cfg *config.Config, socketPath string, status *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 8)

	if status == nil {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "not running", colorize))
		lines = append(lines, renderStatusLine("Socket", statusInfo, socketPath, colorize))
		if cfg != nil {
			lines = append(lines, renderStatusLine("Job database", statusInfo, cfg.Paths.DBPath, colorize))
			lines = append(lines, renderStatusLine("Log directory", statusInfo, cfg.Paths.LogDir, colorize))
		}
		return lines
	}

	daemonDetail := "running"
	if status.PID > 0 {
		daemonDetail = fmt.Sprintf("running (pid %d)", status.PID)
	}
	lines = append(lines, renderStatusLine("Daemon", statusOK, daemonDetail, colorize))

	if status.Running {
		lines = append(lines, renderStatusLine("Workflow", statusOK, fmt.Sprintf("running with %d workers", status.Workers), colorize))
	} else {
		lines = append(lines, renderStatusLine("Workflow", statusWarn, "stopped", colorize))
	}
	if status.UptimeSeconds > 0 {
		lines = append(lines, renderStatusLine("Uptime", statusInfo, formatUptime(status.UptimeSeconds), colorize))
	}
	if len(status.ActiveJobs) > 0 {
		lines = append(lines, renderStatusLine("Active jobs", statusInfo, fmt.Sprintf("%d", len(status.ActiveJobs)), colorize))
	}
	if strings.TrimSpace(status.LastError) != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, status.LastError, colorize))
	}
	if status.JobDBPath != "" {
		lines = append(lines, renderStatusLine("Job database", statusInfo, status.JobDBPath, colorize))
	}
	if status.LogPath != "" {
		lines = append(lines, renderStatusLine("Log file", statusInfo, status.LogPath, colorize))
	}
	return lines
}

func dependencyLines(deps []api.DependencyStatus, colorize bool) []string {
	if len(deps) == 0 {
		return []string{renderStatusLine("Dependencies", statusInfo, "none checked", colorize)}
	}

	lines := make([]string, 0, len(deps)+1)
	missing := make([]string, 0)
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
			detail += " (optional)"
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func stageHealthLines(health []api.StageHealth, colorize bool) []string {
	lines := make([]string, 0, len(health))
	for _, entry := range health {
		kind := statusOK
		detail := entry.Detail
		if entry.Ready {
			if detail == "" {
				detail = "ready"
			}
		} else {
			kind = statusWarn
			if detail == "" {
				detail = "not ready"
			}
		}
		lines = append(lines, renderStatusLine(formatStatusLabel(entry.Name), kind, detail, colorize))
	}
	return lines
}

// collectDependencies prefers the daemon's view so the CLI reports what the
// worker process can actually reach, not what the CLI host happens to have.
func collectDependencies(cfg *config.Config, status *ipc.StatusResponse) []api.DependencyStatus {
	if status != nil && len(status.Dependencies) > 0 {
		return status.Dependencies
	}
	if cfg == nil {
		return nil
	}
	checked := preflight.CheckSystemDeps(cfg)
	out := make([]api.DependencyStatus, 0, len(checked))
	for _, dep := range checked {
		out = append(out, api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

func buildStatusPayload(cfg *config.Config, status *ipc.StatusResponse, queueStats map[string]int, deps []api.DependencyStatus) api.DaemonStatus {
	if status == nil {
		payload := api.DaemonStatus{
			Running:      false,
			Workflow:     api.WorkflowStatus{QueueStats: queueStats},
			Dependencies: deps,
		}
		if cfg != nil {
			payload.JobDBPath = cfg.Paths.DBPath
			payload.LockFilePath = cfg.Paths.LockPath
		}
		return payload
	}

	return api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		JobDBPath:    status.JobDBPath,
		LockFilePath: status.LockPath,
		LogPath:      status.LogPath,
		Workflow: api.WorkflowStatus{
			Running:       status.Running,
			Workers:       status.Workers,
			UptimeSeconds: status.UptimeSeconds,
			ActiveJobs:    status.ActiveJobs,
			QueueStats:    queueStats,
			LastError:     status.LastError,
			LastJob:       status.LastJob,
			StageHealth:   status.StageHealth,
		},
		Dependencies: deps,
	}
}

func formatUptime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return d.Truncate(time.Second).String()
}
