package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidino/aicode-reviewer-sub001/internal/ipc"
	"github.com/aidino/aicode-reviewer-sub001/internal/preflight"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run preflight checks and inspect the job database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checks := preflight.RunAll(cmd.Context(), cfg)
			dbHealth, dbErr := fetchDatabaseHealth(ctx, cmd)

			if ctx.JSONMode() {
				payload := map[string]any{"checks": checks}
				if dbErr != nil {
					payload["databaseError"] = dbErr.Error()
				} else {
					payload["database"] = dbHealth
				}
				return writeJSON(cmd, payload)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(stdout, line)
			}
			failed := 0
			for _, check := range checks {
				kind := statusOK
				detail := check.Detail
				if !check.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Job Database", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if dbErr != nil {
				fmt.Fprintln(stdout, renderStatusLine("Database", statusError, dbErr.Error(), colorize))
			} else {
				for _, line := range databaseHealthLines(dbHealth, colorize) {
					fmt.Fprintln(stdout, line)
				}
			}

			if failed > 0 {
				fmt.Fprintln(stdout)
				fmt.Fprintf(stdout, "%d preflight checks failed\n", failed)
			}
			return nil
		},
	}
}

// fetchDatabaseHealth asks the daemon first so locking stays in one process,
// then falls back to opening the store directly.
func fetchDatabaseHealth(ctx *commandContext, cmd *cobra.Command) (queue.DatabaseHealth, error) {
	if client, err := ipc.Dial(ctx.socketPath()); err == nil {
		defer client.Close()
		resp, err := client.DatabaseHealth()
		if err != nil {
			return queue.DatabaseHealth{}, err
		}
		return queue.DatabaseHealth{
			DBPath:           resp.DBPath,
			DatabaseExists:   resp.DatabaseExists,
			DatabaseReadable: resp.DatabaseReadable,
			SchemaVersion:    resp.SchemaVersion,
			TableExists:      resp.TableExists,
			ColumnsPresent:   resp.ColumnsPresent,
			MissingColumns:   resp.MissingColumns,
			IntegrityCheck:   resp.IntegrityCheck,
			TotalJobs:        resp.TotalJobs,
			Error:            resp.Error,
		}, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return queue.DatabaseHealth{}, err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return queue.DatabaseHealth{}, err
	}
	defer store.Close()
	return store.CheckHealth(cmd.Context())
}

func databaseHealthLines(health queue.DatabaseHealth, colorize bool) []string {
	lines := make([]string, 0, 8)

	boolLine := func(label string, ok bool, okDetail, badDetail string) string {
		if ok {
			return renderStatusLine(label, statusOK, okDetail, colorize)
		}
		return renderStatusLine(label, statusError, badDetail, colorize)
	}

	lines = append(lines, renderStatusLine("Path", statusInfo, health.DBPath, colorize))
	lines = append(lines, boolLine("Database file", health.DatabaseExists, "exists", "missing"))
	lines = append(lines, boolLine("Readable", health.DatabaseReadable, "yes", "no"))
	lines = append(lines, boolLine("Jobs table", health.TableExists, "present", "missing"))
	lines = append(lines, boolLine("Integrity", health.IntegrityCheck, "ok", "failed"))
	lines = append(lines, renderStatusLine("Schema version", statusInfo, health.SchemaVersion, colorize))
	lines = append(lines, renderStatusLine("Total jobs", statusInfo, fmt.Sprintf("%d", health.TotalJobs), colorize))
	if len(health.MissingColumns) > 0 {
		lines = append(lines, renderStatusLine("Missing columns", statusError, strings.Join(health.MissingColumns, ", "), colorize))
	}
	if strings.TrimSpace(health.Error) != "" {
		lines = append(lines, renderStatusLine("Error", statusError, health.Error, colorize))
	}
	return lines
}
