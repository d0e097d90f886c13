package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/ipc"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			initialLimit := lines
			if initialLimit < 0 {
				initialLimit = 0
			}
			initialOffset := int64(-1)
			if initialLimit == 0 {
				initialOffset = 0
			}

			client, dialErr := ipc.Dial(ctx.socketPath())
			if dialErr != nil {
				return tailLogFile(cmd, cfg, initialOffset, initialLimit, follow)
			}
			defer client.Close()
			return tailLogsOverIPC(cmd, client, initialOffset, initialLimit, follow)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	return cmd
}

func tailLogsOverIPC(cmd *cobra.Command, client *ipc.Client, offset int64, limit int, follow bool) error {
	ctx := cmd.Context()
	waitMillis := 1000
	printed := false

	for {
		resp, err := client.LogTail(ipc.LogTailRequest{
			Offset:     offset,
			Limit:      limit,
			Follow:     follow,
			WaitMillis: waitMillis,
		})
		if err != nil {
			return fmt.Errorf("tail logs: %w", err)
		}
		if resp == nil {
			return errors.New("log tail response missing")
		}
		for _, line := range resp.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			printed = true
		}
		offset = resp.Offset
		limit = 0
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// tailLogFile reads the daemon log directly when the daemon is not running.
func tailLogFile(cmd *cobra.Command, cfg *config.Config, offset int64, limit int, follow bool) error {
	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	ctx := cmd.Context()
	printed := false

	for {
		result, err := logs.Tail(ctx, logPath, logs.TailOptions{
			Offset: offset,
			Limit:  limit,
			Follow: follow,
			Wait:   time.Second,
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tail logs: %w", err)
		}
		for _, line := range result.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			printed = true
		}
		offset = result.Offset
		limit = 0
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}
