package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidino/aicode-reviewer-sub001/internal/daemonrun"
	"github.com/aidino/aicode-reviewer-sub001/internal/ipc"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run and control the review daemon",
	}

	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	daemonCmd.AddCommand(newDaemonStopCommand(ctx))
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))

	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the review daemon in the foreground",
		Annotations:  map[string]string{"skipConfigLoad": "true"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: strings.TrimSpace(logLevel),
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level for this run")
	return cmd
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the review daemon process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()

			client, err := ipc.Dial(ctx.socketPath())
			if err != nil {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			defer client.Close()

			var pid int
			if status, statusErr := client.Status(); statusErr == nil && status != nil {
				pid = status.PID
			}

			if _, err := client.Stop(); err != nil {
				return fmt.Errorf("stop daemon: %w", err)
			}
			fmt.Fprintln(stdout, "Stopping daemon workflow...")

			if pid > 0 && pid != os.Getpid() {
				if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
					return fmt.Errorf("terminate daemon process %d: %w", pid, err)
				}
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(ctx, cmd)
		},
	}
}
