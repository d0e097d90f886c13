package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set llm.api_key before submitting scans.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var flagPath string
			if ctx.configFlag != nil {
				flagPath = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, path, exists, err := config.Load(flagPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration (API keys redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				redacted := *cfg
				if redacted.LLM.APIKey != "" {
					redacted.LLM.APIKey = "REDACTED"
				}
				return writeJSON(cmd, redacted)
			}

			out := cmd.OutOrStdout()
			section := func(name string) { fmt.Fprintf(out, "[%s]\n", name) }
			entry := func(key, value string) { fmt.Fprintf(out, "  %-22s %s\n", key, value) }

			section("paths")
			entry("log_dir", cfg.Paths.LogDir)
			entry("workspace_dir", cfg.Paths.WorkspaceDir)
			entry("reports_dir", cfg.Paths.ReportsDir)
			entry("db_path", cfg.Paths.DBPath)
			entry("socket_path", cfg.Paths.SocketPath)
			entry("lock_path", cfg.Paths.LockPath)
			entry("api_bind", cfg.Paths.APIBind)

			fmt.Fprintln(out)
			section("scan")
			entry("base_branch", cfg.Scan.BaseBranch)
			entry("exclude_globs", strings.Join(cfg.Scan.ExcludeGlobs, ", "))
			entry("max_file_size_kb", fmt.Sprintf("%d", cfg.Scan.MaxFileSizeKB))
			entry("fetch_retries", fmt.Sprintf("%d", cfg.Scan.FetchRetries))
			entry("git_binary", cfg.GitBinary())

			fmt.Fprintln(out)
			section("llm")
			entry("api_key_set", yesNo(strings.TrimSpace(cfg.LLM.APIKey) != ""))
			entry("base_url", cfg.LLM.BaseURL)
			entry("model", cfg.LLM.Model)
			entry("timeout_seconds", fmt.Sprintf("%d", cfg.LLM.TimeoutSeconds))

			fmt.Fprintln(out)
			section("workflow")
			entry("worker_count", fmt.Sprintf("%d", cfg.Workflow.WorkerCount))
			entry("queue_poll_interval", fmt.Sprintf("%d", cfg.Workflow.QueuePollInterval))
			entry("stage_timeout", fmt.Sprintf("%d", cfg.Workflow.StageTimeout))
			entry("heartbeat_interval", fmt.Sprintf("%d", cfg.Workflow.HeartbeatInterval))
			entry("cleanup_interval", fmt.Sprintf("%d", cfg.Workflow.CleanupInterval))
			entry("retention_hours", fmt.Sprintf("%d", cfg.Workflow.RetentionHours))

			fmt.Fprintln(out)
			section("logging")
			entry("format", cfg.Logging.Format)
			entry("level", cfg.Logging.Level)

			fmt.Fprintln(out)
			section("notifications")
			entry("webhook_configured", yesNo(strings.TrimSpace(cfg.Notifications.WebhookURL) != ""))
			entry("request_timeout", fmt.Sprintf("%d", cfg.Notifications.RequestTimeout))
			return nil
		},
	}
}
