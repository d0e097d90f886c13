package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return fmt.Errorf("paths.workspace_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ReportsDir) == "" {
		return fmt.Errorf("paths.reports_dir must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.WorkerCount < 1 {
		return fmt.Errorf("workflow.worker_count must be at least 1")
	}
	if c.Workflow.StageTimeout < 1 {
		return fmt.Errorf("workflow.stage_timeout must be at least 1 second")
	}
	if c.Workflow.RetentionHours < 1 {
		return fmt.Errorf("workflow.retention_hours must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
