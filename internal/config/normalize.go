package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Normalize expands path fields, derives the runtime paths that default into
// the log directory, and backfills zero values with repository defaults. Load
// calls it automatically; tests that assemble a Config by hand call it before
// use.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeLLM()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	expand := func(field *string, name string) error {
		if strings.TrimSpace(*field) == "" {
			return nil
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return fmt.Errorf("normalize %s: %w", name, err)
		}
		*field = expanded
		return nil
	}

	if err := expand(&c.Paths.LogDir, "log_dir"); err != nil {
		return err
	}
	if err := expand(&c.Paths.WorkspaceDir, "workspace_dir"); err != nil {
		return err
	}
	if err := expand(&c.Paths.ReportsDir, "reports_dir"); err != nil {
		return err
	}
	if err := expand(&c.Paths.DBPath, "db_path"); err != nil {
		return err
	}
	if err := expand(&c.Paths.SocketPath, "socket_path"); err != nil {
		return err
	}
	if err := expand(&c.Paths.LockPath, "lock_path"); err != nil {
		return err
	}

	// Derived paths default into the log directory so a single location
	// holds the daemon's runtime state.
	if strings.TrimSpace(c.Paths.DBPath) == "" {
		c.Paths.DBPath = filepath.Join(c.Paths.LogDir, "jobs.db")
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.LogDir, "aicoded.sock")
	}
	if strings.TrimSpace(c.Paths.LockPath) == "" {
		c.Paths.LockPath = filepath.Join(c.Paths.LogDir, "aicoded.lock")
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeScan() {
	c.Scan.BaseBranch = strings.TrimSpace(c.Scan.BaseBranch)
	if c.Scan.BaseBranch == "" {
		c.Scan.BaseBranch = defaultBaseBranch
	}
	if c.Scan.MaxFileSizeKB <= 0 {
		c.Scan.MaxFileSizeKB = defaultMaxFileSizeKB
	}
	if c.Scan.FetchRetries <= 0 {
		c.Scan.FetchRetries = defaultFetchRetries
	}
	globs := c.Scan.ExcludeGlobs[:0]
	for _, glob := range c.Scan.ExcludeGlobs {
		if trimmed := strings.TrimSpace(glob); trimmed != "" {
			globs = append(globs, trimmed)
		}
	}
	c.Scan.ExcludeGlobs = globs
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.WorkerCount <= 0 {
		c.Workflow.WorkerCount = defaultWorkerCount
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.StageTimeout <= 0 {
		c.Workflow.StageTimeout = defaultStageTimeout
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.CleanupInterval <= 0 {
		c.Workflow.CleanupInterval = defaultCleanupInterval
	}
	if c.Workflow.RetentionHours <= 0 {
		c.Workflow.RetentionHours = defaultRetentionHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.WebhookURL = strings.TrimSpace(c.Notifications.WebhookURL)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}
