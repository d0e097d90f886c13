package config

const (
	defaultLogDir             = "~/.local/share/aicode/logs"
	defaultWorkspaceDir       = "~/.local/share/aicode/workspace"
	defaultReportsDir         = "~/.local/share/aicode/reports"
	defaultAPIBind            = "127.0.0.1:7621"
	defaultBaseBranch         = "main"
	defaultMaxFileSizeKB      = 512
	defaultFetchRetries       = 3
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/aidino/aicode-reviewer-sub001"
	defaultLLMTitle           = "AICode Reviewer"
	defaultLLMTimeoutSeconds  = 120
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultWorkerCount        = 4
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultStageTimeout       = 600
	defaultHeartbeatInterval  = 15
	defaultCleanupInterval    = 3600
	defaultRetentionHours     = 72
	defaultNotifyTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:       defaultLogDir,
			WorkspaceDir: defaultWorkspaceDir,
			ReportsDir:   defaultReportsDir,
			APIBind:      defaultAPIBind,
		},
		Scan: Scan{
			BaseBranch:    defaultBaseBranch,
			MaxFileSizeKB: defaultMaxFileSizeKB,
			FetchRetries:  defaultFetchRetries,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Workflow: Workflow{
			WorkerCount:        defaultWorkerCount,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			StageTimeout:       defaultStageTimeout,
			HeartbeatInterval:  defaultHeartbeatInterval,
			CleanupInterval:    defaultCleanupInterval,
			RetentionHours:     defaultRetentionHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
