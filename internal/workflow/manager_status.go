package workflow

import (
	"context"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Workers     int
	Uptime      time.Duration
	ActiveJobs  []string
	LastError   string
	LastJob     *queue.Job
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	started := m.started
	active := make([]string, 0, len(m.active))
	for _, job := range m.active {
		active = append(active, job.JobID)
	}
	engine := m.engine
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	var health map[string]stage.Health
	if engine != nil {
		handlers := engine.Handlers()
		health = make(map[string]stage.Health, len(handlers))
		for name, handler := range handlers {
			health[name] = handler.HealthCheck(ctx)
		}
	}

	summary := StatusSummary{
		Running:     running,
		Workers:     m.cfg.Workflow.WorkerCount,
		ActiveJobs:  active,
		QueueStats:  stats,
		StageHealth: health,
	}
	if running && !started.IsZero() {
		summary.Uptime = time.Since(started)
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		summary.LastJob = lastJob.Clone()
	}
	return summary
}
