package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
)

// HeartbeatMonitor stamps running jobs so operators can spot wedged workers.
// Jobs are never reclaimed: ownership stays with the claiming worker and
// interrupted runs are failed at startup instead.
type HeartbeatMonitor struct {
	store      *queue.Store
	logger     *slog.Logger
	interval   time.Duration
	staleAfter time.Duration
}

// NewHeartbeatMonitor creates a new monitor. A staleAfter of zero disables
// stale detection.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, staleAfter time.Duration) *HeartbeatMonitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HeartbeatMonitor{
		store:      store,
		logger:     logger.With(logging.String(logging.FieldComponent, "workflow-heartbeat")),
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// StartLoop updates the heartbeat for one job until context cancellation.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, jobID int64) {
	defer wg.Done()
	if h.interval <= 0 {
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, jobID); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				h.logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}
}

// ObserveStale logs running jobs whose heartbeat has gone quiet.
func (h *HeartbeatMonitor) ObserveStale(ctx context.Context) {
	if h.staleAfter <= 0 {
		return
	}
	cutoff := time.Now().Add(-h.staleAfter)
	stale, err := h.store.StaleRunning(ctx, cutoff)
	if err != nil {
		h.logger.Warn("stale job scan failed", logging.Error(err))
		return
	}
	for _, job := range stale {
		h.logger.Warn("running job heartbeat is stale",
			logging.String(logging.FieldJobID, job.JobID),
			logging.String(logging.FieldStage, job.CurrentStage),
			logging.Any("last_heartbeat", job.LastHeartbeat),
		)
	}
}
