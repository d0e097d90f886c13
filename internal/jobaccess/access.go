// Package jobaccess gives CLI commands one interface over the job queue
// whether the daemon is running or not: IPC-backed access when the socket
// answers, direct store access otherwise.
package jobaccess

import (
	"context"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/api"
	"github.com/aidino/aicode-reviewer-sub001/internal/ipc"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

// Access provides job operations regardless of IPC or direct store backing.
type Access interface {
	Submit(ctx context.Context, req scan.Request) (api.JobSnapshot, error)
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.JobSnapshot, error)
	Describe(ctx context.Context, jobID string) (*api.JobSnapshot, error)
	Cancel(ctx context.Context, jobID string) (queue.CancelOutcome, error)
	// Cleanup removes terminal jobs older than the retention window. On the
	// IPC path a non-positive value means the daemon's configured default;
	// direct store callers must resolve the default themselves.
	Cleanup(ctx context.Context, retentionHours int) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	ClearTerminal(ctx context.Context) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{store: store, service: api.NewJobService(store, nil, logging.NewNop())}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Submit(_ context.Context, req scan.Request) (api.JobSnapshot, error) {
	resp, err := a.client.Submit(ipc.SubmitRequest{
		ScanType:   string(req.ScanType),
		Repository: req.Repository,
		PRID:       req.PRID,
		Branch:     req.Branch,
	})
	if err != nil {
		return api.JobSnapshot{}, err
	}
	return resp.Job, nil
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]api.JobSnapshot, error) {
	resp, err := a.client.JobList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (a *ipcAccess) Describe(_ context.Context, jobID string) (*api.JobSnapshot, error) {
	resp, err := a.client.JobDescribe(jobID)
	if err != nil {
		return nil, err
	}
	if resp == nil || !resp.Found {
		return nil, nil
	}
	return &resp.Job, nil
}

func (a *ipcAccess) Cancel(_ context.Context, jobID string) (queue.CancelOutcome, error) {
	resp, err := a.client.JobCancel(jobID)
	if err != nil {
		return "", err
	}
	return queue.CancelOutcome(resp.Outcome), nil
}

func (a *ipcAccess) Cleanup(_ context.Context, retentionHours int) (int64, error) {
	resp, err := a.client.JobCleanup(retentionHours)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearFailed(_ context.Context) (int64, error) {
	resp, err := a.client.JobClearFailed()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearTerminal(_ context.Context) (int64, error) {
	resp, err := a.client.JobClearTerminal()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ResetStuck(_ context.Context) (int64, error) {
	resp, err := a.client.JobReset()
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) Health(_ context.Context) (queue.HealthSummary, error) {
	resp, err := a.client.JobHealth()
	if err != nil {
		return queue.HealthSummary{}, err
	}
	return queue.HealthSummary{
		Total:     resp.Total,
		Pending:   resp.Pending,
		Running:   resp.Running,
		Completed: resp.Completed,
		Failed:    resp.Failed,
		Cancelled: resp.Cancelled,
	}, nil
}

type storeAccess struct {
	store   *queue.Store
	service *api.JobService
}

func (a *storeAccess) Submit(ctx context.Context, req scan.Request) (api.JobSnapshot, error) {
	return a.service.Submit(ctx, req)
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.JobSnapshot, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	jobs, err := a.service.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	return api.SortJobsNewestFirst(jobs), nil
}

func (a *storeAccess) Describe(ctx context.Context, jobID string) (*api.JobSnapshot, error) {
	return a.service.Describe(ctx, jobID)
}

func (a *storeAccess) Cancel(ctx context.Context, jobID string) (queue.CancelOutcome, error) {
	return a.service.Cancel(ctx, jobID)
}

func (a *storeAccess) Cleanup(ctx context.Context, retentionHours int) (int64, error) {
	return a.service.Cleanup(ctx, time.Duration(retentionHours)*time.Hour)
}

func (a *storeAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.service.ClearFailed(ctx)
}

func (a *storeAccess) ClearTerminal(ctx context.Context) (int64, error) {
	return a.service.ClearTerminal(ctx)
}

func (a *storeAccess) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckRunning(ctx)
}

func (a *storeAccess) Health(ctx context.Context) (queue.HealthSummary, error) {
	return a.store.Health(ctx)
}
