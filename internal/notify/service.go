package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
)

const userAgent = "aicode-reviewer/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	JobQueued(ctx context.Context, job *queue.Job) error
	JobCompleted(ctx context.Context, job *queue.Job) error
	JobFailed(ctx context.Context, job *queue.Job) error
	JobCancelled(ctx context.Context, job *queue.Job) error
	DaemonStarted(ctx context.Context) error
	DaemonStopped(ctx context.Context) error
	Test(ctx context.Context) error
}

// NewService builds a webhook-backed notification service. When no webhook
// URL is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	url := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if url == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint: url,
		client:   &http.Client{Timeout: timeout},
	}
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

type event struct {
	Event      string  `json:"event"`
	Message    string  `json:"message"`
	JobID      string  `json:"jobId,omitempty"`
	ScanType   string  `json:"scanType,omitempty"`
	Repository string  `json:"repository,omitempty"`
	Status     string  `json:"status,omitempty"`
	Stage      string  `json:"stage,omitempty"`
	ErrorKind  string  `json:"errorKind,omitempty"`
	Error      string  `json:"error,omitempty"`
	Progress   float64 `json:"progress,omitempty"`
	SentAt     string  `json:"sentAt"`
}

func jobEvent(name, message string, job *queue.Job) event {
	ev := event{Event: name, Message: message}
	if job != nil {
		ev.JobID = job.JobID
		ev.ScanType = string(job.ScanType)
		ev.Repository = job.Repository
		ev.Status = string(job.Status)
		ev.Stage = job.CurrentStage
		ev.Progress = job.ProgressPercent
	}
	return ev
}

func (w *webhookService) JobQueued(ctx context.Context, job *queue.Job) error {
	ev := jobEvent("job_queued", fmt.Sprintf("Scan queued for %s", jobLabel(job)), job)
	return w.send(ctx, ev)
}

func (w *webhookService) JobCompleted(ctx context.Context, job *queue.Job) error {
	ev := jobEvent("job_completed", fmt.Sprintf("Scan completed for %s", jobLabel(job)), job)
	return w.send(ctx, ev)
}

func (w *webhookService) JobFailed(ctx context.Context, job *queue.Job) error {
	ev := jobEvent("job_failed", fmt.Sprintf("Scan failed for %s", jobLabel(job)), job)
	if job != nil {
		ev.Stage = job.ErrorStage
		ev.ErrorKind = job.ErrorKind
		ev.Error = job.ErrorMessage
	}
	return w.send(ctx, ev)
}

func (w *webhookService) JobCancelled(ctx context.Context, job *queue.Job) error {
	ev := jobEvent("job_cancelled", fmt.Sprintf("Scan cancelled for %s", jobLabel(job)), job)
	return w.send(ctx, ev)
}

func (w *webhookService) DaemonStarted(ctx context.Context) error {
	return w.send(ctx, event{Event: "daemon_started", Message: "Review daemon started"})
}

func (w *webhookService) DaemonStopped(ctx context.Context) error {
	return w.send(ctx, event{Event: "daemon_stopped", Message: "Review daemon stopped"})
}

func (w *webhookService) Test(ctx context.Context) error {
	return w.send(ctx, event{Event: "test", Message: "Notification system test"})
}

func jobLabel(job *queue.Job) string {
	if job == nil {
		return "unknown job"
	}
	if job.PRID > 0 {
		return fmt.Sprintf("%s PR #%d", job.Repository, job.PRID)
	}
	return job.Repository
}

func (w *webhookService) send(ctx context.Context, ev event) error {
	if w == nil || w.client == nil {
		return nil
	}
	ev.SentAt = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) JobQueued(context.Context, *queue.Job) error    { return nil }
func (noopService) JobCompleted(context.Context, *queue.Job) error { return nil }
func (noopService) JobFailed(context.Context, *queue.Job) error    { return nil }
func (noopService) JobCancelled(context.Context, *queue.Job) error { return nil }
func (noopService) DaemonStarted(context.Context) error            { return nil }
func (noopService) DaemonStopped(context.Context) error            { return nil }
func (noopService) Test(context.Context) error                     { return nil }
