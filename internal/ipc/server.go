package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"github.com/aidino/aicode-reviewer-sub001/internal/api"
	"github.com/aidino/aicode-reviewer-sub001/internal/daemon"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/logs"
	"github.com/aidino/aicode-reviewer-sub001/internal/queue"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Reviewer", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String("impact", "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun aicode daemon stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Workers = status.Workflow.Workers
	if status.Workflow.Uptime > 0 {
		resp.UptimeSeconds = status.Workflow.Uptime.Seconds()
	}
	resp.JobDBPath = status.JobDBPath
	resp.LockPath = status.LockFilePath
	resp.LogPath = status.LogPath
	resp.QueueStats = make(map[string]int, len(status.Workflow.QueueStats))
	for k, v := range status.Workflow.QueueStats {
		resp.QueueStats[string(k)] = v
	}
	resp.ActiveJobs = append(resp.ActiveJobs, status.Workflow.ActiveJobs...)
	resp.LastError = status.Workflow.LastError
	if status.Workflow.LastJob != nil {
		snapshot := api.FromJob(status.Workflow.LastJob)
		resp.LastJob = &snapshot
	}
	resp.StageHealth = api.StageHealthSlice(status.Workflow.StageHealth)
	if len(status.Dependencies) > 0 {
		resp.Dependencies = make([]DependencyStatus, 0, len(status.Dependencies))
		for _, dep := range status.Dependencies {
			resp.Dependencies = append(resp.Dependencies, DependencyStatus{
				Name:        dep.Name,
				Command:     dep.Command,
				Description: dep.Description,
				Optional:    dep.Optional,
				Available:   dep.Available,
				Detail:      dep.Detail,
			})
		}
	}
	return nil
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	scanType, ok := scan.ParseType(req.ScanType)
	if !ok {
		return fmt.Errorf("unknown scan type %q", req.ScanType)
	}
	snapshot, err := s.daemon.Jobs().Submit(s.ctx, scan.Request{
		ScanType:   scanType,
		Repository: req.Repository,
		PRID:       req.PRID,
		Branch:     req.Branch,
	})
	if err != nil {
		return err
	}
	resp.Job = snapshot
	s.log().Info("scan submitted via IPC",
		logging.String(logging.FieldEventType, "scan_submit"),
		logging.String(logging.FieldJobID, snapshot.JobID),
		logging.String(logging.FieldScanType, snapshot.ScanType))
	return nil
}

func (s *service) JobList(req JobListRequest, resp *JobListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := queue.ParseStatus(status)
		if !ok {
			continue
		}
		statuses = append(statuses, parsed)
	}
	jobs, err := s.daemon.Jobs().List(s.ctx, statuses...)
	if err != nil {
		return err
	}
	resp.Jobs = api.SortJobsNewestFirst(jobs)
	return nil
}

func (s *service) JobDescribe(req JobDescribeRequest, resp *JobDescribeResponse) error {
	if req.JobID == "" {
		return errors.New("job describe requires a job id")
	}
	job, err := s.daemon.Jobs().Describe(s.ctx, req.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		resp.Found = false
		return nil
	}
	resp.Job = *job
	resp.Found = true
	return nil
}

func (s *service) JobCancel(req JobCancelRequest, resp *JobCancelResponse) error {
	if req.JobID == "" {
		return errors.New("job cancel requires a job id")
	}
	s.log().Debug("job cancel requested", logging.String(logging.FieldJobID, req.JobID))
	outcome, err := s.daemon.Jobs().Cancel(s.ctx, req.JobID)
	if err != nil {
		return err
	}
	resp.Outcome = string(outcome)
	s.log().Info("job cancel processed",
		logging.String(logging.FieldEventType, "job_cancel"),
		logging.String(logging.FieldJobID, req.JobID),
		logging.String("outcome", string(outcome)))
	return nil
}

func (s *service) JobCleanup(req JobCleanupRequest, resp *JobCleanupResponse) error {
	s.log().Debug("job cleanup requested")
	removed, err := s.daemon.Cleanup(s.ctx, time.Duration(req.RetentionHours)*time.Hour)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("old jobs cleaned up",
		logging.String(logging.FieldEventType, "job_cleanup"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) JobClearFailed(_ JobClearFailedRequest, resp *JobClearFailedResponse) error {
	s.log().Debug("job clear failed requested")
	removed, err := s.daemon.Jobs().ClearFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("failed jobs cleared",
		logging.String(logging.FieldEventType, "job_clear_failed"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) JobClearTerminal(_ JobClearTerminalRequest, resp *JobClearTerminalResponse) error {
	s.log().Debug("job clear terminal requested")
	removed, err := s.daemon.Jobs().ClearTerminal(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("terminal jobs cleared",
		logging.String(logging.FieldEventType, "job_clear_terminal"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) JobReset(_ JobResetRequest, resp *JobResetResponse) error {
	s.log().Debug("job reset stuck requested")
	updated, err := s.daemon.ResetStuck(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.log().Info("stuck jobs reset",
		logging.String(logging.FieldEventType, "job_reset_stuck"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) JobHealth(_ JobHealthRequest, resp *JobHealthResponse) error {
	health, err := s.daemon.JobHealth(s.ctx)
	if err != nil {
		return err
	}
	resp.Total = health.Total
	resp.Pending = health.Pending
	resp.Running = health.Running
	resp.Completed = health.Completed
	resp.Failed = health.Failed
	resp.Cancelled = health.Cancelled
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.SchemaVersion = health.SchemaVersion
	resp.TableExists = health.TableExists
	resp.ColumnsPresent = append(resp.ColumnsPresent, health.ColumnsPresent...)
	resp.MissingColumns = append(resp.MissingColumns, health.MissingColumns...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalJobs = health.TotalJobs
	resp.Error = health.Error
	if err != nil {
		return err
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
