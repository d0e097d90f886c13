package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Reviewer.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Reviewer.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Reviewer.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit enqueues a new scan job.
func (c *Client) Submit(req SubmitRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.client.Call("Reviewer.Submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobList returns jobs optionally filtered by statuses.
func (c *Client) JobList(statuses []string) (*JobListResponse, error) {
	var resp JobListResponse
	req := JobListRequest{Statuses: statuses}
	if err := c.client.Call("Reviewer.JobList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobDescribe returns details for a single job.
func (c *Client) JobDescribe(jobID string) (*JobDescribeResponse, error) {
	var resp JobDescribeResponse
	req := JobDescribeRequest{JobID: jobID}
	if err := c.client.Call("Reviewer.JobDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobCancel requests cancellation of a job.
func (c *Client) JobCancel(jobID string) (*JobCancelResponse, error) {
	var resp JobCancelResponse
	req := JobCancelRequest{JobID: jobID}
	if err := c.client.Call("Reviewer.JobCancel", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobCleanup removes terminal jobs older than the retention window.
func (c *Client) JobCleanup(retentionHours int) (*JobCleanupResponse, error) {
	var resp JobCleanupResponse
	req := JobCleanupRequest{RetentionHours: retentionHours}
	if err := c.client.Call("Reviewer.JobCleanup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobClearFailed removes failed jobs.
func (c *Client) JobClearFailed() (*JobClearFailedResponse, error) {
	var resp JobClearFailedResponse
	if err := c.client.Call("Reviewer.JobClearFailed", JobClearFailedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobClearTerminal removes all finished jobs.
func (c *Client) JobClearTerminal() (*JobClearTerminalResponse, error) {
	var resp JobClearTerminalResponse
	if err := c.client.Call("Reviewer.JobClearTerminal", JobClearTerminalRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobReset fails jobs stuck in the running state.
func (c *Client) JobReset() (*JobResetResponse, error) {
	var resp JobResetResponse
	if err := c.client.Call("Reviewer.JobReset", JobResetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Reviewer.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobHealth returns aggregate job diagnostics.
func (c *Client) JobHealth() (*JobHealthResponse, error) {
	var resp JobHealthResponse
	if err := c.client.Call("Reviewer.JobHealth", JobHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Reviewer.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Reviewer.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
