package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

// NewJob inserts a pending job for a validated scan request. Job and scan
// identifiers are assigned here and never change.
func (s *Store) NewJob(ctx context.Context, req scan.Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO scan_jobs (
            job_id, scan_id, scan_type, repository, pr_id, branch,
            status, progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		uuid.NewString(),
		string(req.ScanType),
		req.Repository,
		nullableInt64(req.PRID),
		nullableString(req.Branch),
		StatusPending,
		0.0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by database identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM scan_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetByJobID fetches a job by its public identifier.
func (s *Store) GetByJobID(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM scan_jobs WHERE job_id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job by job id: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job. The stored status is read
// first and the write is rejected when it would regress the lifecycle, so a
// finished job can never be revived by a stale writer.
//
// The cancel_requested flag is deliberately not written here; it belongs to
// RequestCancel so a concurrent cancel is never clobbered by the owning
// worker's progress writes.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}

	current, err := s.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("update job: job %d not found", job.ID)
	}
	if err := current.Status.ValidateTransition(job.Status); err != nil {
		return fmt.Errorf("update job %s: %w", job.JobID, err)
	}

	job.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE scan_jobs
         SET status = ?, current_stage = ?, progress_percent = ?, progress_message = ?,
             result_json = ?, error_stage = ?, error_kind = ?, error_message = ?,
             last_heartbeat = ?, started_at = ?, completed_at = ?, updated_at = ?
         WHERE id = ?`,
		job.Status,
		nullableString(job.CurrentStage),
		job.ProgressPercent,
		nullableString(job.ProgressMessage),
		nullableString(job.ResultJSON),
		nullableString(job.ErrorStage),
		nullableString(job.ErrorKind),
		nullableString(job.ErrorMessage),
		nullableTime(job.LastHeartbeat),
		nullableTime(job.StartedAt),
		nullableTime(job.CompletedAt),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided) ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM scan_jobs`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Remove deletes a terminal job by public identifier. Pending and running
// jobs are refused so in-flight work cannot vanish underneath a worker.
func (s *Store) Remove(ctx context.Context, jobID string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM scan_jobs WHERE job_id = ? AND status IN (?, ?, ?)`,
		jobID, StatusCompleted, StatusFailed, StatusCancelled,
	)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
