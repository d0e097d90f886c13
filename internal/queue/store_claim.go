package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/services"
)

// ClaimNextPending atomically moves the oldest pending job to running and
// returns it. The conditional update is the ownership handoff: whichever
// worker's write lands first owns the job, losers move on to the next
// candidate. Returns nil when the queue has no pending work.
func (s *Store) ClaimNextPending(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := s.db.QueryRowContext(
			ctx,
			`SELECT id FROM scan_jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`,
			StatusPending,
		)
		var id int64
		err := row.Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("next pending job: %w", err)
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := s.execWithRetry(
			ctx,
			`UPDATE scan_jobs
             SET status = ?, started_at = ?, last_heartbeat = ?, updated_at = ?
             WHERE id = ? AND status = ?`,
			StatusRunning, now, now, now, id, StatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 1 {
			return s.GetByID(ctx, id)
		}
		// Another worker or a cancel took this one; try the next oldest.
	}
}

// RequestCancel cancels a job by public identifier. Pending jobs move
// straight to cancelled; running jobs get the cancel_requested flag and stop
// at the next stage boundary. Terminal jobs are left untouched.
func (s *Store) RequestCancel(ctx context.Context, jobID string) (CancelOutcome, error) {
	job, err := s.GetByJobID(ctx, jobID)
	if err != nil {
		return CancelNotFound, err
	}
	if job == nil {
		return CancelNotFound, nil
	}
	if job.Status.IsTerminal() {
		return CancelTerminal, nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`UPDATE scan_jobs
         SET status = ?, progress_message = ?, completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCancelled, "cancelled before start", now, now, job.ID, StatusPending,
	)
	if err != nil {
		return CancelNotFound, fmt.Errorf("cancel pending job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return CancelNotFound, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return CancelImmediate, nil
	}

	res, err = s.execWithRetry(
		ctx,
		`UPDATE scan_jobs SET cancel_requested = 1, updated_at = ? WHERE id = ? AND status = ?`,
		now, job.ID, StatusRunning,
	)
	if err != nil {
		return CancelNotFound, fmt.Errorf("flag running job: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return CancelNotFound, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return CancelRequested, nil
	}

	// The job reached a terminal status between the lookup and the flag.
	return CancelTerminal, nil
}

// CancelRequestedFor reports whether a cancel flag is set on the job. Workers
// consult this at stage boundaries.
func (s *Store) CancelRequestedFor(ctx context.Context, id int64) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT cancel_requested FROM scan_jobs WHERE id = ?`, id)
	var flag int
	if err := row.Scan(&flag); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return flag != 0, nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE scan_jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckRunning fails jobs left in running status by an earlier daemon
// process. Runs before workers start so nothing is claimed twice; a run that
// died mid-stage cannot be resumed safely, so it is recorded as interrupted
// rather than re-queued.
func (s *Store) ResetStuckRunning(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE scan_jobs
         SET status = ?, error_stage = COALESCE(current_stage, ''), error_kind = ?,
             error_message = ?, progress_message = ?, last_heartbeat = NULL,
             completed_at = ?, updated_at = ?
         WHERE status = ?`,
		StatusFailed, services.KindInterrupted,
		InterruptedMessage, InterruptedMessage,
		now, now,
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// StaleRunning returns running jobs whose heartbeat predates the cutoff.
// Used for observability only; ownership stays with the claiming worker.
func (s *Store) StaleRunning(ctx context.Context, cutoff time.Time) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM scan_jobs
         WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?
         ORDER BY created_at, id`,
		StatusRunning,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query stale running jobs: %w", err)
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
