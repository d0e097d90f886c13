package queue

import (
	"database/sql"
	"errors"
	"time"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

const jobColumns = "id, job_id, scan_id, scan_type, repository, pr_id, branch, status, current_stage, progress_percent, progress_message, cancel_requested, result_json, error_stage, error_kind, error_message, last_heartbeat, created_at, started_at, completed_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              int64
		jobID           string
		scanID          string
		scanType        string
		repository      string
		prID            sql.NullInt64
		branch          sql.NullString
		statusStr       string
		currentStage    sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		cancelRequested sql.NullInt64
		resultJSON      sql.NullString
		errorStage      sql.NullString
		errorKind       sql.NullString
		errorMessage    sql.NullString
		heartbeatRaw    sql.NullString
		createdRaw      sql.NullString
		startedRaw      sql.NullString
		completedRaw    sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&scanID,
		&scanType,
		&repository,
		&prID,
		&branch,
		&statusStr,
		&currentStage,
		&progressPercent,
		&progressMessage,
		&cancelRequested,
		&resultJSON,
		&errorStage,
		&errorKind,
		&errorMessage,
		&heartbeatRaw,
		&createdRaw,
		&startedRaw,
		&completedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		JobID:           jobID,
		ScanID:          scanID,
		ScanType:        scan.Type(scanType),
		Repository:      repository,
		PRID:            prID.Int64,
		Branch:          branch.String,
		Status:          Status(statusStr),
		CurrentStage:    currentStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		ResultJSON:      resultJSON.String,
		ErrorStage:      errorStage.String,
		ErrorKind:       errorKind.String,
		ErrorMessage:    errorMessage.String,
	}
	if cancelRequested.Valid {
		job.CancelRequested = cancelRequested.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			job.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
