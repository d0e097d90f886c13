package queue

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape. There is no
// migration path: job rows are transient scan bookkeeping, so a mismatch
// asks the operator to clear or delete the database instead.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// release of this tool.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the schema on a fresh database and verifies the
// recorded version on an existing one.
func (s *Store) initSchema(ctx context.Context) error {
	version, initialized, err := s.recordedVersion(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return s.createSchema(ctx)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'aicode jobs clear --all' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// recordedVersion reads the schema version stamp. The second return is
// false when the schema_version table is absent, meaning a fresh database.
func (s *Store) recordedVersion(ctx context.Context) (int, bool, error) {
	var tables int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tables)
	if err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	if tables == 0 {
		return 0, false, nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, true, nil
}

// createSchema applies schema.sql and stamps the version in one
// transaction so a crash mid-create leaves a recognizably fresh database.
func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
