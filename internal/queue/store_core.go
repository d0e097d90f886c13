package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
)

// Store manages job persistence backed by SQLite. One store serves the
// whole process; concurrent workers share it and rely on the busy-retry
// wrappers below instead of holding long transactions.
type Store struct {
	db   *sql.DB
	path string
}

// openPragmas are applied once per connection open. WAL keeps readers
// (Status/List) from blocking the worker that owns a job row, and the busy
// timeout absorbs short write collisions before the retry loop kicks in.
var openPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// Open initializes or connects to the job database at the configured path.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Paths.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, pragma := range openPragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: cfg.Paths.DBPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path backing the store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

const (
	busyRetryAttempts = 5
	busyRetryBaseWait = 10 * time.Millisecond
	busyRetryMaxWait  = 200 * time.Millisecond
)

// execWithRetry runs a write statement, retrying SQLITE_BUSY with a doubling
// backoff. Writes here are all single statements, so a retried statement
// never replays a partial transaction.
func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	wait := busyRetryBaseWait
	var (
		res sql.Result
		err error
	)
	for attempt := 1; ; attempt++ {
		res, err = s.db.ExecContext(ctx, query, args...)
		if err == nil {
			return res, nil
		}
		if attempt == busyRetryAttempts || !isBusy(err) {
			return nil, err
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if wait < busyRetryMaxWait {
			wait *= 2
		}
	}
}

// execWithoutResultRetry is execWithRetry for callers that ignore the
// rows-affected count.
func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	_, err := s.execWithRetry(ctx, query, args...)
	return err
}

// isBusy reports whether err is a SQLITE_BUSY style lock collision. The
// driver exposes a numeric code; the string checks cover wrapped errors
// that lose it.
func isBusy(err error) bool {
	const sqliteBusy = 5
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusy {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
