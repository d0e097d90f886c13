package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrInternal      = errors.New("internal error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later kind classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Failure kind tags surfaced in job error details and logs.
const (
	KindTimeout       = "timeout"
	KindValidation    = "validation"
	KindConfiguration = "configuration"
	KindNotFound      = "not_found"
	KindExternal      = "external"
	KindTransient     = "transient"
	KindInternal      = "internal"
	KindInterrupted   = "interrupted"
	KindError         = "error"
)

// FailureKind classifies a stage error into the kind tag recorded on the job.
// Context deadline expiry maps to the timeout kind even when a stage returns
// the raw context error instead of wrapping it.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindInterrupted
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExternalTool):
		return KindExternal
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrInternal):
		return KindInternal
	default:
		return KindError
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
