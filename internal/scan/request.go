package scan

import (
	"strings"

	"github.com/aidino/aicode-reviewer-sub001/internal/services"
)

// Type discriminates the two pipeline paths a scan can take.
type Type string

const (
	// TypePR analyzes a pull request diff against a base branch.
	TypePR Type = "pr"
	// TypeProject analyzes an entire repository.
	TypeProject Type = "project"
)

// ParseType converts a string into a known scan type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TypePR, TypeProject:
		return normalized, true
	}
	return "", false
}

// Request describes a scan submission before a job exists for it.
type Request struct {
	ScanType   Type
	Repository string
	PRID       int64
	Branch     string
}

// Validate checks the request for the fields each scan type requires.
func (r Request) Validate() error {
	if _, ok := ParseType(string(r.ScanType)); !ok {
		return services.Wrap(services.ErrValidation, "", "validate request", "scan type must be pr or project", nil)
	}
	if strings.TrimSpace(r.Repository) == "" {
		return services.Wrap(services.ErrValidation, "", "validate request", "repository must be set", nil)
	}
	if r.ScanType == TypePR && r.PRID <= 0 {
		return services.Wrap(services.ErrValidation, "", "validate request", "pr scans require a positive pr id", nil)
	}
	return nil
}
