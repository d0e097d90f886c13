// Package stage defines the contract between the workflow engine and the
// pipeline stages that process a scan.
package stage

import (
	"context"

	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
)

// Handler is one pipeline stage. Execute mutates the state in place; a
// returned error routes the run to the error handling stage. Handlers must
// honor context cancellation on anything long running.
type Handler interface {
	Name() string
	Execute(context.Context, *scan.State) error
	HealthCheck(context.Context) Health
}

// Func adapts a bare function into a Handler with an always-ready health
// check. Used by tests and small inline stages.
type Func struct {
	StageName string
	Run       func(context.Context, *scan.State) error
}

func (f Func) Name() string { return f.StageName }

func (f Func) Execute(ctx context.Context, state *scan.State) error {
	if f.Run == nil {
		return nil
	}
	return f.Run(ctx, state)
}

func (f Func) HealthCheck(context.Context) Health { return Healthy(f.StageName) }
