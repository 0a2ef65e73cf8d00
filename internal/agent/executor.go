package agent

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/bioroute/internal/observe"
	"github.com/MrWong99/bioroute/internal/registry"
)

// Executor runs the tool invocations of a [Decision] against the registry.
//
// Invocations are dispatched concurrently, one goroutine per request (the
// fan-out is bounded by the request count, which routing keeps small). Each
// invocation is isolated: the registry client captures every failure in the
// result's Error field, so one broken tool never aborts its siblings.
//
// Safe for concurrent use.
type Executor struct {
	reg     registry.Client
	metrics *observe.Metrics
}

// ExecutorOption configures an [Executor] during construction.
type ExecutorOption func(*Executor)

// WithExecutorMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithExecutorMetrics(m *observe.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an Executor backed by the given registry client.
func NewExecutor(reg registry.Client, opts ...ExecutorOption) *Executor {
	e := &Executor{reg: reg}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Execute invokes every request and returns one result per request,
// order-preserving: result i corresponds to request i regardless of which
// invocation completes first.
//
// An empty request list returns an empty slice immediately without
// contacting the registry. The returned slice is never nil.
func (e *Executor) Execute(ctx context.Context, requests []ToolRequest) []registry.ToolResult {
	results := make([]registry.ToolResult, len(requests))
	if len(requests) == 0 {
		return results
	}

	ctx, span := observe.StartSpan(ctx, "executor.execute")
	defer span.End()

	// errgroup for structured fan-out only: Invoke never returns a Go error,
	// so the group can never fail and sibling calls are never cancelled.
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			start := time.Now()
			res := e.reg.Invoke(gctx, req.Name, req.Arguments)
			results[i] = res

			status := "success"
			if res.Error != nil {
				status = string(res.Error.Kind)
				observe.Logger(gctx).Warn("tool invocation failed",
					"tool", req.Name,
					"kind", res.Error.Kind,
					"error", res.Error.Message,
				)
			}
			e.metrics.RecordToolInvocation(gctx, req.Name, status, time.Since(start).Seconds())
			return nil
		})
	}
	_ = g.Wait()

	return results
}
