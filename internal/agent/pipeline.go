package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/bioroute/internal/observe"
	"github.com/MrWong99/bioroute/internal/registry"
)

// Pipeline ties the three stages together and processes one prompt into an
// [Envelope]. The per-request state machine is strictly linear with one
// optional branch:
//
//	Received → Routing → (needs tools? → Executing →) Reasoning → Responding
//
// Fatal failures in Routing or Reasoning abort the request; failures of
// individual tool invocations during Executing never do — they are captured
// as error-tagged results and the request proceeds to Reasoning regardless.
//
// Safe for concurrent use; every request is handled independently and no
// mutable state crosses requests.
type Pipeline struct {
	router   *Router
	executor *Executor
	reasoner *Reasoner
	metrics  *observe.Metrics
}

// PipelineOption configures a [Pipeline] during construction.
type PipelineOption func(*Pipeline)

// WithPipelineMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithPipelineMetrics(m *observe.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline assembles a Pipeline from its three stages.
func NewPipeline(router *Router, executor *Executor, reasoner *Reasoner, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		router:   router,
		executor: executor,
		reasoner: reasoner,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Process runs the full pipeline for one prompt and returns a success
// Envelope.
//
// Returns [ErrEmptyPrompt] when the prompt is empty after trimming (before
// any external call is made), a [*RoutingError] or [*ReasoningError] on a
// fatal model-stage failure. Per-tool failures never produce an error; they
// are carried inside the Envelope's tool results.
func (p *Pipeline) Process(ctx context.Context, prompt string) (*Envelope, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	ctx, span := observe.StartSpan(ctx, "pipeline.process")
	defer span.End()
	start := time.Now()

	requestID := uuid.NewString()
	log := observe.Logger(ctx).With("request_id", requestID)
	log.Info("processing prompt", "prompt_length", len(prompt))

	decision, err := p.router.Route(ctx, prompt)
	if err != nil {
		p.finish(ctx, start, "error")
		return nil, err
	}

	// The executor is only consulted when the decision calls for tools; a
	// needs_tools=false decision must not touch the registry at all.
	toolResults := make([]registry.ToolResult, 0)
	if decision.NeedsTools {
		toolResults = p.executor.Execute(ctx, decision.RequiredTools)
	}

	response, err := p.reasoner.Reason(ctx, prompt, decision, toolResults)
	if err != nil {
		p.finish(ctx, start, "error")
		return nil, err
	}

	p.finish(ctx, start, "success")
	log.Info("prompt processed",
		"needs_tools", decision.NeedsTools,
		"tool_results", len(toolResults),
		"duration", time.Since(start),
	)

	return &Envelope{
		Status:      StatusSuccess,
		RequestID:   requestID,
		Prompt:      prompt,
		Decision:    decision,
		ToolResults: toolResults,
		Response:    response,
	}, nil
}

// finish records the terminal pipeline metrics for one request.
func (p *Pipeline) finish(ctx context.Context, start time.Time, status string) {
	p.metrics.PipelineRequests.Add(ctx, 1, observe.AttrSet("status", status))
	p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())
}
