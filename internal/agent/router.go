package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/bioroute/internal/observe"
	"github.com/MrWong99/bioroute/internal/registry"
	"github.com/MrWong99/bioroute/pkg/provider/llm"
	"github.com/MrWong99/bioroute/pkg/types"
)

// defaultRouterTemperature keeps the routing call near-deterministic; the
// Decision contract leaves no room for creative variance.
const defaultRouterTemperature = 0.1

// defaultCallTimeout bounds a single model call (router or reasoner) when no
// explicit timeout is configured. Exceeding it fails the call, it never hangs
// the request.
const defaultCallTimeout = 60 * time.Second

// Router performs the first model call of the pipeline: it asks the language
// model whether tools are needed for a prompt and validates the structured
// [Decision] it returns.
//
// Routing is a pure decision step. The Router never executes tools; that is
// the [Executor]'s job.
//
// Safe for concurrent use.
type Router struct {
	provider    llm.Provider
	reg         registry.Client
	metrics     *observe.Metrics
	validator   *argValidator
	temperature float64
	callTimeout time.Duration
}

// RouterOption configures a [Router] during construction.
type RouterOption func(*Router)

// WithRouterMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithRouterMetrics(m *observe.Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// WithRouterTemperature overrides the sampling temperature for the routing
// call.
func WithRouterTemperature(t float64) RouterOption {
	return func(r *Router) { r.temperature = t }
}

// WithRouterCallTimeout overrides the per-call deadline applied to each
// routing model call. The default is 60 seconds.
func WithRouterCallTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// NewRouter creates a Router backed by the given model provider and tool
// registry.
func NewRouter(provider llm.Provider, reg registry.Client, opts ...RouterOption) *Router {
	r := &Router{
		provider:    provider,
		reg:         reg,
		validator:   newArgValidator(),
		temperature: defaultRouterTemperature,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// Route asks the language model whether the prompt needs tools and which
// ones, and returns the validated Decision.
//
// The model output must be a single JSON object of the Decision shape. On a
// parse failure Route re-asks exactly once with a corrective instruction;
// if the second output is still invalid, or the provider itself fails,
// Route returns a [*RoutingError].
//
// Tool requests naming tools absent from the catalogue, or carrying
// arguments that violate the tool's input schema, are dropped with a
// recorded warning rather than failing the route, so a partially correct
// model output still yields partial progress. When the catalogue itself
// cannot be fetched, validation is skipped and all requests pass through;
// the executor captures the resulting per-call failures.
func (r *Router) Route(ctx context.Context, prompt string) (*Decision, error) {
	ctx, span := observe.StartSpan(ctx, "router.route")
	defer span.End()
	log := observe.Logger(ctx)
	start := time.Now()

	// The catalogue is rendered into the system prompt and used to validate
	// the model's tool requests. Fetch failure is non-fatal here: the model
	// can still decide no tools are needed, and requests for unreachable
	// tools surface as error-tagged results later.
	catalog, err := r.reg.ListTools(ctx)
	if err != nil {
		log.Warn("tool catalogue unavailable, routing without tool validation", "error", err)
		catalog = nil
	}

	messages := []types.Message{{Role: "user", Content: prompt}}
	decision, err := r.completeDecision(ctx, routerSystemPrompt(catalog), messages)
	if err != nil {
		r.metrics.RecordLLMRequest(ctx, "router", "error")
		r.metrics.RouterDuration.Record(ctx, time.Since(start).Seconds())
		return nil, err
	}

	r.validateDecision(ctx, decision, catalog)

	r.metrics.RecordLLMRequest(ctx, "router", "success")
	r.metrics.RouterDuration.Record(ctx, time.Since(start).Seconds())
	log.Info("routing decision",
		"needs_tools", decision.NeedsTools,
		"requested_tools", len(decision.RequiredTools),
	)
	return decision, nil
}

// completeDecision performs the model call and parses its output, with one
// corrective re-ask on parse failure. Each call carries its own deadline.
func (r *Router) completeDecision(ctx context.Context, system string, messages []types.Message) (*Decision, error) {
	resp, err := r.complete(ctx, llm.CompletionRequest{
		Messages:     messages,
		SystemPrompt: system,
		Temperature:  r.temperature,
	})
	if err != nil {
		return nil, &RoutingError{Cause: fmt.Errorf("routing model call: %w", err)}
	}

	decision, parseErr := parseDecision(resp.Content)
	if parseErr == nil {
		return decision, nil
	}
	observe.Logger(ctx).Warn("routing output failed to parse, re-asking once", "error", parseErr)

	// One corrective re-ask: include the invalid output so the model can see
	// what it got wrong.
	retryMessages := append(append([]types.Message{}, messages...),
		types.Message{Role: "assistant", Content: resp.Content},
		types.Message{Role: "user", Content: correctiveInstruction},
	)
	resp, err = r.complete(ctx, llm.CompletionRequest{
		Messages:     retryMessages,
		SystemPrompt: system,
		Temperature:  r.temperature,
	})
	if err != nil {
		return nil, &RoutingError{Cause: fmt.Errorf("routing model retry call: %w", err)}
	}

	decision, parseErr = parseDecision(resp.Content)
	if parseErr != nil {
		return nil, &RoutingError{
			Cause:     fmt.Errorf("routing output invalid after corrective re-ask: %w", parseErr),
			RawOutput: resp.Content,
		}
	}
	return decision, nil
}

// complete issues one bounded model call.
func (r *Router) complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.provider.Complete(ctx, req)
}

// parseDecision converts raw model output into a Decision.
func parseDecision(content string) (*Decision, error) {
	var d Decision
	if err := decodeStrict(extractJSON(content), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// validateDecision enforces the Decision invariants in place:
//
//   - NeedsTools is authoritative: a false flag clears any requested tools.
//   - Tool names absent from the catalogue are dropped with a warning.
//   - Arguments violating the tool's declared input schema are dropped with
//     a warning.
//
// With a nil catalogue (fetch failure) name and argument validation is
// skipped entirely.
func (r *Router) validateDecision(ctx context.Context, d *Decision, catalog []registry.ToolDescriptor) {
	log := observe.Logger(ctx)

	if !d.NeedsTools {
		if len(d.RequiredTools) > 0 {
			log.Warn("model requested tools despite needs_tools=false, ignoring them",
				"dropped", len(d.RequiredTools))
			r.metrics.DroppedToolRequests.Add(ctx, int64(len(d.RequiredTools)),
				observe.AttrSet("reason", "needs_tools_false"))
		}
		d.RequiredTools = nil
		return
	}

	if catalog == nil {
		return
	}

	byName := make(map[string]registry.ToolDescriptor, len(catalog))
	for _, td := range catalog {
		byName[td.Name] = td
	}

	kept := d.RequiredTools[:0]
	for _, req := range d.RequiredTools {
		td, ok := byName[req.Name]
		if !ok {
			log.Warn("dropping request for unknown tool", "tool", req.Name)
			r.metrics.DroppedToolRequests.Add(ctx, 1, observe.AttrSet("reason", "unknown_tool"))
			continue
		}
		if err := r.validator.validate(td, req.Arguments); err != nil {
			log.Warn("dropping tool request with invalid arguments", "tool", req.Name, "error", err)
			r.metrics.DroppedToolRequests.Add(ctx, 1, observe.AttrSet("reason", "invalid_arguments"))
			continue
		}
		kept = append(kept, req)
	}
	d.RequiredTools = kept
}
