package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrWong99/bioroute/internal/observe"
	"github.com/MrWong99/bioroute/internal/registry"
	"github.com/MrWong99/bioroute/pkg/provider/llm"
	"github.com/MrWong99/bioroute/pkg/types"
)

// defaultReasonerTemperature allows slightly more variance than routing;
// the synthesis step benefits from natural phrasing.
const defaultReasonerTemperature = 0.3

// Reasoner performs the second model call of the pipeline: it synthesises a
// final answer from the original prompt and the aggregated tool results.
//
// Tool results are passed to the model verbatim, error fields included, so
// it can reason about partial tool failure instead of treating failed tools
// as absent data.
//
// Safe for concurrent use.
type Reasoner struct {
	provider    llm.Provider
	metrics     *observe.Metrics
	temperature float64
	callTimeout time.Duration
}

// ReasonerOption configures a [Reasoner] during construction.
type ReasonerOption func(*Reasoner)

// WithReasonerMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithReasonerMetrics(m *observe.Metrics) ReasonerOption {
	return func(r *Reasoner) { r.metrics = m }
}

// WithReasonerTemperature overrides the sampling temperature for the
// reasoning call.
func WithReasonerTemperature(t float64) ReasonerOption {
	return func(r *Reasoner) { r.temperature = t }
}

// WithReasonerCallTimeout overrides the per-call deadline applied to each
// reasoning model call. The default is 60 seconds.
func WithReasonerCallTimeout(d time.Duration) ReasonerOption {
	return func(r *Reasoner) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// NewReasoner creates a Reasoner backed by the given model provider.
func NewReasoner(provider llm.Provider, opts ...ReasonerOption) *Reasoner {
	r := &Reasoner{
		provider:    provider,
		temperature: defaultReasonerTemperature,
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

// Reason asks the language model to synthesise a final answer from the
// prompt, the routing decision, and the tool results.
//
// The model output must be a single JSON object of the ReasonedResponse
// shape. On a parse failure Reason re-asks exactly once with a corrective
// instruction; if the second output is still invalid, or the provider
// itself fails, Reason returns a [*ReasoningError].
func (r *Reasoner) Reason(ctx context.Context, prompt string, decision *Decision, results []registry.ToolResult) (*ReasonedResponse, error) {
	ctx, span := observe.StartSpan(ctx, "reasoner.reason")
	defer span.End()
	start := time.Now()

	messages := []types.Message{{
		Role:    "user",
		Content: reasonerUserPrompt(prompt, decision, results),
	}}

	response, err := r.completeResponse(ctx, messages)
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordLLMRequest(ctx, "reasoner", status)
	r.metrics.ReasonerDuration.Record(ctx, time.Since(start).Seconds())
	return response, err
}

// completeResponse performs the model call and parses its output, with one
// corrective re-ask on parse failure.
func (r *Reasoner) completeResponse(ctx context.Context, messages []types.Message) (*ReasonedResponse, error) {
	resp, err := r.complete(ctx, llm.CompletionRequest{
		Messages:     messages,
		SystemPrompt: reasonerSystemPrompt,
		Temperature:  r.temperature,
	})
	if err != nil {
		return nil, &ReasoningError{Cause: fmt.Errorf("reasoning model call: %w", err)}
	}

	response, parseErr := parseReasonedResponse(resp.Content)
	if parseErr == nil {
		return response, nil
	}
	observe.Logger(ctx).Warn("reasoning output failed to parse, re-asking once", "error", parseErr)

	retryMessages := append(append([]types.Message{}, messages...),
		types.Message{Role: "assistant", Content: resp.Content},
		types.Message{Role: "user", Content: correctiveInstruction},
	)
	resp, err = r.complete(ctx, llm.CompletionRequest{
		Messages:     retryMessages,
		SystemPrompt: reasonerSystemPrompt,
		Temperature:  r.temperature,
	})
	if err != nil {
		return nil, &ReasoningError{Cause: fmt.Errorf("reasoning model retry call: %w", err)}
	}

	response, parseErr = parseReasonedResponse(resp.Content)
	if parseErr != nil {
		return nil, &ReasoningError{
			Cause:     fmt.Errorf("reasoning output invalid after corrective re-ask: %w", parseErr),
			RawOutput: resp.Content,
		}
	}
	return response, nil
}

// complete issues one bounded model call.
func (r *Reasoner) complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.provider.Complete(ctx, req)
}

// parseReasonedResponse converts raw model output into a ReasonedResponse.
// Both contract fields must be present; a missing "result" key is a parse
// failure even when the rest of the object is valid JSON.
func parseReasonedResponse(content string) (*ReasonedResponse, error) {
	var resp ReasonedResponse
	if err := decodeStrict(extractJSON(content), &resp); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, errors.New("missing required field \"result\"")
	}
	return &resp, nil
}
