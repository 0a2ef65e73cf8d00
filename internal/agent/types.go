// Package agent implements the query routing and tool-orchestration core.
//
// A request moves through a strictly linear pipeline:
//
//	Prompt → Router → (if tools needed) Executor → Reasoner → Envelope
//
// The [Router] asks the language model whether auxiliary computation tools
// are needed and which ones, producing a validated [Decision]. The
// [Executor] invokes the requested tools against the registry with per-call
// error isolation. The [Reasoner] asks the model a second time to synthesise
// a final answer from the prompt and the aggregated tool results. The
// [Pipeline] ties the three stages together and wraps the outcome in an
// [Envelope].
//
// Routing and reasoning are deliberately two separate model calls: keeping
// "decide what data is needed" apart from "synthesise an answer from that
// data" lets tool execution run between them and keeps each call's output
// schema small and independently validatable.
package agent

import (
	"encoding/json"

	"github.com/MrWong99/bioroute/internal/registry"
)

// ToolRequest is one tool invocation requested by the routing model.
type ToolRequest struct {
	// Name must match an entry of the registry catalogue.
	Name string `json:"tool_name"`

	// Arguments is the parameter mapping forwarded to the tool verbatim. Its
	// shape is governed by the tool's declared input schema; the executor
	// never interprets argument semantics.
	Arguments map[string]any `json:"arguments"`
}

// Decision is the structured output of the routing model call.
//
// NeedsTools is authoritative: when it is false, RequiredTools is cleared
// during validation even if the model populated it.
type Decision struct {
	// NeedsTools reports whether the model considers tool invocations
	// necessary to answer the prompt.
	NeedsTools bool `json:"needs_tools"`

	// RequiredTools is the ordered list of tool invocations to perform.
	// Empty when NeedsTools is false.
	RequiredTools []ToolRequest `json:"required_tools"`

	// Reasoning is the model's free-text explanation of its decision.
	// Passthrough only, never parsed.
	Reasoning string `json:"reasoning"`
}

// ReasonedResponse is the structured output of the reasoning model call.
type ReasonedResponse struct {
	// Result is the main conclusion. Its shape depends on the query: a ranked
	// list, a single value, an object, or free text.
	Result json.RawMessage `json:"result"`

	// Rationale is a brief explanation of the key reasoning and evidence.
	Rationale string `json:"rationale"`
}

// Envelope is the full structured response returned to the caller of the
// prompt endpoint.
type Envelope struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// RequestID uniquely identifies this request for log correlation.
	RequestID string `json:"request_id"`

	// Prompt echoes the caller's input.
	Prompt string `json:"prompt"`

	// Decision is the validated routing output.
	Decision *Decision `json:"decision,omitempty"`

	// ToolResults is the ordered list of tool outcomes, one per executed
	// request. Empty when no tools were invoked.
	ToolResults []registry.ToolResult `json:"tool_results"`

	// Response is the reasoner's synthesised answer.
	Response *ReasonedResponse `json:"response,omitempty"`

	// Error is the failure description. Only set when Status is "error"; the
	// other payload fields are omitted in that case.
	Error string `json:"error,omitempty"`
}

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
