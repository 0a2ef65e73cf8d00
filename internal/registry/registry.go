// Package registry defines the interface for the remote tool registry.
//
// The registry is the catalogue + invocation boundary for the biological
// computation tools exposed by the biotools MCP server. A [Client] discovers
// the catalogue once (cached for the process lifetime, refreshable on
// demand) and invokes tools by name with a mapping of arguments.
//
// The central contract is that [Client.Invoke] never fails with a Go error:
// every failure mode — unknown tool, unreachable registry, malformed remote
// payload, application-level tool error — is captured in the returned
// [ToolResult]'s Error field. This keeps per-tool failures isolated inside
// the data model so that one broken tool can never abort a request.
//
// All methods must be safe for concurrent use.
package registry

import (
	"context"
	"encoding/json"
)

// ErrorKind classifies a captured tool invocation failure.
type ErrorKind string

const (
	// KindNotFound means the requested tool name is absent from the catalogue.
	// Detected before any network I/O.
	KindNotFound ErrorKind = "tool_not_found"

	// KindConnection means the registry could not be reached or the call
	// timed out.
	KindConnection ErrorKind = "connection_error"

	// KindProtocol means the registry responded but the exchange failed at
	// the protocol layer (malformed payload, rejected request).
	KindProtocol ErrorKind = "protocol_error"

	// KindTool means the remote tool executed and reported an
	// application-level error.
	KindTool ErrorKind = "tool_error"
)

// ToolDescriptor describes one entry of the registry catalogue.
type ToolDescriptor struct {
	// Name is the tool's unique identifier within the registry.
	Name string `json:"name"`

	// Description explains what the tool computes. Included verbatim in the
	// router's system prompt.
	Description string `json:"description"`

	// InputSchema is the JSON Schema for the tool's arguments.
	InputSchema map[string]any `json:"schema"`
}

// ToolError is a captured invocation failure.
type ToolError struct {
	// Kind classifies the failure.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable failure description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ToolResult holds the outcome of a single tool invocation. Exactly one of
// Result and Error is set.
type ToolResult struct {
	// Name is the invoked tool's name, echoed back for traceability.
	Name string `json:"tool_name"`

	// Arguments are the invocation arguments, echoed back for traceability.
	Arguments map[string]any `json:"arguments"`

	// Result is the structured payload returned by the tool. Nil when the
	// invocation failed.
	Result json.RawMessage `json:"result,omitempty"`

	// Error is the captured failure. Nil when the invocation succeeded.
	Error *ToolError `json:"error,omitempty"`
}

// Client is the boundary to the remote tool registry.
//
// Implementations must be safe for concurrent use.
type Client interface {
	// ListTools returns the registry catalogue. The catalogue is fetched once
	// and cached for the process lifetime; use Refresh to force a re-fetch.
	//
	// Returns an error when the registry is unreachable and no cached
	// catalogue exists yet.
	ListTools(ctx context.Context) ([]ToolDescriptor, error)

	// Refresh discards the cached catalogue and fetches it again. The current
	// biotools catalogue is static, but the interface allows registries whose
	// catalogue changes at runtime.
	Refresh(ctx context.Context) error

	// Invoke calls the named tool with the given arguments and returns its
	// result. Invoke never returns a Go error: transport failures, timeouts,
	// protocol errors, unknown tool names, and remote-side errors are all
	// captured in the returned ToolResult's Error field.
	Invoke(ctx context.Context, name string, args map[string]any) ToolResult

	// Close releases the connection to the registry. After Close returns the
	// Client must not be used again.
	Close() error
}
