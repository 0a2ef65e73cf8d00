// Package mock provides an in-memory test double for the [registry.Client]
// interface.
//
// [Client] records every method call for assertion in tests and exposes
// exported fields that control what the mock returns. It is safe for
// concurrent use via an internal [sync.Mutex].
//
// Typical usage:
//
//	c := &mock.Client{}
//	c.ListToolsResult = []registry.ToolDescriptor{{Name: "molecular_properties"}}
//	c.InvokeResults = map[string]registry.ToolResult{
//	    "molecular_properties": {Result: json.RawMessage(`{"logP":2.1}`)},
//	}
//
//	// inject c into the system under test …
//
//	if got := c.CallCount("Invoke"); got != 1 {
//	    t.Errorf("expected 1 Invoke call, got %d", got)
//	}
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrWong99/bioroute/internal/registry"
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// Client is a configurable test double for [registry.Client].
// All exported *Err fields default to nil (success); all exported *Result
// fields default to nil / zero values.
type Client struct {
	mu sync.Mutex

	// calls records every method invocation in order.
	calls []Call

	// ──── ListTools ────────────────────────────────────────────────────────

	// ListToolsResult is returned by [Client.ListTools].
	// When nil, ListTools returns an empty non-nil slice.
	ListToolsResult []registry.ToolDescriptor

	// ListToolsErr is returned by [Client.ListTools] when non-nil.
	ListToolsErr error

	// ──── Refresh ──────────────────────────────────────────────────────────

	// RefreshErr is returned by [Client.Refresh] when non-nil.
	RefreshErr error

	// ──── Invoke ───────────────────────────────────────────────────────────

	// InvokeResults maps tool names to the result returned by [Client.Invoke].
	// Tools absent from the map yield a tool_not_found error result, matching
	// the real client's behaviour for unknown names.
	InvokeResults map[string]registry.ToolResult

	// InvokeDelay, when non-nil, is called before each Invoke returns. Use it
	// to stagger completion order in concurrency tests.
	InvokeDelay func(name string)

	// ──── Close ────────────────────────────────────────────────────────────

	// CloseErr is returned by [Client.Close] when non-nil.
	CloseErr error
}

// Compile-time interface assertion.
var _ registry.Client = (*Client)(nil)

// ListTools implements [registry.Client].
func (c *Client) ListTools(_ context.Context) ([]registry.ToolDescriptor, error) {
	c.record("ListTools")
	if c.ListToolsErr != nil {
		return nil, c.ListToolsErr
	}
	if c.ListToolsResult == nil {
		return []registry.ToolDescriptor{}, nil
	}
	return c.ListToolsResult, nil
}

// Refresh implements [registry.Client].
func (c *Client) Refresh(_ context.Context) error {
	c.record("Refresh")
	return c.RefreshErr
}

// Invoke implements [registry.Client].
func (c *Client) Invoke(_ context.Context, name string, args map[string]any) registry.ToolResult {
	c.record("Invoke", name, args)

	if c.InvokeDelay != nil {
		c.InvokeDelay(name)
	}

	c.mu.Lock()
	res, ok := c.InvokeResults[name]
	c.mu.Unlock()

	if !ok {
		return registry.ToolResult{
			Name:      name,
			Arguments: args,
			Error: &registry.ToolError{
				Kind:    registry.KindNotFound,
				Message: fmt.Sprintf("tool %q not found", name),
			},
		}
	}
	res.Name = name
	res.Arguments = args
	return res
}

// Close implements [registry.Client].
func (c *Client) Close() error {
	c.record("Close")
	return c.CloseErr
}

// record appends a call entry.
func (c *Client) record(method string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Method: method, Args: args})
}

// Calls returns a copy of all recorded calls in order.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (c *Client) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Method == method {
			n++
		}
	}
	return n
}
