// Package mcpclient implements the [registry.Client] interface on top of the
// official MCP Go SDK (github.com/modelcontextprotocol/go-sdk).
//
// It connects to the biotools registry via the MCP Streamable HTTP transport,
// caches the tool catalogue after the first successful listing, and converts
// every transport, protocol, and remote-side failure into an error-tagged
// [registry.ToolResult] so that callers never observe a raised error from an
// invocation.
//
// The connection is established lazily on first use. This keeps agent startup
// independent of registry availability: a registry that is down at boot (or
// goes down later) degrades to connection-error tool results, which the
// reasoner can still reason over.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/bioroute/internal/registry"
)

// defaultCallTimeout bounds a single tool invocation when no explicit
// timeout is configured.
const defaultCallTimeout = 30 * time.Second

// Client is a concrete implementation of [registry.Client].
//
// The zero value is NOT usable; create instances with [New].
type Client struct {
	endpoint    string
	callTimeout time.Duration

	// client is reused across reconnects. The official SDK allows a single
	// Client to manage multiple sessions.
	client *mcpsdk.Client

	mu      sync.Mutex
	session *mcpsdk.ClientSession

	catMu   sync.RWMutex
	catalog []registry.ToolDescriptor
	byName  map[string]registry.ToolDescriptor
}

// Compile-time check: Client must implement registry.Client.
var _ registry.Client = (*Client)(nil)

// Option is a functional option for Client.
type Option func(*Client)

// WithCallTimeout sets the per-invocation deadline applied by Invoke when the
// caller's context carries no earlier deadline. The default is 30 seconds.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// New creates a Client for the MCP registry at endpoint
// (e.g. "http://localhost:9000/mcp"). No connection is made until the first
// ListTools or Invoke call.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("mcpclient: endpoint must not be empty")
	}

	c := &Client{
		endpoint:    endpoint,
		callTimeout: defaultCallTimeout,
		client: mcpsdk.NewClient(
			&mcpsdk.Implementation{Name: "bioroute", Version: "1.0.0"},
			nil,
		),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ensureSession returns a live session, connecting on first use and
// reconnecting after a dropped connection.
func (c *Client) ensureSession(ctx context.Context) (*mcpsdk.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	session, err := c.client.Connect(ctx, &mcpsdk.StreamableClientTransport{Endpoint: c.endpoint}, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: connect to %q: %w", c.endpoint, err)
	}
	c.session = session
	return session, nil
}

// dropSession discards the current session so the next call reconnects.
func (c *Client) dropSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		_ = c.session.Close()
		c.session = nil
	}
}

// ListTools implements [registry.Client]. The catalogue is fetched on the
// first call and cached; subsequent calls return the cached copy.
func (c *Client) ListTools(ctx context.Context) ([]registry.ToolDescriptor, error) {
	c.catMu.RLock()
	if c.catalog != nil {
		cached := c.catalog
		c.catMu.RUnlock()
		return cached, nil
	}
	c.catMu.RUnlock()

	return c.fetchCatalog(ctx)
}

// Refresh implements [registry.Client].
func (c *Client) Refresh(ctx context.Context) error {
	c.catMu.Lock()
	c.catalog = nil
	c.byName = nil
	c.catMu.Unlock()

	_, err := c.fetchCatalog(ctx)
	return err
}

// fetchCatalog lists tools from the registry and stores the result.
func (c *Client) fetchCatalog(ctx context.Context) ([]registry.ToolDescriptor, error) {
	session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	var descriptors []registry.ToolDescriptor
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			c.dropSession()
			return nil, fmt.Errorf("mcpclient: list tools: %w", err)
		}
		descriptors = append(descriptors, registry.ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schemaToMap(tool.InputSchema),
		})
	}

	byName := make(map[string]registry.ToolDescriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}

	c.catMu.Lock()
	c.catalog = descriptors
	c.byName = byName
	c.catMu.Unlock()

	return descriptors, nil
}

// Invoke implements [registry.Client]. All failure modes are captured in the
// returned result's Error field; Invoke never panics or returns a Go error.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]any) registry.ToolResult {
	res := registry.ToolResult{Name: name, Arguments: args}

	// Reject unknown tool names before any network I/O. Only possible when a
	// catalogue has been fetched; without one the call proceeds and surfaces
	// whatever the registry says.
	c.catMu.RLock()
	if c.byName != nil {
		if _, ok := c.byName[name]; !ok {
			c.catMu.RUnlock()
			res.Error = &registry.ToolError{
				Kind:    registry.KindNotFound,
				Message: fmt.Sprintf("tool %q not found in registry catalogue", name),
			}
			return res
		}
	}
	c.catMu.RUnlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	session, err := c.ensureSession(ctx)
	if err != nil {
		res.Error = &registry.ToolError{Kind: registry.KindConnection, Message: err.Error()}
		return res
	}

	callResult, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		kind := classify(err)
		if kind == registry.KindConnection {
			c.dropSession()
		}
		res.Error = &registry.ToolError{Kind: kind, Message: err.Error()}
		return res
	}

	if callResult.IsError {
		res.Error = &registry.ToolError{
			Kind:    registry.KindTool,
			Message: textContent(callResult),
		}
		return res
	}

	payload, err := extractPayload(callResult)
	if err != nil {
		res.Error = &registry.ToolError{Kind: registry.KindProtocol, Message: err.Error()}
		return res
	}
	res.Result = payload
	return res
}

// Close implements [registry.Client].
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	if err != nil {
		return fmt.Errorf("mcpclient: close session: %w", err)
	}
	return nil
}

// classify maps an invocation error to a [registry.ErrorKind]. Transport-level
// failures (unreachable host, timeout, dropped connection) are connection
// errors; everything else came from the protocol layer.
func classify(err error) registry.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return registry.KindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return registry.KindConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return registry.KindConnection
	}
	msg := err.Error()
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return registry.KindConnection
	}
	return registry.KindProtocol
}

// extractPayload converts a successful call result into a JSON payload.
// Structured content is preferred; otherwise the concatenated text content is
// used — verbatim when it is itself valid JSON, JSON-quoted when it is not.
func extractPayload(res *mcpsdk.CallToolResult) (json.RawMessage, error) {
	if res.StructuredContent != nil {
		data, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: marshal structured content: %w", err)
		}
		return data, nil
	}

	text := textContent(res)
	if json.Valid([]byte(text)) && strings.TrimSpace(text) != "" {
		return json.RawMessage(text), nil
	}
	data, err := json.Marshal(text)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: marshal text content: %w", err)
	}
	return data, nil
}

// textContent concatenates all text blocks of a call result.
func textContent(res *mcpsdk.CallToolResult) string {
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// schemaToMap converts any schema value to a map[string]any.
func schemaToMap(schema any) map[string]any {
	if schema == nil {
		return map[string]any{"type": "object"}
	}
	if m, ok := schema.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	return m
}
