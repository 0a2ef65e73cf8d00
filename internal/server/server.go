// Package server exposes the routing pipeline over HTTP.
//
// Routes:
//
//   - POST /prompt  — run the full pipeline for one prompt, returns the Envelope.
//   - GET  /tools   — the tool registry's current catalogue.
//   - GET  /health  — liveness probe.
//   - GET  /readyz  — readiness probe.
//   - GET  /metrics — Prometheus scrape endpoint.
//
// All routes except /metrics run behind [observe.Middleware], which handles
// tracing, correlation IDs, and request metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/bioroute/internal/agent"
	"github.com/MrWong99/bioroute/internal/health"
	"github.com/MrWong99/bioroute/internal/observe"
	"github.com/MrWong99/bioroute/internal/registry"
)

// readHeaderTimeout bounds slow-header attacks; the pipeline itself may run
// for much longer than this, so no global write timeout is set.
const readHeaderTimeout = 10 * time.Second

// maxPromptBody caps the request body size for POST /prompt.
const maxPromptBody = 1 << 20 // 1 MiB

// PromptProcessor runs the full pipeline for one prompt. Implemented by
// [agent.Pipeline]; tests substitute a stub.
type PromptProcessor interface {
	Process(ctx context.Context, prompt string) (*agent.Envelope, error)
}

// Server is the HTTP front-end of bioroute.
type Server struct {
	pipeline PromptProcessor
	reg      registry.Client
	health   *health.Handler
	metrics  *observe.Metrics

	httpServer *http.Server
}

// Option configures a [Server] during construction.
type Option func(*Server)

// WithHealthHandler sets the health handler. Defaults to a handler with no
// readiness checkers.
func WithHealthHandler(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server listening on addr once [Server.Start] is called.
func New(addr string, pipeline PromptProcessor, reg registry.Client, opts ...Option) *Server {
	s := &Server{
		pipeline: pipeline,
		reg:      reg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.New()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler builds the full route tree. Exposed for httptest-based tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /prompt", s.handlePrompt)
	mux.HandleFunc("GET /tools", s.handleTools)
	s.health.Register(mux)

	wrapped := observe.Middleware(s.metrics)(mux)

	// /metrics bypasses the middleware so scrapes do not pollute request
	// metrics and traces.
	outer := http.NewServeMux()
	outer.Handle("GET /metrics", promhttp.Handler())
	outer.Handle("/", wrapped)
	return outer
}

// Start begins serving. It blocks until the server stops; a clean shutdown
// returns nil.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, waiting for in-flight requests up
// to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// promptRequest is the POST /prompt request body.
type promptRequest struct {
	Prompt string `json:"prompt"`
}

// errorEnvelope is the body returned for fatal pipeline failures.
type errorEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// handlePrompt runs the pipeline and writes the resulting Envelope.
//
// Status mapping: invalid body or empty prompt → 400; fatal routing or
// reasoning failure → 502 (the upstream model is the broken dependency);
// anything else unexpected → 500. Per-tool failures never affect the
// status — they ride inside a 200 Envelope.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	body := http.MaxBytesReader(w, r.Body, maxPromptBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Status: agent.StatusError,
			Error:  "missing or malformed prompt in request body",
		})
		return
	}

	env, err := s.pipeline.Process(r.Context(), req.Prompt)
	if err != nil {
		s.writePipelineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// writePipelineError maps a fatal pipeline error to an HTTP status and an
// error envelope.
func (s *Server) writePipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var routingErr *agent.RoutingError
	var reasoningErr *agent.ReasoningError
	switch {
	case errors.Is(err, agent.ErrEmptyPrompt):
		status = http.StatusBadRequest
	case errors.As(err, &routingErr), errors.As(err, &reasoningErr):
		status = http.StatusBadGateway
	}

	observe.Logger(ctx).Error("prompt processing failed", "status", status, "error", err)
	writeJSON(w, status, errorEnvelope{
		Status: agent.StatusError,
		Error:  err.Error(),
	})
}

// toolsResponse is the GET /tools response body.
type toolsResponse struct {
	Status string                    `json:"status"`
	Tools  []registry.ToolDescriptor `json:"tools"`
	Count  int                       `json:"count"`
}

// handleTools returns the registry catalogue.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.reg.ListTools(r.Context())
	if err != nil {
		observe.Logger(r.Context()).Error("listing tools failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{
			Status: agent.StatusError,
			Error:  "failed to retrieve tools",
		})
		return
	}
	writeJSON(w, http.StatusOK, toolsResponse{
		Status: agent.StatusSuccess,
		Tools:  tools,
		Count:  len(tools),
	})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
