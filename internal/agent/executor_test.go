package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/MrWong99/bioroute/internal/registry"
	regmock "github.com/MrWong99/bioroute/internal/registry/mock"
)

func TestExecutor_EmptyRequestsSkipsRegistry(t *testing.T) {
	reg := &regmock.Client{}
	e := NewExecutor(reg, WithExecutorMetrics(testMetrics(t)))

	results := e.Execute(context.Background(), nil)
	if results == nil {
		t.Fatal("results = nil, want empty slice")
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
	if reg.CallCount("Invoke") != 0 {
		t.Errorf("Invoke calls = %d, want 0", reg.CallCount("Invoke"))
	}
}

func TestExecutor_PreservesRequestOrder(t *testing.T) {
	// The first request is delayed so it completes last; output order must
	// still match input order.
	reg := &regmock.Client{
		InvokeResults: map[string]registry.ToolResult{
			"slow_tool": {Result: json.RawMessage(`{"v":1}`)},
			"fast_tool": {Result: json.RawMessage(`{"v":2}`)},
		},
		InvokeDelay: func(name string) {
			if name == "slow_tool" {
				time.Sleep(30 * time.Millisecond)
			}
		},
	}
	e := NewExecutor(reg, WithExecutorMetrics(testMetrics(t)))

	requests := []ToolRequest{
		{Name: "slow_tool", Arguments: map[string]any{"a": 1}},
		{Name: "fast_tool", Arguments: map[string]any{"b": 2}},
	}
	results := e.Execute(context.Background(), requests)

	if len(results) != len(requests) {
		t.Fatalf("results = %d, want %d", len(results), len(requests))
	}
	for i, req := range requests {
		if results[i].Name != req.Name {
			t.Errorf("results[%d].Name = %q, want %q", i, results[i].Name, req.Name)
		}
	}
}

func TestExecutor_SameToolMultipleTimes(t *testing.T) {
	reg := &regmock.Client{
		InvokeResults: map[string]registry.ToolResult{
			"molecular_properties": {Result: json.RawMessage(`{"mw":46.07}`)},
		},
	}
	e := NewExecutor(reg, WithExecutorMetrics(testMetrics(t)))

	requests := []ToolRequest{
		{Name: "molecular_properties", Arguments: map[string]any{"smiles": "CCO"}},
		{Name: "molecular_properties", Arguments: map[string]any{"smiles": "CC(=O)O"}},
	}
	results := e.Execute(context.Background(), requests)

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for i, res := range results {
		if res.Arguments["smiles"] != requests[i].Arguments["smiles"] {
			t.Errorf("results[%d] echoed smiles = %v, want %v",
				i, res.Arguments["smiles"], requests[i].Arguments["smiles"])
		}
	}
	if reg.CallCount("Invoke") != 2 {
		t.Errorf("Invoke calls = %d, want 2", reg.CallCount("Invoke"))
	}
}

func TestExecutor_IsolatesFailures(t *testing.T) {
	reg := &regmock.Client{
		InvokeResults: map[string]registry.ToolResult{
			"working_tool": {Result: json.RawMessage(`{"ok":true}`)},
			"broken_tool": {Error: &registry.ToolError{
				Kind:    registry.KindConnection,
				Message: "dial tcp: connection refused",
			}},
		},
	}
	e := NewExecutor(reg, WithExecutorMetrics(testMetrics(t)))

	results := e.Execute(context.Background(), []ToolRequest{
		{Name: "broken_tool"},
		{Name: "working_tool"},
	})

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Error == nil {
		t.Error("broken tool result has no error")
	}
	if results[0].Result != nil {
		t.Error("broken tool result has a payload, want error only")
	}
	if results[1].Error != nil {
		t.Errorf("working tool failed: %v", results[1].Error)
	}
	if results[1].Result == nil {
		t.Error("working tool result has no payload")
	}
}

func TestExecutor_UnknownToolCaptured(t *testing.T) {
	reg := &regmock.Client{}
	e := NewExecutor(reg, WithExecutorMetrics(testMetrics(t)))

	results := e.Execute(context.Background(), []ToolRequest{{Name: "no_such_tool"}})
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Error == nil || results[0].Error.Kind != registry.KindNotFound {
		t.Errorf("error = %v, want kind %s", results[0].Error, registry.KindNotFound)
	}
}
