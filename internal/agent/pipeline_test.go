package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/bioroute/internal/registry"
	regmock "github.com/MrWong99/bioroute/internal/registry/mock"
	"github.com/MrWong99/bioroute/pkg/provider/llm"
	llmmock "github.com/MrWong99/bioroute/pkg/provider/llm/mock"
)

// newTestPipeline wires a pipeline from the given mocks with isolated metrics.
func newTestPipeline(t *testing.T, routerProv, reasonerProv *llmmock.Provider, reg *regmock.Client) *Pipeline {
	t.Helper()
	m := testMetrics(t)
	return NewPipeline(
		NewRouter(routerProv, reg, WithRouterMetrics(m)),
		NewExecutor(reg, WithExecutorMetrics(m)),
		NewReasoner(reasonerProv, WithReasonerMetrics(m)),
		WithPipelineMetrics(m),
	)
}

func reasonedJSON(result, rationale string) string {
	b, _ := json.Marshal(map[string]string{"result": result, "rationale": rationale})
	return string(b)
}

func TestPipeline_EmptyPromptFailsFast(t *testing.T) {
	routerProv := &llmmock.Provider{}
	reasonerProv := &llmmock.Provider{}
	reg := &regmock.Client{}
	p := newTestPipeline(t, routerProv, reasonerProv, reg)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		if _, err := p.Process(context.Background(), prompt); !errors.Is(err, ErrEmptyPrompt) {
			t.Errorf("Process(%q) error = %v, want ErrEmptyPrompt", prompt, err)
		}
	}

	// Fail fast: no external call of any kind.
	if routerProv.CallCount() != 0 || reasonerProv.CallCount() != 0 {
		t.Error("model provider was called for an empty prompt")
	}
	if len(reg.Calls()) != 0 {
		t.Error("registry was contacted for an empty prompt")
	}
}

func TestPipeline_NoToolsPath(t *testing.T) {
	routerProv := &llmmock.Provider{
		CompleteResponses: []*llm.CompletionResponse{{Content: decisionJSON(false, "")}},
	}
	reasonerProv := &llmmock.Provider{
		CompleteResponses: []*llm.CompletionResponse{{
			Content: reasonedJSON("Lipinski's rule of five is a set of drug-likeness criteria.", "General knowledge."),
		}},
	}
	reg := testCatalog(t)
	p := newTestPipeline(t, routerProv, reasonerProv, reg)

	env, err := p.Process(context.Background(), "What is Lipinski's rule of five?")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if env.Status != StatusSuccess {
		t.Errorf("status = %q, want success", env.Status)
	}
	if env.ToolResults == nil || len(env.ToolResults) != 0 {
		t.Errorf("tool_results = %v, want empty non-nil slice", env.ToolResults)
	}
	if reg.CallCount("Invoke") != 0 {
		t.Errorf("Invoke calls = %d, want 0 (no tools needed)", reg.CallCount("Invoke"))
	}
	var result string
	if err := json.Unmarshal(env.Response.Result, &result); err != nil || !strings.Contains(result, "Lipinski") {
		t.Errorf("response result = %s, want explanatory text", env.Response.Result)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}
	if env.Prompt != "What is Lipinski's rule of five?" {
		t.Errorf("prompt echo = %q", env.Prompt)
	}
}

func TestPipeline_TwoToolComparison(t *testing.T) {
	ibuprofen := "CC(C)Cc1ccc(cc1)C(C)C(O)=O"
	caffeine := "CN1C=NC2=C1C(=O)N(C(=O)N2C)C"

	routerProv := &llmmock.Provider{
		CompleteResponses: []*llm.CompletionResponse{{
			Content: decisionJSON(true,
				`{"tool_name":"molecular_properties","arguments":{"smiles":"`+ibuprofen+`"}},`+
					`{"tool_name":"molecular_properties","arguments":{"smiles":"`+caffeine+`"}}`),
		}},
	}
	reasonerProv := &llmmock.Provider{
		CompleteResponses: []*llm.CompletionResponse{{
			Content: reasonedJSON("Ibuprofen is more lipophilic than caffeine.", "Computed logP comparison."),
		}},
	}
	reg := testCatalog(t)
	reg.InvokeResults = map[string]registry.ToolResult{
		"molecular_properties": {Result: json.RawMessage(`{"mw":206.28,"logp":3.5}`)},
	}
	p := newTestPipeline(t, routerProv, reasonerProv, reg)

	env, err := p.Process(context.Background(), "Compare the properties of ibuprofen and caffeine")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(env.ToolResults) != 2 {
		t.Fatalf("tool_results = %d, want 2", len(env.ToolResults))
	}
	if env.ToolResults[0].Arguments["smiles"] != ibuprofen {
		t.Errorf("tool_results[0] smiles = %v, want ibuprofen (input order preserved)", env.ToolResults[0].Arguments["smiles"])
	}
	if env.ToolResults[1].Arguments["smiles"] != caffeine {
		t.Errorf("tool_results[1] smiles = %v, want caffeine (input order preserved)", env.ToolResults[1].Arguments["smiles"])
	}
	var result string
	if err := json.Unmarshal(env.Response.Result, &result); err != nil || !strings.Contains(result, "Ibuprofen") {
		t.Errorf("response result = %s, want a comparison", env.Response.Result)
	}
}

func TestPipeline_AllToolsFailingStillSucceeds(t *testing.T) {
	routerProv := &llmmock.Provider{
		CompleteResponses: []*llm.CompletionResponse{{
			Content: decisionJSON(true,
				`{"tool_name":"molecular_properties","arguments":{"smiles":"CCO"}},`+
					`{"tool_name":"binding_affinity","arguments":{"smiles":"CCO","target":"EGFR"}}`),
		}},
	}
	reasonerProv := &llmmock.Provider{
		CompleteResponses: []*llm.CompletionResponse{{
			Content: reasonedJSON("Tool data was unavailable; answering from general knowledge.", "All tool calls failed."),
		}},
	}
	reg := testCatalog(t)
	connErr := &registry.ToolError{Kind: registry.KindConnection, Message: "dial tcp: connection refused"}
	reg.InvokeResults = map[string]registry.ToolResult{
		"molecular_properties": {Error: connErr},
		"binding_affinity":     {Error: connErr},
	}
	p := newTestPipeline(t, routerProv, reasonerProv, reg)

	env, err := p.Process(context.Background(), "affinity and properties of ethanol")
	if err != nil {
		t.Fatalf("Process: %v (tool failures must not fail the request)", err)
	}

	if env.Status != StatusSuccess {
		t.Errorf("status = %q, want success despite failing tools", env.Status)
	}
	for i, res := range env.ToolResults {
		if res.Error == nil {
			t.Errorf("tool_results[%d] has no error", i)
		}
		if res.Result != nil {
			t.Errorf("tool_results[%d] has a payload, want error only", i)
		}
	}
	if reasonerProv.CallCount() != 1 {
		t.Error("reasoner was not invoked after tool failures")
	}
}

func TestPipeline_RoutingFailureAborts(t *testing.T) {
	routerProv := &llmmock.Provider{CompleteErr: errors.New("model unavailable")}
	reasonerProv := &llmmock.Provider{}
	reg := testCatalog(t)
	p := newTestPipeline(t, routerProv, reasonerProv, reg)

	_, err := p.Process(context.Background(), "anything")
	var rerr *RoutingError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RoutingError", err)
	}
	if reasonerProv.CallCount() != 0 {
		t.Error("reasoner was invoked after a routing failure")
	}
	if reg.CallCount("Invoke") != 0 {
		t.Error("tools were invoked after a routing failure")
	}
}

func TestPipeline_ReasoningFailureAborts(t *testing.T) {
	routerProv := &llmmock.Provider{
		CompleteResponses: []*llm.CompletionResponse{{Content: decisionJSON(false, "")}},
	}
	reasonerProv := &llmmock.Provider{CompleteErr: errors.New("model unavailable")}
	reg := testCatalog(t)
	p := newTestPipeline(t, routerProv, reasonerProv, reg)

	_, err := p.Process(context.Background(), "anything")
	var rerr *ReasoningError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *ReasoningError", err)
	}
}
