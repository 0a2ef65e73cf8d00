package agent

import (
	"fmt"
	"strings"

	"github.com/MrWong99/bioroute/internal/registry"
)

// routerSystemPrompt builds the system prompt for the routing model call.
// The catalogue is rendered inline so the model only requests tools that
// actually exist.
func routerSystemPrompt(catalog []registry.ToolDescriptor) string {
	var tools strings.Builder
	for _, td := range catalog {
		fmt.Fprintf(&tools, "- %s: %s\n  Input schema: %s\n", td.Name, td.Description, renderSchema(td.InputSchema))
	}
	if tools.Len() == 0 {
		tools.WriteString("(no tools are currently available)\n")
	}

	return `You are a query understanding agent for biological and chemical analysis.

Analyze the user's query and determine:
1. Whether computation tools are needed to answer it.
2. Which specific tools are required, with arguments matching each tool's input schema.

Available tools:
` + tools.String() + `
You must respond with a single valid JSON object and nothing else:
{
  "needs_tools": <boolean>,
  "required_tools": [{"tool_name": "<name>", "arguments": {<arguments matching the tool's schema>}}, ...],
  "reasoning": "<one or two sentences explaining your decision>"
}

Rules:
- "required_tools" must be an empty array when "needs_tools" is false.
- Only request tools from the list above, and only with arguments their schema accepts.
- Request one entry per invocation; the same tool may appear multiple times with different arguments.
- Do not wrap the JSON in markdown code fences or add commentary.

Example:
{
  "needs_tools": true,
  "required_tools": [
    {"tool_name": "molecular_properties", "arguments": {"smiles": "CC(C)Cc1ccc(cc1)C(C)C(O)=O"}},
    {"tool_name": "binding_affinity", "arguments": {"smiles": "CC(C)Cc1ccc(cc1)C(C)C(O)=O", "target": "EGFR"}}
  ],
  "reasoning": "Comparing binding requires computed properties and affinity predictions for the named compound."
}`
}

// renderSchema produces a compact single-line JSON-ish rendering of a tool's
// input schema for prompt inclusion.
func renderSchema(schema map[string]any) string {
	if len(schema) == 0 {
		return "{}"
	}
	return fmt.Sprintf("%v", schema)
}

// reasonerSystemPrompt is the system prompt for the reasoning model call.
const reasonerSystemPrompt = `You are an analytical reasoning agent for biological and chemical analysis.

Analyze the original user query together with any tool results and produce a well-founded answer:
- Draw clear conclusions based on the evidence.
- Give scientific reasoning for your decisions.
- Note uncertainties or limitations in the data.
- If a tool result carries an "error" field, treat that data as unavailable and reason around it; mention the gap when it affects your conclusion.

You must respond with a single valid JSON object and nothing else:
{
  "result": <the main conclusion — string, number, array, or object depending on the query>,
  "rationale": "<one or two sentences naming the key evidence>"
}

For ranking queries, "result" should be an ordered array. For selection queries, "result" should name what was selected and rejected. Keep rationales concise. Do not wrap the JSON in markdown code fences or add commentary.`

// reasonerUserPrompt assembles the user message for the reasoning call:
// the original prompt, the routing decision, and the tool results rendered
// verbatim (error fields included) so the model can reason about partial
// tool failure rather than treating it as absent data.
func reasonerUserPrompt(prompt string, decision *Decision, results []registry.ToolResult) string {
	var b strings.Builder

	b.WriteString("Original user query:\n")
	b.WriteString(prompt)
	b.WriteString("\n")

	if decision != nil && decision.Reasoning != "" {
		b.WriteString("\nRouting decision:\n")
		b.WriteString(decision.Reasoning)
		b.WriteString("\n")
	}

	if len(results) > 0 {
		b.WriteString("\nTool results:\n")
		for _, r := range results {
			fmt.Fprintf(&b, "Tool: %s\nArguments: %v\n", r.Name, r.Arguments)
			if r.Error != nil {
				fmt.Fprintf(&b, "Error: %s: %s\n", r.Error.Kind, r.Error.Message)
			} else {
				fmt.Fprintf(&b, "Result: %s\n", string(r.Result))
			}
			b.WriteString("---\n")
		}
	} else {
		b.WriteString("\nNo tools were invoked for this query; answer from your own knowledge.\n")
	}

	b.WriteString("\nAnalyze the above and provide your conclusion and rationale.")
	return b.String()
}

// correctiveInstruction is appended as a follow-up user message when the
// model's previous output failed to parse into the expected JSON shape.
const correctiveInstruction = `Your previous response was not a single valid JSON object of the required shape. Respond again with only the JSON object described in the system prompt, with no markdown fences and no surrounding text.`
