// Package binding implements the binding_affinity tool: deterministic
// protein-ligand binding affinity estimates for target engagement analysis.
package binding

import (
	"context"
	"math"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/bioroute/internal/tools/smiles"
)

// DefaultTarget is used when no target protein is given.
const DefaultTarget = "EGFR"

// Input is the argument payload of the binding_affinity tool.
type Input struct {
	SMILES string `json:"smiles" jsonschema:"SMILES representation of the ligand molecule"`
	Target string `json:"target,omitempty" jsonschema:"target protein identifier, e.g. EGFR, VEGFR2, CDK2, p53 (default EGFR)"`
}

// Result is the binding prediction returned by the binding_affinity tool.
// On invalid input only SMILES, Target and Error are meaningful.
type Result struct {
	Target string `json:"target"`
	SMILES string `json:"smiles"`
	// BindingAffinityKcalMol is the predicted binding energy in kcal/mol.
	// More negative means stronger binding; range -3 to -15.
	BindingAffinityKcalMol float64 `json:"binding_affinity_kcal_mol"`
	// PKd is the negative log of the dissociation constant, range 4.0-9.0.
	PKd        float64 `json:"pKd"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// Predict derives the mock binding prediction for the ligand against the
// given target. An empty target falls back to [DefaultTarget].
func Predict(s, target string) Result {
	if target == "" {
		target = DefaultTarget
	}
	if err := smiles.Validate(s); err != nil {
		return Result{Target: target, SMILES: s, Error: err.Error()}
	}

	h := smiles.Fingerprint(s, target)
	return Result{
		Target:                 target,
		SMILES:                 s,
		BindingAffinityKcalMol: round2(-3 - float64(h%1200)/100),
		PKd:                    round2(4 + float64(h%500)/100),
		Confidence:             round2(math.Min(0.2+float64(h%75)/100, 0.99)),
	}
}

// Register adds the binding_affinity tool to the given MCP server.
func Register(s *mcpsdk.Server) {
	mcpsdk.AddTool(s,
		&mcpsdk.Tool{
			Name: "binding_affinity",
			Description: "Predict protein-ligand binding affinity for drug discovery and target engagement " +
				"analysis. Returns the binding energy in kcal/mol, pKd and a confidence score for a ligand " +
				"SMILES against a target protein (default EGFR).",
		},
		func(_ context.Context, _ *mcpsdk.CallToolRequest, in Input) (*mcpsdk.CallToolResult, Result, error) {
			return nil, Predict(in.SMILES, in.Target), nil
		},
	)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
