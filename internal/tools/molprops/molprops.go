// Package molprops implements the molecular_properties tool: physicochemical
// property estimates derived deterministically from a SMILES string.
package molprops

import (
	"context"
	"math"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/bioroute/internal/tools/smiles"
)

// Input is the argument payload of the molecular_properties tool.
type Input struct {
	SMILES string `json:"smiles" jsonschema:"SMILES representation of the molecule, e.g. CCO (ethanol)"`
}

// Result is the property profile returned by the molecular_properties tool.
// On invalid input only SMILES and Error are meaningful.
type Result struct {
	SMILES          string  `json:"smiles"`
	MolecularWeight float64 `json:"molecular_weight"`
	LogP            float64 `json:"logP"`
	HBD             int     `json:"hbd"`
	HBA             int     `json:"hba"`
	Error           string  `json:"error,omitempty"`
}

// Compute derives the mock property profile for the given SMILES string.
// Ranges: molecular weight 200-500 g/mol, logP -2 to 8, hydrogen bond
// donors 0-7, acceptors 0-11.
func Compute(s string) Result {
	if err := smiles.Validate(s); err != nil {
		return Result{SMILES: s, Error: err.Error()}
	}

	h := smiles.Fingerprint(s)
	return Result{
		SMILES:          s,
		MolecularWeight: round2(200 + float64(h%300)),
		LogP:            round2(-2 + float64(h%1000)/100),
		HBD:             int(h % 8),
		HBA:             int(h % 12),
	}
}

// Register adds the molecular_properties tool to the given MCP server.
func Register(s *mcpsdk.Server) {
	mcpsdk.AddTool(s,
		&mcpsdk.Tool{
			Name: "molecular_properties",
			Description: "Calculate essential molecular properties from a SMILES string for drug discovery " +
				"and chemical analysis: molecular weight, logP (lipophilicity), hydrogen bond donors and " +
				"acceptors. Useful for drug-likeness assessment (Lipinski's Rule of Five) and database filtering.",
		},
		func(_ context.Context, _ *mcpsdk.CallToolRequest, in Input) (*mcpsdk.CallToolResult, Result, error) {
			return nil, Compute(in.SMILES), nil
		},
	)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
