// Package toxicity implements the toxicity_prediction tool: a deterministic
// ADMET profile (absorption, distribution, metabolism, excretion, toxicity)
// for drug safety assessment.
package toxicity

import (
	"context"
	"math"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/bioroute/internal/tools/smiles"
)

// Input is the argument payload of the toxicity_prediction tool.
type Input struct {
	SMILES string `json:"smiles" jsonschema:"SMILES representation of the molecule to analyze"`
}

// Absorption describes intestinal uptake and permeability.
type Absorption struct {
	HumanIntestinalAbsorption float64 `json:"human_intestinal_absorption"`
	Caco2Permeability         float64 `json:"caco2_permeability"`
	Classification            string  `json:"classification"`
}

// Distribution describes how the compound spreads through the body.
type Distribution struct {
	VolumeOfDistribution float64 `json:"volume_of_distribution"`
	PlasmaProteinBinding float64 `json:"plasma_protein_binding"`
	BBBPenetration       string  `json:"bbb_penetration"`
}

// Metabolism describes metabolic fate and stability.
type Metabolism struct {
	HalfLifeHours      float64 `json:"half_life_hours"`
	CYP450Substrate    string  `json:"cyp450_substrate"`
	MetabolicStability string  `json:"metabolic_stability"`
}

// Excretion describes clearance routes and rates.
type Excretion struct {
	ClearanceMlMinKg      float64 `json:"clearance_ml_min_kg"`
	RenalExcretionPercent float64 `json:"renal_excretion_percent"`
}

// Toxicity holds the overall toxicity level and organ-specific flags.
type Toxicity struct {
	OverallToxicity string `json:"overall_toxicity"`
	LD50MgKg        int    `json:"ld50_mg_kg"`
	Hepatotoxicity  string `json:"hepatotoxicity"`
	Cardiotoxicity  string `json:"cardiotoxicity"`
	Mutagenicity    string `json:"mutagenicity"`
}

// Result is the complete ADMET profile. On invalid input the section
// pointers are nil and only SMILES and Error are set.
type Result struct {
	SMILES       string        `json:"smiles"`
	Absorption   *Absorption   `json:"absorption,omitempty"`
	Distribution *Distribution `json:"distribution,omitempty"`
	Metabolism   *Metabolism   `json:"metabolism,omitempty"`
	Excretion    *Excretion    `json:"excretion,omitempty"`
	Toxicity     *Toxicity     `json:"toxicity,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Predict derives the mock ADMET profile for the given SMILES string.
func Predict(s string) Result {
	if err := smiles.Validate(s); err != nil {
		return Result{SMILES: s, Error: err.Error()}
	}

	h := smiles.Fingerprint(s)

	absorptionScore := 0.3 + float64(h%70)/100
	halfLife := 1 + float64(h%2400)/100

	return Result{
		SMILES: s,
		Absorption: &Absorption{
			HumanIntestinalAbsorption: round2(absorptionScore),
			Caco2Permeability:         round2(float64(h%100) / 10),
			Classification:            classify(absorptionScore, 0.7, 0.5, "High", "Moderate", "Low"),
		},
		Distribution: &Distribution{
			VolumeOfDistribution: round2(0.5 + float64(h%500)/100),
			PlasmaProteinBinding: round1(70 + float64(h%30)),
			BBBPenetration:       yesNo(h%2 == 0),
		},
		Metabolism: &Metabolism{
			HalfLifeHours:      round1(halfLife),
			CYP450Substrate:    [2]string{"CYP3A4", "CYP2D6"}[h%2],
			MetabolicStability: classify(halfLife, 10, 5, "Stable", "Moderate", "Unstable"),
		},
		Excretion: &Excretion{
			ClearanceMlMinKg:      round1(5 + float64(h%500)/10),
			RenalExcretionPercent: round1(20 + float64(h%60)),
		},
		Toxicity: &Toxicity{
			OverallToxicity: [3]string{"Low", "Moderate", "High"}[h%3],
			LD50MgKg:        int(100 + h%1900),
			Hepatotoxicity:  posNeg(h%3 == 0),
			Cardiotoxicity:  posNeg(h%5 == 0),
			Mutagenicity:    posNeg(h%7 == 0),
		},
	}
}

// Register adds the toxicity_prediction tool to the given MCP server.
func Register(s *mcpsdk.Server) {
	mcpsdk.AddTool(s,
		&mcpsdk.Tool{
			Name: "toxicity_prediction",
			Description: "Predict a comprehensive ADMET profile (absorption, distribution, metabolism, " +
				"excretion, toxicity) for drug safety assessment, including blood-brain barrier penetration, " +
				"CYP450 metabolism, clearance, LD50 and organ-specific toxicity flags.",
		},
		func(_ context.Context, _ *mcpsdk.CallToolRequest, in Input) (*mcpsdk.CallToolResult, Result, error) {
			return nil, Predict(in.SMILES), nil
		},
	)
}

// classify maps v onto a three-level label using the given thresholds.
func classify(v, high, mid float64, highLabel, midLabel, lowLabel string) string {
	switch {
	case v > high:
		return highLabel
	case v > mid:
		return midLabel
	default:
		return lowLabel
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func posNeg(b bool) string {
	if b {
		return "Positive"
	}
	return "Negative"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
