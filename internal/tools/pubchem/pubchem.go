// Package pubchem implements the pubchem_lookup tool: a deterministic mock
// of compound, assay and bioactivity searches against the PubChem database.
package pubchem

import (
	"context"
	"fmt"
	"math"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/bioroute/internal/tools/smiles"
)

// Search types accepted by [Search].
const (
	SearchCompound    = "compound"
	SearchAssay       = "assay"
	SearchBioactivity = "bioactivity"
)

// Input is the argument payload of the pubchem_lookup tool.
type Input struct {
	Query      string `json:"query" jsonschema:"search query: compound name, CID, SMILES, target protein or keyword"`
	SearchType string `json:"search_type,omitempty" jsonschema:"one of compound, assay or bioactivity (default compound)"`
}

// Compound is a single entry of a compound search.
type Compound struct {
	CID              int      `json:"cid"`
	Names            []string `json:"names"`
	SMILES           string   `json:"smiles"`
	MolecularFormula string   `json:"molecular_formula"`
	MolecularWeight  float64  `json:"molecular_weight"`
	IUPACName        string   `json:"iupac_name"`
}

// Assay is a single entry of an assay search.
type Assay struct {
	AID             int    `json:"aid"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Target          string `json:"target"`
	AssayType       string `json:"assay_type"`
	Organism        string `json:"organism"`
	ActiveCompounds int    `json:"active_compounds"`
	TotalCompounds  int    `json:"total_compounds"`
}

// Activity is a single measurement of a bioactivity search.
type Activity struct {
	CID             int     `json:"cid"`
	AID             int     `json:"aid"`
	CompoundName    string  `json:"compound_name"`
	Target          string  `json:"target"`
	ActivityType    string  `json:"activity_type"`
	ActivityValue   float64 `json:"activity_value"`
	ActivityUnit    string  `json:"activity_unit"`
	ActivityOutcome string  `json:"activity_outcome"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// ActivitySummary aggregates the measurements of a bioactivity search.
type ActivitySummary struct {
	ActiveCompounds   int     `json:"active_compounds"`
	InactiveCompounds int     `json:"inactive_compounds"`
	AverageConfidence float64 `json:"average_confidence"`
	UniqueTargets     int     `json:"unique_targets"`
}

// Result is the outcome of a PubChem search. Exactly one of Compounds,
// Assays or Activities is populated depending on the search type.
type Result struct {
	Query      string           `json:"query"`
	SearchType string           `json:"search_type"`
	Count      int              `json:"count"`
	Compounds  []Compound       `json:"compounds,omitempty"`
	Assays     []Assay          `json:"assays,omitempty"`
	Activities []Activity       `json:"activities,omitempty"`
	Summary    *ActivitySummary `json:"summary,omitempty"`
	Error      string           `json:"error,omitempty"`
}

var (
	assayTargets  = []string{"EGFR", "VEGFR2", "CDK2", "p53", "BRAF", "ALK", "HER2", "PI3K"}
	assayKinds    = []string{"binding", "enzymatic", "cell-based", "functional"}
	activityTypes = []string{"IC50", "EC50", "Ki", "Kd", "ED50"}
	activityUnits = []string{"nM", "μM", "pM"}
)

// Search runs a deterministic mock PubChem search. An empty searchType
// defaults to [SearchCompound]; unknown types yield an error payload.
func Search(query, searchType string) Result {
	if searchType == "" {
		searchType = SearchCompound
	}

	switch searchType {
	case SearchCompound, SearchAssay, SearchBioactivity:
	default:
		return Result{
			Query:      query,
			SearchType: searchType,
			Error: fmt.Sprintf("invalid search_type %q, must be one of: %s",
				searchType, strings.Join([]string{SearchCompound, SearchAssay, SearchBioactivity}, ", ")),
		}
	}

	h := smiles.Fingerprint(query, searchType)
	n := int(1 + h%5)

	res := Result{Query: query, SearchType: searchType, Count: n}
	switch searchType {
	case SearchCompound:
		res.Compounds = mockCompounds(h, n)
	case SearchAssay:
		res.Assays = mockAssays(h, n)
	case SearchBioactivity:
		res.Activities = mockActivities(h, n)
		res.Summary = summarize(res.Activities)
	}
	return res
}

func mockCompounds(h uint32, n int) []Compound {
	out := make([]Compound, 0, n)
	for i := uint32(0); i < uint32(n); i++ {
		cid := int(1000 + (h+i*37)%90000)
		chain := (h + i) % 6
		out = append(out, Compound{
			CID: cid,
			Names: []string{
				fmt.Sprintf("Compound_%d", cid),
				fmt.Sprintf("MC-%d", cid),
				fmt.Sprintf("Test-Compound-%d", cid%1000),
			},
			SMILES:           "C" + strings.Repeat("C", int(chain)) + "O",
			MolecularFormula: fmt.Sprintf("C%dH%dO", chain+1, chain*2+2),
			MolecularWeight:  float64(200 + (h+i*23)%300),
			IUPACName:        fmt.Sprintf("MJ-%d-ol", chain+1),
		})
	}
	return out
}

func mockAssays(h uint32, n int) []Assay {
	out := make([]Assay, 0, n)
	for i := uint32(0); i < uint32(n); i++ {
		target := assayTargets[(h+i)%uint32(len(assayTargets))]
		kind := assayKinds[(h+i)%uint32(len(assayKinds))]
		organism := "Homo sapiens"
		if (h+i)%2 != 0 {
			organism = "Rattus norvegicus"
		}
		out = append(out, Assay{
			AID:             int(1000000 + (h+i*47)%900000),
			Title:           fmt.Sprintf("%s %s assay", target, kind),
			Description:     fmt.Sprintf("%s assay measuring activity against %s", kind, target),
			Target:          target,
			AssayType:       kind,
			Organism:        organism,
			ActiveCompounds: int(50 + (h+i*31)%200),
			TotalCompounds:  int(500 + (h+i*41)%1500),
		})
	}
	return out
}

func mockActivities(h uint32, n int) []Activity {
	out := make([]Activity, 0, n)
	for i := uint32(0); i < uint32(n); i++ {
		cid := int(1000 + (h+i*37)%90000)
		unit := activityUnits[(h+i)%uint32(len(activityUnits))]

		var value float64
		switch unit {
		case "nM":
			value = float64(1 + (h+i*13)%999)
		case "μM":
			value = math.Round((0.1+float64((h+i*17)%99)/10)*10) / 10
		default: // pM
			value = float64(10 + (h+i*19)%990)
		}

		outcome := "Active"
		if value >= 1000 {
			outcome = "Inactive"
		}

		out = append(out, Activity{
			CID:             cid,
			AID:             int(1000000 + (h+i*47)%900000),
			CompoundName:    fmt.Sprintf("Compound_%d", cid),
			Target:          assayTargets[(h+i)%4],
			ActivityType:    activityTypes[(h+i)%uint32(len(activityTypes))],
			ActivityValue:   value,
			ActivityUnit:    unit,
			ActivityOutcome: outcome,
			ConfidenceScore: math.Round((0.6+float64((h+i*7)%40)/100)*100) / 100,
		})
	}
	return out
}

func summarize(activities []Activity) *ActivitySummary {
	s := &ActivitySummary{}
	targets := make(map[string]struct{})
	var confidence float64
	for _, a := range activities {
		if a.ActivityOutcome == "Active" {
			s.ActiveCompounds++
		} else {
			s.InactiveCompounds++
		}
		confidence += a.ConfidenceScore
		targets[a.Target] = struct{}{}
	}
	if len(activities) > 0 {
		s.AverageConfidence = math.Round(confidence/float64(len(activities))*100) / 100
	}
	s.UniqueTargets = len(targets)
	return s
}

// Register adds the pubchem_lookup tool to the given MCP server.
func Register(s *mcpsdk.Server) {
	mcpsdk.AddTool(s,
		&mcpsdk.Tool{
			Name: "pubchem_lookup",
			Description: "Search the PubChem database for chemical compounds, biological assays and " +
				"bioactivity data. Supports compound structure and property lookup, assay identification " +
				"and IC50/EC50 activity mining by name, CID, SMILES, target protein or keyword.",
		},
		func(_ context.Context, _ *mcpsdk.CallToolRequest, in Input) (*mcpsdk.CallToolResult, Result, error) {
			return nil, Search(in.Query, in.SearchType), nil
		},
	)
}
