package molprops

import "testing"

func TestCompute_Deterministic(t *testing.T) {
	a := Compute("CCO")
	b := Compute("CCO")
	if a != b {
		t.Fatalf("results differ for identical input: %+v vs %+v", a, b)
	}
}

func TestCompute_ValuesInRange(t *testing.T) {
	for _, s := range []string{"CCO", "CC(=O)OC1=CC=CC=C1C(=O)O", "CN1C=NC2=C1C(=O)N(C(=O)N2C)C"} {
		r := Compute(s)
		if r.Error != "" {
			t.Fatalf("Compute(%q) unexpected error: %s", s, r.Error)
		}
		if r.SMILES != s {
			t.Errorf("SMILES not echoed back: got %q", r.SMILES)
		}
		if r.MolecularWeight < 200 || r.MolecularWeight >= 500 {
			t.Errorf("molecular weight %v out of range [200, 500)", r.MolecularWeight)
		}
		if r.LogP < -2 || r.LogP >= 8 {
			t.Errorf("logP %v out of range [-2, 8)", r.LogP)
		}
		if r.HBD < 0 || r.HBD > 7 {
			t.Errorf("hbd %d out of range [0, 7]", r.HBD)
		}
		if r.HBA < 0 || r.HBA > 11 {
			t.Errorf("hba %d out of range [0, 11]", r.HBA)
		}
	}
}

func TestCompute_DifferentMoleculesDiffer(t *testing.T) {
	if Compute("CCO") == Compute("CCCO") {
		t.Error("distinct molecules should not share an identical profile")
	}
}

func TestCompute_InvalidSMILES(t *testing.T) {
	r := Compute("not a molecule!")
	if r.Error == "" {
		t.Fatal("expected an error payload for invalid SMILES")
	}
	if r.SMILES != "not a molecule!" {
		t.Errorf("input should be echoed back even on error, got %q", r.SMILES)
	}
	if r.MolecularWeight != 0 {
		t.Errorf("no properties should be derived for invalid input, got MW %v", r.MolecularWeight)
	}
}

func TestCompute_EmptySMILES(t *testing.T) {
	if r := Compute("  "); r.Error == "" {
		t.Fatal("expected an error payload for whitespace-only SMILES")
	}
}
