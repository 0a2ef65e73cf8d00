// Package smiles contains shared helpers for the biochemistry tools:
// lightweight SMILES validation and the deterministic fingerprint that
// drives all mock predictions.
package smiles

import (
	"errors"
	"hash/fnv"
	"regexp"
	"strings"
)

// pattern accepts the atoms C, N, O, S, P, F, Cl, Br, I, B, Si plus digits,
// ring-closure numbers, bond symbols, brackets, charges and stereochemistry
// markers. It is a plausibility filter, not a full SMILES grammar.
var pattern = regexp.MustCompile(`^[CNOSPFBSIcnospfbsilraH\d()\[\]=#\-+@/\\.]+$`)

// ErrEmpty is returned by [Validate] for empty or whitespace-only input.
var ErrEmpty = errors.New("SMILES cannot be empty or whitespace only")

// ErrInvalidCharacters is returned by [Validate] when the input contains
// characters outside the allowed SMILES alphabet.
var ErrInvalidCharacters = errors.New("SMILES contains invalid characters; only atoms (C, N, O, S, P, F, Cl, Br, I, B, Si), numbers and chemical symbols are allowed")

// Validate performs a basic plausibility check on a SMILES string.
// It returns nil for plausible input and a descriptive error otherwise.
func Validate(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmpty
	}
	if !pattern.MatchString(s) {
		return ErrInvalidCharacters
	}
	return nil
}

// Fingerprint returns a deterministic 32-bit hash over the given parts,
// joined by "|". Identical inputs always yield identical fingerprints, so
// every derived mock value is stable across calls and across processes.
func Fingerprint(parts ...string) uint32 {
	h := fnv.New32a()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{'|'})
		}
		h.Write([]byte(p))
	}
	return h.Sum32()
}
