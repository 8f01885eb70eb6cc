// Package candidate enumerates substitution isomers of a seed molecule and
// carries each unique isomer through the rest of the pipeline.
package candidate

import (
	"github.com/chemtools/qsarpipe/internal/domain/molecule"
)

// Candidate is one unique substitution isomer of the seed structure.
type Candidate struct {
	// Index is the stable 0-based position in the deduplicated set; it
	// determines output file names.
	Index int
	// Mask is the bit pattern over the seed's substitutable positions
	// that first produced this isomer.
	Mask uint64
	// Positions holds the substituted atom indices of the seed, in
	// ascending order.
	Positions []int
	// SMILES is the canonical form; it is the identity of the candidate.
	SMILES string
	// Formula is the Hill-order molecular formula.
	Formula string

	Mol         *molecule.Molecule
	Fingerprint *molecule.Fingerprint
	Props       molecule.Properties
}

// SubstituentCount returns how many positions this candidate substitutes.
func (c *Candidate) SubstituentCount() int {
	return len(c.Positions)
}
