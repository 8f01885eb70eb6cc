// Package descriptor computes per-candidate feature vectors: a built-in
// set derived from the molecular graph, optionally merged with columns
// from an external descriptor tool.  Failed external computations are
// cached as null markers so reruns skip them.
package descriptor

import (
	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// BuiltinColumns lists the built-in descriptor names in output order.
var BuiltinColumns = []string{
	"mol_weight",
	"heavy_atoms",
	"num_carbon",
	"num_nitrogen",
	"num_oxygen",
	"num_chlorine",
	"num_halogen",
	"num_bonds",
	"ring_count",
	"aromatic_atoms",
	"aromatic_rings",
	"rotatable_bonds",
	"hbond_donors",
	"hbond_acceptors",
	"tpsa",
	"logp",
	"wiener_index",
	"fp_density",
}

// Calculator computes the built-in descriptor set.
type Calculator struct {
	fingerprintBits   int
	fingerprintRadius int
}

// NewCalculator builds a Calculator with the given fingerprint parameters.
func NewCalculator(fpBits, fpRadius int) *Calculator {
	return &Calculator{fingerprintBits: fpBits, fingerprintRadius: fpRadius}
}

// Compute parses the SMILES and returns the built-in descriptors keyed by
// column name.
func (c *Calculator) Compute(smiles string) (map[string]float64, error) {
	m, err := molecule.ParseSMILES(smiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDescriptorFailed, "parse SMILES for descriptors").
			WithDetail("smiles=" + smiles)
	}
	return c.ComputeMol(m), nil
}

// ComputeMol returns the built-in descriptors for an already parsed graph.
func (c *Calculator) ComputeMol(m *molecule.Molecule) map[string]float64 {
	p := m.ComputeProperties()
	fp := m.MorganFingerprint(c.fingerprintBits, c.fingerprintRadius)
	return map[string]float64{
		"mol_weight":      p.MolWeight,
		"heavy_atoms":     float64(p.HeavyAtoms),
		"num_carbon":      float64(p.NumCarbon),
		"num_nitrogen":    float64(p.NumNitrogen),
		"num_oxygen":      float64(p.NumOxygen),
		"num_chlorine":    float64(p.NumChlorine),
		"num_halogen":     float64(p.NumHalogen),
		"num_bonds":       float64(p.NumBonds),
		"ring_count":      float64(p.RingCount),
		"aromatic_atoms":  float64(p.AromaticAtoms),
		"aromatic_rings":  float64(p.AromaticRings),
		"rotatable_bonds": float64(p.RotatableBonds),
		"hbond_donors":    float64(p.HBondDonors),
		"hbond_acceptors": float64(p.HBondAcceptors),
		"tpsa":            p.TPSA,
		"logp":            p.LogP,
		"wiener_index":    float64(p.WienerIndex),
		"fp_density":      fp.Density(),
	}
}
