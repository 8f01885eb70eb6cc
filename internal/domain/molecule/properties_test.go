package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) *Molecule {
	t.Helper()
	m, err := ParseSMILES(s)
	require.NoError(t, err)
	return m
}

func TestComputePropertiesBenzene(t *testing.T) {
	p := mustParse(t, "c1ccccc1").ComputeProperties()

	assert.Equal(t, 6, p.HeavyAtoms)
	assert.Equal(t, 6, p.NumCarbon)
	assert.Equal(t, 6, p.AromaticAtoms)
	assert.Equal(t, 1, p.RingCount)
	assert.Equal(t, 1, p.AromaticRings)
	assert.Equal(t, 0, p.RotatableBonds)
	assert.Equal(t, 0, p.HBondDonors)
	assert.Equal(t, 0, p.HBondAcceptors)
	assert.Equal(t, 27, p.WienerIndex)
	assert.InDelta(t, 78.11, p.MolWeight, 0.02)
}

func TestComputePropertiesPhenol(t *testing.T) {
	p := mustParse(t, "Oc1ccccc1").ComputeProperties()

	assert.Equal(t, 7, p.HeavyAtoms)
	assert.Equal(t, 1, p.NumOxygen)
	assert.Equal(t, 1, p.HBondDonors)
	assert.Equal(t, 1, p.HBondAcceptors)
	assert.InDelta(t, 20.23, p.TPSA, 0.001)
	assert.InDelta(t, 94.11, p.MolWeight, 0.02)
	// The C-O bond is terminal at the oxygen end, hence not rotatable.
	assert.Equal(t, 0, p.RotatableBonds)
}

func TestComputePropertiesBiphenyl(t *testing.T) {
	p := mustParse(t, "c1ccccc1-c1ccccc1").ComputeProperties()

	assert.Equal(t, 12, p.HeavyAtoms)
	assert.Equal(t, 2, p.RingCount)
	assert.Equal(t, 2, p.AromaticRings)
	assert.Equal(t, 1, p.RotatableBonds)
}

func TestComputePropertiesChlorination(t *testing.T) {
	base := mustParse(t, "c1ccccc1").ComputeProperties()
	chloro := mustParse(t, "Clc1ccccc1").ComputeProperties()

	assert.Equal(t, 1, chloro.NumChlorine)
	assert.Equal(t, 1, chloro.NumHalogen)
	assert.Greater(t, chloro.MolWeight, base.MolWeight)
	assert.Greater(t, chloro.LogP, base.LogP)
}

func TestComputePropertiesFusedRings(t *testing.T) {
	p := mustParse(t, "c1ccc2ccccc2c1").ComputeProperties()

	assert.Equal(t, 10, p.HeavyAtoms)
	assert.Equal(t, 2, p.RingCount)
	assert.Equal(t, 2, p.AromaticRings)
}

func TestComputePropertiesUnknownElement(t *testing.T) {
	m := NewMolecule()
	m.AddAtom(Atom{Element: "Xx"})
	p := m.ComputeProperties()

	assert.Equal(t, 1, p.UnknownAtoms)
	assert.Equal(t, 0.0, p.MolWeight)
}
