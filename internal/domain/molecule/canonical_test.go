package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEquivalentForms(t *testing.T) {
	tests := []struct {
		name  string
		forms []string
	}{
		{"ethanol", []string{"CCO", "OCC", "C(O)C"}},
		{"benzene start atom", []string{"c1ccccc1", "c1ccccc1"}},
		{"chlorobenzene", []string{"Clc1ccccc1", "c1ccc(Cl)cc1", "c1cc(Cl)ccc1"}},
		{"para-dichlorobenzene", []string{"Clc1ccc(Cl)cc1", "c1cc(Cl)ccc1Cl"}},
		{"isobutane", []string{"CC(C)C", "C(C)(C)C"}},
		{"phenol", []string{"Oc1ccccc1", "c1ccccc1O", "c1ccc(O)cc1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := Canonicalize(tt.forms[0])
			require.NoError(t, err)
			for _, f := range tt.forms[1:] {
				got, err := Canonicalize(f)
				require.NoError(t, err)
				assert.Equal(t, first, got, "form %s", f)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, s := range []string{
		"CCO",
		"Oc1ccccc1-c1ccccc1",
		"Clc1cccc(Cl)c1",
		"CC(=O)Oc1ccccc1C(=O)O",
		"[Na+].[Cl-]",
	} {
		once, err := Canonicalize(s)
		require.NoError(t, err, s)
		twice, err := Canonicalize(once)
		require.NoError(t, err, once)
		assert.Equal(t, once, twice, s)
	}
}

func TestCanonicalizeDistinguishesIsomers(t *testing.T) {
	ortho, err := Canonicalize("Clc1ccccc1Cl")
	require.NoError(t, err)
	meta, err := Canonicalize("Clc1cccc(Cl)c1")
	require.NoError(t, err)
	para, err := Canonicalize("Clc1ccc(Cl)cc1")
	require.NoError(t, err)

	assert.NotEqual(t, ortho, meta)
	assert.NotEqual(t, ortho, para)
	assert.NotEqual(t, meta, para)
}

// Chlorinating benzene at every non-empty subset of its six positions must
// collapse to exactly 12 distinct isomers (3 di-, 3 tri-, 3 tetra-, and one
// each of mono-, penta-, and hexa-substituted).
func TestCanonicalizeBenzeneChlorinationIsomers(t *testing.T) {
	seed, err := ParseSMILES("c1ccccc1")
	require.NoError(t, err)
	positions := seed.SubstitutablePositions(true)
	require.Len(t, positions, 6)

	seen := map[string]struct{}{}
	for mask := 1; mask < 1<<len(positions); mask++ {
		m := seed.Clone()
		for bit, pos := range positions {
			if mask&(1<<bit) == 0 {
				continue
			}
			_, err := m.Substitute(pos, "Cl")
			require.NoError(t, err)
		}
		canon, err := m.CanonicalSMILES()
		require.NoError(t, err)
		seen[canon] = struct{}{}
	}
	assert.Len(t, seen, 12)
}

func TestCanonicalizeParsesOwnOutput(t *testing.T) {
	for _, s := range []string{
		"c1ccc2ccccc2c1", // naphthalene, fused rings
		"C1CC1C2CC2",     // spiro-free bicyclic chain
		"[O-]C(=O)c1ccccc1",
	} {
		canon, err := Canonicalize(s)
		require.NoError(t, err, s)
		m, err := ParseSMILES(canon)
		require.NoError(t, err, canon)
		orig, err := ParseSMILES(s)
		require.NoError(t, err)
		assert.Equal(t, len(orig.Atoms), len(m.Atoms), s)
		assert.Equal(t, len(orig.Bonds), len(m.Bonds), s)
	}
}
