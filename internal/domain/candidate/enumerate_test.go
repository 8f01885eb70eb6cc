package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

func defaultOpts() Options {
	return Options{
		Substituent:       "Cl",
		AromaticOnly:      true,
		MaxPositions:      20,
		FingerprintBits:   1024,
		FingerprintRadius: 2,
	}
}

func TestEnumerateBenzeneChlorination(t *testing.T) {
	seed, err := molecule.ParseSMILES("c1ccccc1")
	require.NoError(t, err)

	cands, err := Enumerate(seed, defaultOpts(), logging.NewNopLogger())
	require.NoError(t, err)

	// Benzene has 12 distinct chloro isomers across all substitution
	// degrees, far fewer than the 63 raw subsets.
	assert.Len(t, cands, 12)

	byCount := map[int]int{}
	seen := map[string]struct{}{}
	for i, c := range cands {
		assert.Equal(t, i, c.Index)
		assert.NotEmpty(t, c.SMILES)
		_, dup := seen[c.SMILES]
		assert.False(t, dup, "duplicate canonical SMILES %s", c.SMILES)
		seen[c.SMILES] = struct{}{}
		byCount[c.SubstituentCount()]++
		assert.Equal(t, c.SubstituentCount(), c.Mol.CountElement("Cl"))
	}
	assert.Equal(t, map[int]int{1: 1, 2: 3, 3: 3, 4: 3, 5: 1, 6: 1}, byCount)
}

func TestEnumerateDeterministic(t *testing.T) {
	seed, err := molecule.ParseSMILES("Oc1ccccc1-c1ccccc1")
	require.NoError(t, err)

	a, err := Enumerate(seed, defaultOpts(), logging.NewNopLogger())
	require.NoError(t, err)
	b, err := Enumerate(seed.Clone(), defaultOpts(), logging.NewNopLogger())
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].SMILES, b[i].SMILES)
		assert.Equal(t, a[i].Mask, b[i].Mask)
	}
}

func TestEnumerateNoSubstitutableSites(t *testing.T) {
	// Hexachlorobenzene has no aromatic C-H left.
	seed, err := molecule.ParseSMILES("Clc1c(Cl)c(Cl)c(Cl)c(Cl)c1Cl")
	require.NoError(t, err)

	_, err = Enumerate(seed, defaultOpts(), logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoSubstitutableSites))
}

func TestEnumerateTooManySites(t *testing.T) {
	seed, err := molecule.ParseSMILES("c1ccccc1")
	require.NoError(t, err)

	opts := defaultOpts()
	opts.MaxPositions = 3
	_, err = Enumerate(seed, opts, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTooManySites))
}

func TestEnumerateCountBound(t *testing.T) {
	seed, err := molecule.ParseSMILES("Oc1ccccc1")
	require.NoError(t, err)
	positions := seed.SubstitutablePositions(true)

	cands, err := Enumerate(seed, defaultOpts(), logging.NewNopLogger())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(cands), (1<<len(positions))-1)
	assert.NotEmpty(t, cands)
}

func TestFilterDiverse(t *testing.T) {
	seed, err := molecule.ParseSMILES("c1ccccc1")
	require.NoError(t, err)

	all, err := Enumerate(seed, defaultOpts(), logging.NewNopLogger())
	require.NoError(t, err)

	// A threshold of nearly 1 keeps everything.
	loose := FilterDiverse(all, 0.999, logging.NewNopLogger())
	assert.Len(t, loose, len(all))

	// A tight threshold must drop some near-identical isomers but always
	// keeps the first candidate.
	tight := FilterDiverse(all, 0.3, logging.NewNopLogger())
	assert.NotEmpty(t, tight)
	assert.Less(t, len(tight), len(all))
	assert.Equal(t, all[0].SMILES, tight[0].SMILES)
}

func TestEnumerateAppliesDiversityFilter(t *testing.T) {
	seed, err := molecule.ParseSMILES("c1ccccc1")
	require.NoError(t, err)

	opts := defaultOpts()
	opts.MaxSimilarity = 0.3
	filtered, err := Enumerate(seed, opts, logging.NewNopLogger())
	require.NoError(t, err)

	unfiltered, err := Enumerate(seed.Clone(), defaultOpts(), logging.NewNopLogger())
	require.NoError(t, err)

	assert.Less(t, len(filtered), len(unfiltered))
	for i, c := range filtered {
		assert.Equal(t, i, c.Index)
	}
}
