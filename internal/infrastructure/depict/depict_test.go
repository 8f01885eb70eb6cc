package depict

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtools/qsarpipe/internal/domain/molecule"
)

func mustParse(t *testing.T, s string) *molecule.Molecule {
	t.Helper()
	m, err := molecule.ParseSMILES(s)
	require.NoError(t, err)
	return m
}

func TestLayoutDeterministic(t *testing.T) {
	m := mustParse(t, "Oc1ccccc1-c1ccccc1")
	a := Layout(m)
	b := Layout(m)
	assert.Equal(t, a, b)
}

func TestLayoutSeparatesAtoms(t *testing.T) {
	m := mustParse(t, "c1ccccc1")
	pts := Layout(m)
	require.Len(t, pts, 6)
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			d := math.Hypot(pts[i].X-pts[j].X, pts[i].Y-pts[j].Y)
			assert.Greater(t, d, 0.3, "atoms %d and %d overlap", i, j)
		}
	}
	// Bonded atoms settle within a sane multiple of the ideal length.
	for _, b := range m.Bonds {
		d := math.Hypot(pts[b.From].X-pts[b.To].X, pts[b.From].Y-pts[b.To].Y)
		assert.Greater(t, d, idealBondLength*0.4)
		assert.Less(t, d, idealBondLength*2.5)
	}
}

func TestRenderPNG(t *testing.T) {
	tests := []struct {
		name   string
		smiles string
	}{
		{"phenol", "Oc1ccccc1"},
		{"chlorinated biphenyl", "Oc1ccc(Cl)cc1-c1ccccc1Cl"},
		{"single atom", "O"},
		{"charged", "[O-]C(=O)C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := RenderPNG(mustParse(t, tt.smiles), DefaultRenderOptions())
			require.NoError(t, err)
			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Greater(t, img.Bounds().Dx(), 0)
			assert.Greater(t, img.Bounds().Dy(), 0)
		})
	}
}

func TestRenderPNGEmptyMolecule(t *testing.T) {
	_, err := RenderPNG(molecule.NewMolecule(), DefaultRenderOptions())
	assert.Error(t, err)
}

func TestRenderToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mol.png")
	err := RenderToFile(mustParse(t, "Clc1ccccc1"), RenderOptions{MaxSize: 300, Title: "chlorobenzene"}, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestScatterPNG(t *testing.T) {
	actual := []float64{1.0, 2.0, 3.0, 4.0, 5.0}
	predicted := []float64{1.1, 1.9, 3.2, 3.8, 5.1}

	data, err := ScatterPNG(actual, predicted, DefaultScatterOptions())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestScatterPNGConstantSeries(t *testing.T) {
	// A degenerate value range must still render.
	data, err := ScatterPNG([]float64{2, 2, 2}, []float64{2, 2, 2}, DefaultScatterOptions())
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestScatterPNGBadInput(t *testing.T) {
	_, err := ScatterPNG(nil, nil, DefaultScatterOptions())
	assert.Error(t, err)
	_, err = ScatterPNG([]float64{1}, []float64{1, 2}, DefaultScatterOptions())
	assert.Error(t, err)
}
