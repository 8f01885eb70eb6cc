package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `smiles,mw,logp,ec50
CCO,46.07,-0.31,1.2
CCC,44.10,1.09,3.4
CCN,45.08,-0.57,2.2
`)
	d, err := LoadCSV(path, "smiles", "ec50", logging.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"CCO", "CCC", "CCN"}, d.IDs)
	assert.Equal(t, []string{"mw", "logp"}, d.Columns)
	assert.Equal(t, 3, d.NRows())
	assert.Equal(t, 2, d.NCols())
	assert.Equal(t, []float64{1.2, 3.4, 2.2}, d.Y)
	assert.InDelta(t, 46.07, d.X.At(0, 0), 1e-9)
}

func TestLoadCSVMissingTargetRowsDropped(t *testing.T) {
	path := writeCSV(t, `smiles,mw,ec50
CCO,46.07,1.2
CCC,44.10,
CCN,45.08,NA
CCCC,58.12,4.0
`)
	d, err := LoadCSV(path, "smiles", "ec50", logging.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"CCO", "CCCC"}, d.IDs)
	assert.Equal(t, []float64{1.2, 4.0}, d.Y)
}

func TestLoadCSVImputesMissingFeatures(t *testing.T) {
	path := writeCSV(t, `smiles,mw,ec50
CCO,10.0,1.0
CCC,,2.0
CCN,30.0,3.0
`)
	d, err := LoadCSV(path, "smiles", "ec50", logging.NewNopLogger())
	require.NoError(t, err)
	// Missing mw imputed with the column mean (10+30)/2.
	assert.InDelta(t, 20.0, d.X.At(1, 0), 1e-9)
}

func TestLoadCSVNoTargetColumn(t *testing.T) {
	path := writeCSV(t, `smiles,mw
CCO,46.07
CCC,44.10
`)
	d, err := LoadCSV(path, "smiles", "", logging.NewNopLogger())
	require.NoError(t, err)
	assert.Nil(t, d.Y)
	assert.Equal(t, 2, d.NRows())
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		id   string
		tgt  string
	}{
		{"missing id column", "a,b\n1,2\n", "smiles", ""},
		{"missing target column", "smiles,a\nCCO,1\n", "smiles", "ec50"},
		{"no data rows", "smiles,a,ec50\n", "smiles", "ec50"},
		{"no features", "smiles,ec50\nCCO,1\n", "smiles", "ec50"},
		{"all rows dropped", "smiles,a,ec50\nCCO,1,\n", "smiles", "ec50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(writeCSV(t, tt.body), tt.id, tt.tgt, logging.NewNopLogger())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetInvalid), "got %v", err)
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	d := synthetic(20)
	tr1, te1, err := Split(d, 0.25, 42)
	require.NoError(t, err)
	tr2, te2, err := Split(d, 0.25, 42)
	require.NoError(t, err)

	assert.Equal(t, te1.IDs, te2.IDs)
	assert.Equal(t, tr1.IDs, tr2.IDs)
	assert.Equal(t, 5, te1.NRows())
	assert.Equal(t, 15, tr1.NRows())

	// A different seed shuffles differently.
	_, te3, err := Split(d, 0.25, 7)
	require.NoError(t, err)
	assert.NotEqual(t, te1.IDs, te3.IDs)
}

func TestSplitInvalid(t *testing.T) {
	d := synthetic(3)
	_, _, err := Split(d, 0.0, 1)
	assert.Error(t, err)
	_, _, err = Split(d, 0.05, 1)
	assert.Error(t, err)
}

func TestKFold(t *testing.T) {
	folds, err := KFold(10, 3, 1)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	seen := map[int]int{}
	for _, f := range folds {
		assert.Equal(t, 10, len(f.TrainIdx)+len(f.TestIdx))
		for _, i := range f.TestIdx {
			seen[i]++
		}
		// Train and test are disjoint.
		inTest := map[int]bool{}
		for _, i := range f.TestIdx {
			inTest[i] = true
		}
		for _, i := range f.TrainIdx {
			assert.False(t, inTest[i])
		}
	}
	// Every row appears in exactly one test fold.
	assert.Len(t, seen, 10)
	for i, n := range seen {
		assert.Equal(t, 1, n, "row %d", i)
	}

	_, err = KFold(2, 5, 1)
	assert.Error(t, err)
}

func TestScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	s := FitScaler(X)
	assert.InDelta(t, 2.5, s.Mean[0], 1e-9)
	// Constant columns keep std 1.
	assert.Equal(t, 1.0, s.Std[1])

	out, err := s.Transform(X)
	require.NoError(t, err)
	sum := 0.0
	for r := 0; r < 4; r++ {
		sum += out.At(r, 0)
	}
	assert.InDelta(t, 0.0, sum, 1e-9)
	assert.InDelta(t, 0.0, out.At(0, 1), 1e-9)

	_, err = s.Transform(mat.NewDense(1, 3, nil))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDimensionMismatch))
}

func TestAlignTo(t *testing.T) {
	d := &Dataset{
		IDs:     []string{"a", "b"},
		Columns: []string{"x", "y", "z"},
		X: mat.NewDense(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		}),
	}
	got, err := d.AlignTo([]string{"z", "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "x"}, got.Columns)
	assert.Equal(t, 3.0, got.X.At(0, 0))
	assert.Equal(t, 4.0, got.X.At(1, 1))

	_, err = d.AlignTo([]string{"missing"})
	assert.Error(t, err)
}

func synthetic(n int) *Dataset {
	X := mat.NewDense(n, 2, nil)
	ids := make([]string, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, math.Sin(float64(i)))
		ids[i] = string(rune('a' + i))
		y[i] = float64(i) * 2
	}
	return &Dataset{IDs: ids, Columns: []string{"f0", "f1"}, X: X, Y: y}
}
