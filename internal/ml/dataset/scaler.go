package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Scaler standardizes features to zero mean and unit variance.  It is
// fitted on training data and persisted beside the model so prediction
// inputs transform identically.
type Scaler struct {
	Mean []float64 `msgpack:"mean"`
	Std  []float64 `msgpack:"std"`
}

// FitScaler computes per-column means and standard deviations.  Constant
// columns get a standard deviation of 1 so they pass through unchanged.
func FitScaler(X *mat.Dense) *Scaler {
	rows, cols := X.Dims()
	s := &Scaler{Mean: make([]float64, cols), Std: make([]float64, cols)}
	for c := 0; c < cols; c++ {
		sum := 0.0
		for r := 0; r < rows; r++ {
			sum += X.At(r, c)
		}
		mean := sum / float64(rows)
		variance := 0.0
		for r := 0; r < rows; r++ {
			d := X.At(r, c) - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(rows))
		if std < 1e-12 {
			std = 1
		}
		s.Mean[c] = mean
		s.Std[c] = std
	}
	return s
}

// Transform returns a standardized copy of X.
func (s *Scaler) Transform(X *mat.Dense) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != len(s.Mean) {
		return nil, errors.New(errors.ErrCodeDimensionMismatch, "scaler width does not match input").
			WithDetail(fmt.Sprintf("input=%d scaler=%d", cols, len(s.Mean)))
	}
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, c, (X.At(r, c)-s.Mean[c])/s.Std[c])
		}
	}
	return out, nil
}
