package model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

const (
	lassoMaxIter = 1000
	lassoTol     = 1e-6
)

// Lasso is L1-regularized linear regression fitted by cyclic coordinate
// descent on mean-centered data.
type Lasso struct {
	Lambda    float64   `msgpack:"lambda"`
	Weights   []float64 `msgpack:"weights"`
	Intercept float64   `msgpack:"intercept"`
}

func (l *Lasso) Family() string { return FamilyLasso }

func (l *Lasso) Fit(X *mat.Dense, y []float64) error {
	if err := checkFitInput(X, y); err != nil {
		return err
	}
	rows, cols := X.Dims()

	xMean := make([]float64, cols)
	for c := 0; c < cols; c++ {
		for i := 0; i < rows; i++ {
			xMean[c] += X.At(i, c)
		}
		xMean[c] /= float64(rows)
	}
	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(rows)

	// Column-major centered copy, plus per-column squared norms.
	col := make([][]float64, cols)
	norm2 := make([]float64, cols)
	for c := 0; c < cols; c++ {
		col[c] = make([]float64, rows)
		for i := 0; i < rows; i++ {
			v := X.At(i, c) - xMean[c]
			col[c][i] = v
			norm2[c] += v * v
		}
	}

	w := make([]float64, cols)
	resid := make([]float64, rows)
	for i := 0; i < rows; i++ {
		resid[i] = y[i] - yMean
	}

	penalty := l.Lambda * float64(rows)
	for iter := 0; iter < lassoMaxIter; iter++ {
		maxDelta := 0.0
		for c := 0; c < cols; c++ {
			if norm2[c] < 1e-12 {
				continue
			}
			// Partial residual correlation with feature c.
			rho := 0.0
			for i := 0; i < rows; i++ {
				rho += col[c][i] * (resid[i] + col[c][i]*w[c])
			}
			next := softThreshold(rho, penalty) / norm2[c]
			if delta := next - w[c]; delta != 0 {
				for i := 0; i < rows; i++ {
					resid[i] -= delta * col[c][i]
				}
				if ad := math.Abs(delta); ad > maxDelta {
					maxDelta = ad
				}
				w[c] = next
			}
		}
		if maxDelta < lassoTol {
			break
		}
	}

	l.Weights = w
	l.Intercept = yMean
	for c := 0; c < cols; c++ {
		l.Intercept -= w[c] * xMean[c]
	}
	return nil
}

func (l *Lasso) Predict(X *mat.Dense) ([]float64, error) {
	return linearPredict(X, l.Weights, l.Intercept)
}

// NonzeroWeights counts the features the fitted model actually uses.
func (l *Lasso) NonzeroWeights() (int, error) {
	if l.Weights == nil {
		return 0, errors.New(errors.ErrCodeModelNotFitted, "lasso has no weights")
	}
	n := 0
	for _, w := range l.Weights {
		if w != 0 {
			n++
		}
	}
	return n, nil
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}
