// Package model implements the regression model zoo used to predict the
// biological endpoint from descriptor vectors: ridge and lasso linear
// models, k-nearest-neighbors, and a random forest, plus k-fold grid
// search and msgpack persistence.
package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Model families.
const (
	FamilyRidge  = "ridge"
	FamilyLasso  = "lasso"
	FamilyKNN    = "knn"
	FamilyForest = "forest"
)

// Regressor is a trainable regression model.  Implementations carry all
// fitted state in exported msgpack-tagged fields so a persisted model can
// be reloaded and used for prediction directly.
type Regressor interface {
	// Family returns the model family name.
	Family() string
	// Fit trains on the feature matrix and target vector.
	Fit(X *mat.Dense, y []float64) error
	// Predict returns one prediction per input row.
	Predict(X *mat.Dense) ([]float64, error)
}

// New constructs an unfitted Regressor of the given family.  Unknown
// hyperparameters are ignored; missing ones get family defaults.
func New(family string, params map[string]float64) (Regressor, error) {
	get := func(name string, def float64) float64 {
		if v, ok := params[name]; ok {
			return v
		}
		return def
	}
	switch family {
	case FamilyRidge:
		return &Ridge{Lambda: get("lambda", 1.0)}, nil
	case FamilyLasso:
		return &Lasso{Lambda: get("lambda", 0.1)}, nil
	case FamilyKNN:
		return &KNN{K: int(get("k", 5))}, nil
	case FamilyForest:
		return &Forest{
			NTrees:   int(get("trees", 100)),
			MaxDepth: int(get("max_depth", 8)),
			MinLeaf:  int(get("min_leaf", 2)),
			Seed:     int64(get("seed", 1)),
		}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidParam, "unknown model family").
			WithDetail("family=" + family)
	}
}

// checkFitInput validates Fit arguments shared by all families.
func checkFitInput(X *mat.Dense, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.New(errors.ErrCodeTrainFailed, "empty training matrix")
	}
	if rows != len(y) {
		return errors.Newf(errors.ErrCodeDimensionMismatch,
			"target length %d does not match %d rows", len(y), rows)
	}
	return nil
}
