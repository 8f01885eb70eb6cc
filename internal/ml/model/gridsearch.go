package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/internal/ml/dataset"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Grid maps hyperparameter names to candidate values.
type Grid map[string][]float64

// DefaultGrids returns the hyperparameter search space per model family.
func DefaultGrids() map[string]Grid {
	return map[string]Grid{
		FamilyRidge: {"lambda": {0.01, 0.1, 1, 10, 100}},
		FamilyLasso: {"lambda": {0.001, 0.01, 0.1, 1}},
		FamilyKNN:   {"k": {1, 3, 5, 7}},
		FamilyForest: {
			"trees":     {50, 150},
			"max_depth": {4, 8, 12},
		},
	}
}

// CVResult is the cross-validated score of one hyperparameter combination.
type CVResult struct {
	Family   string
	Params   map[string]float64
	MeanRMSE float64
	MeanMAE  float64
	MeanR2   float64
}

// GridSearch evaluates every combination in the grid by k-fold
// cross-validation on the training set and returns the best combination
// (lowest mean RMSE) together with all per-combination results.  The
// returned Regressor is refitted on the full training set.
func GridSearch(family string, grid Grid, d *dataset.Dataset, folds int, seed int64, log logging.Logger) (Regressor, CVResult, []CVResult, error) {
	combos := expand(grid)
	if len(combos) == 0 {
		return nil, CVResult{}, nil, errors.New(errors.ErrCodeGridEmpty, "hyperparameter grid is empty").
			WithDetail("family=" + family)
	}
	kf, err := dataset.KFold(d.NRows(), folds, seed)
	if err != nil {
		return nil, CVResult{}, nil, err
	}

	results := make([]CVResult, 0, len(combos))
	best := CVResult{MeanRMSE: math.Inf(1)}
	for _, params := range combos {
		res, err := crossValidate(family, params, d, kf)
		if err != nil {
			log.Warn("skipping hyperparameter combination",
				logging.String("family", family),
				logging.String("params", formatParams(params)),
				logging.Err(err))
			continue
		}
		results = append(results, res)
		if res.MeanRMSE < best.MeanRMSE {
			best = res
		}
		log.Debug("cross-validated combination",
			logging.String("family", family),
			logging.String("params", formatParams(params)),
			logging.Float64("rmse", res.MeanRMSE))
	}
	if math.IsInf(best.MeanRMSE, 1) {
		return nil, CVResult{}, nil, errors.New(errors.ErrCodeTrainFailed,
			"no hyperparameter combination trained successfully").
			WithDetail("family=" + family)
	}

	final, err := New(family, best.Params)
	if err != nil {
		return nil, CVResult{}, nil, err
	}
	if err := final.Fit(d.X, d.Y); err != nil {
		return nil, CVResult{}, nil, err
	}
	log.Info("grid search complete",
		logging.String("family", family),
		logging.String("best_params", formatParams(best.Params)),
		logging.Float64("cv_rmse", best.MeanRMSE))
	return final, best, results, nil
}

func crossValidate(family string, params map[string]float64, d *dataset.Dataset, folds []dataset.Fold) (CVResult, error) {
	var rmse, mae, r2 float64
	r2Count := 0
	for _, fold := range folds {
		train := d.Subset(fold.TrainIdx)
		test := d.Subset(fold.TestIdx)

		m, err := New(family, params)
		if err != nil {
			return CVResult{}, err
		}
		if err := m.Fit(train.X, train.Y); err != nil {
			return CVResult{}, err
		}
		pred, err := m.Predict(test.X)
		if err != nil {
			return CVResult{}, err
		}
		metrics, err := Evaluate(test.Y, pred)
		if err != nil {
			return CVResult{}, err
		}
		rmse += metrics.RMSE
		mae += metrics.MAE
		if !math.IsNaN(metrics.R2) {
			r2 += metrics.R2
			r2Count++
		}
	}
	n := float64(len(folds))
	result := CVResult{
		Family:   family,
		Params:   params,
		MeanRMSE: rmse / n,
		MeanMAE:  mae / n,
		MeanR2:   math.NaN(),
	}
	if r2Count > 0 {
		result.MeanR2 = r2 / float64(r2Count)
	}
	return result, nil
}

// expand produces the cartesian product of the grid in deterministic
// order (parameter names sorted, values in declaration order).
func expand(grid Grid) []map[string]float64 {
	names := make([]string, 0, len(grid))
	for name, values := range grid {
		if len(values) == 0 {
			return nil
		}
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []map[string]float64{{}}
	for _, name := range names {
		var next []map[string]float64
		for _, combo := range combos {
			for _, v := range grid[name] {
				c := make(map[string]float64, len(combo)+1)
				for k, cv := range combo {
					c[k] = cv
				}
				c[name] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}

func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, name := range names {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%g", name, params[name])
	}
	return out
}
