package model

import (
	"math"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Metrics summarizes regression quality on a held-out set.
type Metrics struct {
	RMSE float64
	MAE  float64
	R2   float64
	N    int
}

// Evaluate computes RMSE, MAE, and R² for paired actual/predicted values.
func Evaluate(actual, predicted []float64) (Metrics, error) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return Metrics{}, errors.Newf(errors.ErrCodeInvalidParam,
			"metric series empty or mismatched: actual=%d predicted=%d", len(actual), len(predicted))
	}

	n := float64(len(actual))
	mean := 0.0
	for _, v := range actual {
		mean += v
	}
	mean /= n

	var sse, sae, sst float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sse += d * d
		sae += math.Abs(d)
		t := actual[i] - mean
		sst += t * t
	}

	r2 := math.NaN()
	if sst > 1e-12 {
		r2 = 1 - sse/sst
	}
	return Metrics{
		RMSE: math.Sqrt(sse / n),
		MAE:  sae / n,
		R2:   r2,
		N:    len(actual),
	}, nil
}
