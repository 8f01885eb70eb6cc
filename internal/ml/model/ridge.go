package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Ridge is L2-regularized linear regression solved in closed form on
// mean-centered data, so the intercept is not penalized.
type Ridge struct {
	Lambda    float64   `msgpack:"lambda"`
	Weights   []float64 `msgpack:"weights"`
	Intercept float64   `msgpack:"intercept"`
}

func (r *Ridge) Family() string { return FamilyRidge }

func (r *Ridge) Fit(X *mat.Dense, y []float64) error {
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

	Xc := mat.NewDense(rows, cols, nil)
	yc := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		for c := 0; c < cols; c++ {
			Xc.Set(i, c, X.At(i, c)-xMean[c])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var A mat.Dense
	A.Mul(Xc.T(), Xc)
	for c := 0; c < cols; c++ {
		A.Set(c, c, A.At(c, c)+r.Lambda)
	}
	var b mat.VecDense
	b.MulVec(Xc.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&A, &b); err != nil {
		return errors.Wrap(err, errors.ErrCodeTrainFailed, "ridge normal equations are singular")
	}

	r.Weights = make([]float64, cols)
	r.Intercept = yMean
	for c := 0; c < cols; c++ {
		r.Weights[c] = w.AtVec(c)
		r.Intercept -= r.Weights[c] * xMean[c]
	}
	return nil
}

func (r *Ridge) Predict(X *mat.Dense) ([]float64, error) {
	return linearPredict(X, r.Weights, r.Intercept)
}

// linearPredict evaluates w·x + b per row, shared by Ridge and Lasso.
func linearPredict(X *mat.Dense, weights []float64, intercept float64) ([]float64, error) {
	if weights == nil {
		return nil, errors.New(errors.ErrCodeModelNotFitted, "linear model has no weights")
	}
	rows, cols := X.Dims()
	if cols != len(weights) {
		return nil, errors.Newf(errors.ErrCodeDimensionMismatch,
			"input has %d features, model expects %d", cols, len(weights))
	}
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		v := intercept
		for c := 0; c < cols; c++ {
			v += weights[c] * X.At(i, c)
		}
		out[i] = v
	}
	return out, nil
}
