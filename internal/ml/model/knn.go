package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// KNN predicts the mean target of the K nearest training rows by
// Euclidean distance.  Fitting just memorizes the training data.
type KNN struct {
	K      int         `msgpack:"k"`
	TrainX [][]float64 `msgpack:"train_x"`
	TrainY []float64   `msgpack:"train_y"`
}

func (k *KNN) Family() string { return FamilyKNN }

func (k *KNN) Fit(X *mat.Dense, y []float64) error {
	if err := checkFitInput(X, y); err != nil {
		return err
	}
	if k.K < 1 {
		return errors.New(errors.ErrCodeInvalidParam, "knn requires k >= 1")
	}
	rows, _ := X.Dims()
	if k.K > rows {
		return errors.Newf(errors.ErrCodeTrainFailed, "k=%d exceeds %d training rows", k.K, rows)
	}

	k.TrainX = make([][]float64, rows)
	for i := 0; i < rows; i++ {
		k.TrainX[i] = mat.Row(nil, i, X)
	}
	k.TrainY = append([]float64(nil), y...)
	return nil
}

func (k *KNN) Predict(X *mat.Dense) ([]float64, error) {
	if k.TrainX == nil {
		return nil, errors.New(errors.ErrCodeModelNotFitted, "knn has no training data")
	}
	rows, cols := X.Dims()
	if cols != len(k.TrainX[0]) {
		return nil, errors.Newf(errors.ErrCodeDimensionMismatch,
			"input has %d features, model expects %d", cols, len(k.TrainX[0]))
	}

	out := make([]float64, rows)
	d2 := make([]float64, len(k.TrainX))
	order := make([]int, len(k.TrainX))
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, X)
		for j, tx := range k.TrainX {
			s := 0.0
			for c := range row {
				d := row[c] - tx[c]
				s += d * d
			}
			d2[j] = s
			order[j] = j
		}
		sort.Slice(order, func(a, b int) bool {
			if d2[order[a]] != d2[order[b]] {
				return d2[order[a]] < d2[order[b]]
			}
			return order[a] < order[b]
		})
		sum := 0.0
		for _, j := range order[:k.K] {
			sum += k.TrainY[j]
		}
		out[i] = sum / float64(k.K)
	}
	return out, nil
}
