package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Forest is a bagged ensemble of CART regression trees with per-split
// feature subsampling.  A fixed seed makes training deterministic.
type Forest struct {
	NTrees   int   `msgpack:"n_trees"`
	MaxDepth int   `msgpack:"max_depth"`
	MinLeaf  int   `msgpack:"min_leaf"`
	Seed     int64 `msgpack:"seed"`

	Trees     []*treeNode `msgpack:"trees"`
	NFeatures int         `msgpack:"n_features"`
}

func (f *Forest) Family() string { return FamilyForest }

func (f *Forest) Fit(X *mat.Dense, y []float64) error {
	if err := checkFitInput(X, y); err != nil {
		return err
	}
	if f.NTrees < 1 {
		return errors.New(errors.ErrCodeInvalidParam, "forest requires at least one tree")
	}
	if f.MaxDepth < 1 {
		f.MaxDepth = 8
	}
	if f.MinLeaf < 1 {
		f.MinLeaf = 1
	}

	rows, cols := X.Dims()
	x := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		x[i] = mat.Row(nil, i, X)
	}

	mtry := int(math.Ceil(math.Sqrt(float64(cols))))
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(f.Seed))
	f.NFeatures = cols
	f.Trees = make([]*treeNode, f.NTrees)
	for t := 0; t < f.NTrees; t++ {
		// Bootstrap sample with replacement.
		sample := make([]int, rows)
		for i := range sample {
			sample[i] = rng.Intn(rows)
		}
		tb := &treeBuilder{
			x:        x,
			y:        y,
			maxDepth: f.MaxDepth,
			minLeaf:  f.MinLeaf,
			mtry:     mtry,
			rng:      rng,
		}
		f.Trees[t] = tb.build(sample, 0)
	}
	return nil
}

func (f *Forest) Predict(X *mat.Dense) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New(errors.ErrCodeModelNotFitted, "forest has no trees")
	}
	rows, cols := X.Dims()
	if cols != f.NFeatures {
		return nil, errors.Newf(errors.ErrCodeDimensionMismatch,
			"input has %d features, model expects %d", cols, f.NFeatures)
	}

	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, X)
		sum := 0.0
		for _, tree := range f.Trees {
			sum += tree.predict(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}
