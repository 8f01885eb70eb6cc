package dataset

import (
	"math/rand"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Split shuffles rows with the given seed and carves off testFraction of
// them as a held-out test set.
func Split(d *Dataset, testFraction float64, seed int64) (train, test *Dataset, err error) {
	n := d.NRows()
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.New(errors.ErrCodeInvalidParam, "test fraction must be in (0,1)")
	}
	nTest := int(float64(n) * testFraction)
	if nTest == 0 || nTest == n {
		return nil, nil, errors.New(errors.ErrCodeDatasetInvalid, "dataset too small to split")
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return d.Subset(perm[nTest:]), d.Subset(perm[:nTest]), nil
}

// Fold is one cross-validation fold.
type Fold struct {
	TrainIdx []int
	TestIdx  []int
}

// KFold partitions n rows into k shuffled folds.
func KFold(n, k int, seed int64) ([]Fold, error) {
	if k < 2 || n < k {
		return nil, errors.New(errors.ErrCodeInvalidParam, "need at least k rows and k >= 2 for k-fold")
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	folds := make([]Fold, k)
	for i, ri := range perm {
		f := i % k
		folds[f].TestIdx = append(folds[f].TestIdx, ri)
	}
	for f := range folds {
		inTest := make(map[int]bool, len(folds[f].TestIdx))
		for _, ri := range folds[f].TestIdx {
			inTest[ri] = true
		}
		for _, ri := range perm {
			if !inTest[ri] {
				folds[f].TrainIdx = append(folds[f].TrainIdx, ri)
			}
		}
	}
	return folds, nil
}
