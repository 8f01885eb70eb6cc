package model

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a CART regression tree.  Exported fields keep
// the structure msgpack-serializable inside a Forest.
type treeNode struct {
	Leaf      bool      `msgpack:"leaf"`
	Value     float64   `msgpack:"value"`
	Feature   int       `msgpack:"feature"`
	Threshold float64   `msgpack:"threshold"`
	Left      *treeNode `msgpack:"left,omitempty"`
	Right     *treeNode `msgpack:"right,omitempty"`
}

// treeBuilder grows one tree over row indices into shared training data.
type treeBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
	// mtry is the number of candidate features per split.
	mtry int
	rng  *rand.Rand
}

func (tb *treeBuilder) build(idx []int, depth int) *treeNode {
	if depth >= tb.maxDepth || len(idx) < 2*tb.minLeaf || constantTarget(tb.y, idx) {
		return &treeNode{Leaf: true, Value: meanAt(tb.y, idx)}
	}

	feature, threshold, ok := tb.bestSplit(idx)
	if !ok {
		return &treeNode{Leaf: true, Value: meanAt(tb.y, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if tb.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < tb.minLeaf || len(right) < tb.minLeaf {
		return &treeNode{Leaf: true, Value: meanAt(tb.y, idx)}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      tb.build(left, depth+1),
		Right:     tb.build(right, depth+1),
	}
}

// bestSplit scans a random feature subset for the threshold minimizing the
// weighted sum of squared errors of the two children.
func (tb *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	nFeatures := len(tb.x[0])
	candidates := tb.rng.Perm(nFeatures)
	if tb.mtry < nFeatures {
		candidates = candidates[:tb.mtry]
	}

	bestSSE := sseAt(tb.y, idx)
	for _, f := range candidates {
		// Sort row indices by this feature's value.
		sorted := append([]int(nil), idx...)
		sort.Slice(sorted, func(a, b int) bool { return tb.x[sorted[a]][f] < tb.x[sorted[b]][f] })

		// Prefix sums let every threshold be evaluated in O(1).
		sum, sum2 := 0.0, 0.0
		prefix := make([]float64, len(sorted)+1)
		prefix2 := make([]float64, len(sorted)+1)
		for i, ri := range sorted {
			sum += tb.y[ri]
			sum2 += tb.y[ri] * tb.y[ri]
			prefix[i+1] = sum
			prefix2[i+1] = sum2
		}

		for i := tb.minLeaf; i <= len(sorted)-tb.minLeaf; i++ {
			// Splits only between distinct feature values.
			if tb.x[sorted[i-1]][f] == tb.x[sorted[i]][f] {
				continue
			}
			nl, nr := float64(i), float64(len(sorted)-i)
			sseL := prefix2[i] - prefix[i]*prefix[i]/nl
			sumR := prefix[len(sorted)] - prefix[i]
			sse2R := prefix2[len(sorted)] - prefix2[i]
			sseR := sse2R - sumR*sumR/nr
			if sse := sseL + sseR; sse < bestSSE-1e-12 {
				bestSSE = sse
				feature = f
				threshold = (tb.x[sorted[i-1]][f] + tb.x[sorted[i]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func meanAt(y []float64, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func sseAt(y []float64, idx []int) float64 {
	mean := meanAt(y, idx)
	sse := 0.0
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return sse
}

func constantTarget(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
