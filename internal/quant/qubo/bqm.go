// Package qubo builds and solves the asset-selection QUBO (C2, C3):
// encode (return - risk + budget penalty) over N binary variables, then
// find the lowest-energy assignment by exact enumeration or simulated
// annealing depending on problem size.
package qubo

import "sort"

// Pair is an ordered (i,j) index pair, i<j, used as a quadratic-term key.
type Pair struct{ I, J int }

// BQM is a Binary Quadratic Model: E(x) = Σ linear[i]·x_i +
// Σ_{i<j} quadratic[(i,j)]·x_i·x_j + offset.
type BQM struct {
	NumVars   int
	Linear    map[int]float64
	Quadratic map[Pair]float64
	Offset    float64
}

// OrderedQuadratic returns the quadratic terms sorted by (i,j), for
// deterministic iteration (logging, hashing, tests).
func (b *BQM) OrderedQuadratic() []struct {
	Pair  Pair
	Coeff float64
} {
	out := make([]struct {
		Pair  Pair
		Coeff float64
	}, 0, len(b.Quadratic))
	for p, c := range b.Quadratic {
		out = append(out, struct {
			Pair  Pair
			Coeff float64
		}{p, c})
	}
	sort.Slice(out, func(a, bIdx int) bool {
		if out[a].Pair.I != out[bIdx].Pair.I {
			return out[a].Pair.I < out[bIdx].Pair.I
		}
		return out[a].Pair.J < out[bIdx].Pair.J
	})
	return out
}

// Energy evaluates E(x) for a complete binary assignment.
func (b *BQM) Energy(x []int) float64 {
	e := b.Offset
	for i, h := range b.Linear {
		e += h * float64(x[i])
	}
	for p, j := range b.Quadratic {
		e += j * float64(x[p.I]) * float64(x[p.J])
	}
	return e
}
