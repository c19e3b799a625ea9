package qubo

import (
	"math"
	"math/rand/v2"
	"time"
)

// Solution is the best binary assignment found by a solver, plus its
// energy and provenance.
type Solution struct {
	Assignment []int
	Energy     float64
	SolverName string
	SolverTime time.Duration
}

// ExactMaxAssets is the N above which Solve switches from exhaustive
// enumeration to simulated annealing, per spec §4.3.
const ExactMaxAssets = 20

// Solve picks exact enumeration for N <= maxExact, else simulated
// annealing driven by rng (caller-supplied, for reproducibility; the
// pipeline passes a math/rand/v2.Rand seeded from crypto/rand).
func Solve(b *BQM, rng *rand.Rand, maxExact, numReads, numSweeps int) Solution {
	start := time.Now()
	if b.NumVars == 0 {
		return Solution{Assignment: nil, Energy: b.Offset, SolverName: "exact", SolverTime: time.Since(start)}
	}
	if b.NumVars <= maxExact {
		assignment, energy := solveExact(b)
		return Solution{Assignment: assignment, Energy: energy, SolverName: "exact", SolverTime: time.Since(start)}
	}
	assignment, energy := solveSA(b, rng, numReads, numSweeps)
	return Solution{Assignment: assignment, Energy: energy, SolverName: "simulated_annealing", SolverTime: time.Since(start)}
}

// solveExact scans all 2^N bitmasks and keeps the lowest-energy
// assignment. Deterministic — no randomness involved.
func solveExact(b *BQM) ([]int, float64) {
	n := b.NumVars
	best := make([]int, n)
	bestEnergy := math.Inf(1)
	total := 1 << uint(n)
	x := make([]int, n)
	for mask := 0; mask < total; mask++ {
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				x[i] = 1
			} else {
				x[i] = 0
			}
		}
		e := b.Energy(x)
		if e < bestEnergy {
			bestEnergy = e
			copy(best, x)
		}
	}
	return best, bestEnergy
}

// solveSA runs numReads independent simulated-annealing reads of
// numSweeps sweeps each, with a linear hot-to-cold temperature
// schedule, and keeps the best sample across all reads.
func solveSA(b *BQM, rng *rand.Rand, numReads, numSweeps int) ([]int, float64) {
	n := b.NumVars
	bestEnergy := math.Inf(1)
	best := make([]int, n)

	adjacency := buildAdjacency(b)

	for read := 0; read < numReads; read++ {
		x := make([]int, n)
		for i := range x {
			if rng.Float64() < 0.5 {
				x[i] = 1
			}
		}
		energy := b.Energy(x)

		const hotTemp = 10.0
		const coldTemp = 0.01
		for sweep := 0; sweep < numSweeps; sweep++ {
			frac := float64(sweep) / float64(maxInt(numSweeps-1, 1))
			temp := hotTemp*(1-frac) + coldTemp*frac

			for i := 0; i < n; i++ {
				delta := flipDelta(b, adjacency, x, i)
				if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
					x[i] = 1 - x[i]
					energy += delta
				}
			}
		}

		if energy < bestEnergy {
			bestEnergy = energy
			copy(best, x)
		}
	}

	return best, bestEnergy
}

// flipDelta computes the energy change from flipping bit i in place,
// without recomputing the full energy.
func flipDelta(b *BQM, adjacency map[int][]weightedNeighbor, x []int, i int) float64 {
	oldBit := x[i]
	newBit := 1 - oldBit
	h := b.Linear[i]
	delta := h * float64(newBit-oldBit)
	for _, nb := range adjacency[i] {
		delta += nb.weight * float64(x[nb.idx]) * float64(newBit-oldBit)
	}
	return delta
}

type weightedNeighbor struct {
	idx    int
	weight float64
}

func buildAdjacency(b *BQM) map[int][]weightedNeighbor {
	adj := make(map[int][]weightedNeighbor, b.NumVars)
	for p, w := range b.Quadratic {
		adj[p.I] = append(adj[p.I], weightedNeighbor{idx: p.J, weight: w})
		adj[p.J] = append(adj[p.J], weightedNeighbor{idx: p.I, weight: w})
	}
	return adj
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
