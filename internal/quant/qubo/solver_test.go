package qubo

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveExactMatchesBruteForce(t *testing.T) {
	mu := []float64{0.2, -0.1, 0.15, 0.05}
	sigma := [][]float64{
		{0.04, 0.01, 0.00, 0.02},
		{0.01, 0.06, 0.01, 0.00},
		{0.00, 0.01, 0.05, 0.01},
		{0.02, 0.00, 0.01, 0.03},
	}
	cfg := DefaultConfig(4, 0.5, 1.0, 2.0)
	bqm := Build(mu, sigma, cfg)

	rng := rand.New(rand.NewPCG(1, 2))
	sol := Solve(bqm, rng, ExactMaxAssets, 10, 10)
	require.Equal(t, "exact", sol.SolverName)

	bestEnergy := sol.Energy
	for mask := 0; mask < 16; mask++ {
		x := make([]int, 4)
		for i := 0; i < 4; i++ {
			if mask&(1<<uint(i)) != 0 {
				x[i] = 1
			}
		}
		e := bqm.Energy(x)
		assert.GreaterOrEqual(t, e, bestEnergy-1e-9, "brute force found lower energy than solver")
	}
}

func TestSolveSAImprovesOnRandomForLargeN(t *testing.T) {
	n := 25
	mu := make([]float64, n)
	sigma := make([][]float64, n)
	for i := range mu {
		mu[i] = 0.1
		sigma[i] = make([]float64, n)
		sigma[i][i] = 0.05
	}
	cfg := DefaultConfig(n, 0.5, 1.0, 2.0)
	bqm := Build(mu, sigma, cfg)

	rng := rand.New(rand.NewPCG(7, 11))
	sol := Solve(bqm, rng, 20, 20, 200)
	require.Equal(t, "simulated_annealing", sol.SolverName)
	require.Len(t, sol.Assignment, n)

	randomRng := rand.New(rand.NewPCG(42, 99))
	worstRandomEnergy := bqm.Energy(randomAssignment(randomRng, n))
	assert.LessOrEqual(t, sol.Energy, worstRandomEnergy+1e-6)
}

func randomAssignment(rng *rand.Rand, n int) []int {
	x := make([]int, n)
	for i := range x {
		if rng.Float64() < 0.5 {
			x[i] = 1
		}
	}
	return x
}

func TestSolveEmptyBQM(t *testing.T) {
	bqm := &BQM{NumVars: 0, Offset: 1.5}
	rng := rand.New(rand.NewPCG(1, 1))
	sol := Solve(bqm, rng, 20, 10, 10)
	assert.Nil(t, sol.Assignment)
	assert.InDelta(t, 1.5, sol.Energy, 1e-9)
}
