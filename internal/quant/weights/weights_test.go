package weights

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumWeights(w []float64) float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

func TestOptimizeSumsToOne(t *testing.T) {
	symbols := []string{"BTC", "ETH", "SOL"}
	mu := []float64{0.2, 0.15, 0.3}
	sigma := [][]float64{
		{0.04, 0.01, 0.02},
		{0.01, 0.05, 0.015},
		{0.02, 0.015, 0.09},
	}
	res := Optimize(symbols, mu, sigma, DefaultConfig())
	require.Len(t, res.Weight, 3)
	assert.InDelta(t, 1.0, sumWeights(res.Weight), 1e-6)
}

func TestOptimizeRespectsMaxWeight(t *testing.T) {
	symbols := []string{"BTC", "ETH", "SOL", "AVAX"}
	mu := []float64{0.5, 0.01, 0.01, 0.01}
	sigma := [][]float64{
		{0.01, 0, 0, 0},
		{0, 0.2, 0, 0},
		{0, 0, 0.2, 0},
		{0, 0, 0, 0.2},
	}
	cfg := Config{MaxWeight: 0.40, MinWeight: 0.05, MaxSimplexIterations: 50, MaxFloorIterations: 20}
	res := Optimize(symbols, mu, sigma, cfg)
	for i, w := range res.Weight {
		assert.LessOrEqualf(t, w, cfg.MaxWeight+1e-6, "symbol %s exceeded max weight", symbols[i])
	}
	assert.InDelta(t, 1.0, sumWeights(res.Weight), 1e-6)
}

func TestOptimizeRespectsMinWeightFloor(t *testing.T) {
	symbols := []string{"BTC", "ETH", "SOL", "AVAX", "SUI"}
	mu := []float64{0.9, 0.01, 0.01, 0.01, 0.01}
	sigma := make([][]float64, 5)
	for i := range sigma {
		sigma[i] = make([]float64, 5)
		sigma[i][i] = 0.05
	}
	cfg := Config{MaxWeight: 0.40, MinWeight: 0.05, MaxSimplexIterations: 50, MaxFloorIterations: 20}
	res := Optimize(symbols, mu, sigma, cfg)
	for i, w := range res.Weight {
		assert.GreaterOrEqualf(t, w, cfg.MinWeight-1e-6, "symbol %s fell below floor", symbols[i])
	}
}

func TestOptimizeSingleAssetIsFullyAllocated(t *testing.T) {
	res := Optimize([]string{"BTC"}, []float64{0.2}, [][]float64{{0.04}}, DefaultConfig())
	require.Len(t, res.Weight, 1)
	assert.InDelta(t, 1.0, res.Weight[0], 1e-9)
}

func TestOptimizeFallsBackWhenSigmaSingular(t *testing.T) {
	symbols := []string{"A", "B"}
	mu := []float64{0.1, 0.1}
	sigma := [][]float64{{0, 0}, {0, 0}}
	res := Optimize(symbols, mu, sigma, DefaultConfig())
	assert.Equal(t, DirectionUniform, res.Direction)
	assert.InDelta(t, 1.0, sumWeights(res.Weight), 1e-6)
	assert.False(t, math.IsNaN(res.Weight[0]))
}
