package cov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateProducesSymmetricPSDCovariance(t *testing.T) {
	symbols := []string{"BTC", "ETH", "SOL"}
	rows := [][]float64{
		syntheticSeries(60, 0.015),
		syntheticSeries(60, 0.02),
		syntheticSeries(60, 0.03),
	}
	res := Estimate(symbols, rows, 20, 0.15, 0.25, 0.35)

	require.Len(t, res.Cov, 3)
	for i := range res.Cov {
		for j := range res.Cov[i] {
			assert.InDelta(t, res.Cov[i][j], res.Cov[j][i], 1e-9, "covariance must be symmetric")
		}
	}
	for i := range res.Cov {
		assert.GreaterOrEqual(t, res.Cov[i][i], 0.0, "variance must be non-negative")
	}
}

func TestEstimateCalibratesReturnsIntoConfiguredBand(t *testing.T) {
	symbols := []string{"A", "B", "C"}
	rows := [][]float64{
		syntheticSeries(40, 0.01),
		syntheticSeries(40, 0.02),
		syntheticSeries(40, 0.03),
	}
	center, spread := 0.15, 0.25
	res := Estimate(symbols, rows, 20, center, spread, 0.35)

	low, high := center-spread/2, center+spread/2
	for i, r := range res.ExpectedReturn {
		assert.GreaterOrEqualf(t, r, low-1e-6, "symbol %s below calibration band", symbols[i])
		assert.LessOrEqualf(t, r, high+1e-6, "symbol %s above calibration band", symbols[i])
	}
}

func TestEstimateHandlesShortHistoryFallback(t *testing.T) {
	symbols := []string{"NEW"}
	rows := [][]float64{{0.001}}
	res := Estimate(symbols, rows, 20, 0.15, 0.25, 0.35)
	require.Len(t, res.Forecasts, 1)
	assert.Equal(t, ModelEWMAFallback, res.Forecasts[0].Model)
}

func TestCorrectPSDLeavesAlreadyPSDMatrixUnchanged(t *testing.T) {
	m := [][]float64{
		{0.04, 0.00},
		{0.00, 0.09},
	}
	out := correctPSD(m)
	assert.InDelta(t, m[0][0], out[0][0], 1e-9)
	assert.InDelta(t, m[1][1], out[1][1], 1e-9)
}

func TestShrinkToTargetVolMatchesTarget(t *testing.T) {
	m := [][]float64{
		{0.16, 0.0},
		{0.0, 0.36},
	}
	out := shrinkToTargetVol(m, 0.35)
	avgVol := (math.Sqrt(out[0][0]) + math.Sqrt(out[1][1])) / 2
	assert.InDelta(t, 0.35, avgVol, 1e-6)
}
