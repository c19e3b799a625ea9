package cov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func syntheticSeries(n int, vol float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		sign := 1.0
		if i%2 == 0 {
			sign = -1.0
		}
		out[i] = sign * vol * (1 + 0.05*math.Sin(float64(i)))
	}
	return out
}

func TestFitGARCHFallsBackToEWMAForShortHistory(t *testing.T) {
	returns := syntheticSeries(5, 0.01)
	fc := FitGARCH(returns, "TEST", 20)
	assert.Equal(t, ModelEWMAFallback, fc.Model)
	assert.Greater(t, fc.ForecastVol, 0.0)
}

func TestFitGARCHProducesStationaryOrFallsBack(t *testing.T) {
	returns := syntheticSeries(250, 0.015)
	fc := FitGARCH(returns, "TEST", 20)
	if fc.Model == ModelGARCH {
		assert.Less(t, fc.Persistence, 1.0)
		assert.GreaterOrEqual(t, fc.Alpha, 0.0)
		assert.GreaterOrEqual(t, fc.Beta, 0.0)
	}
	assert.Greater(t, fc.ForecastVol, 0.0)
}

func TestEWMAVolIsPositiveForNonzeroReturns(t *testing.T) {
	v := ewmaVol(syntheticSeries(40, 0.02), 10)
	assert.Greater(t, v, 0.0)
}

func TestEWMAVolHandlesEmptyInput(t *testing.T) {
	v := ewmaVol(nil, 10)
	assert.Greater(t, v, 0.0, "empty history still returns the documented 2% daily vol fallback, annualized")
}
