package qubo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigClampsK(t *testing.T) {
	cases := []struct {
		name          string
		n             int
		riskTolerance float64
		wantK         int
	}{
		{"low tolerance still picks at least 2", 10, 0.0, 2},
		{"tolerance floor rounds down then +1", 10, 0.35, 4},
		{"tolerance can't exceed n", 5, 0.99, 5},
		{"n below 2 forces k=n", 1, 0.5, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig(c.n, c.riskTolerance, 1.0, 2.0)
			assert.Equal(t, c.wantK, cfg.K)
		})
	}
}

func TestDefaultConfigLambdaRiskFloor(t *testing.T) {
	cfg := DefaultConfig(10, 0.95, 1.0, 2.0)
	assert.InDelta(t, 0.1, cfg.LambdaRisk, 1e-9, "lambda_risk should floor at 0.1")

	cfg2 := DefaultConfig(10, 0.2, 1.0, 2.0)
	assert.InDelta(t, 0.8, cfg2.LambdaRisk, 1e-9)
}

func TestBuildProducesSymmetricLinearQuadraticKeys(t *testing.T) {
	mu := []float64{0.1, 0.2, 0.15}
	sigma := [][]float64{
		{0.04, 0.01, 0.00},
		{0.01, 0.09, 0.02},
		{0.00, 0.02, 0.05},
	}
	cfg := DefaultConfig(3, 0.5, 1.0, 2.0)
	bqm := Build(mu, sigma, cfg)

	require.Len(t, bqm.Linear, 3)
	for p := range bqm.Quadratic {
		assert.Less(t, p.I, p.J, "quadratic keys must be stored with I<J")
		assert.GreaterOrEqual(t, p.I, 0)
		assert.Less(t, p.J, bqm.NumVars)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	mu := []float64{0.12, -0.04, 0.3, 0.08}
	sigma := [][]float64{
		{0.05, 0.01, 0.00, 0.02},
		{0.01, 0.06, 0.01, 0.00},
		{0.00, 0.01, 0.08, 0.01},
		{0.02, 0.00, 0.01, 0.04},
	}
	cfg := DefaultConfig(4, 0.4, 1.0, 2.0)

	b1 := Build(mu, sigma, cfg)
	b2 := Build(mu, sigma, cfg)

	assert.Equal(t, b1.Offset, b2.Offset)
	assert.Equal(t, b1.Linear, b2.Linear)
	assert.Equal(t, b1.Quadratic, b2.Quadratic)
}
