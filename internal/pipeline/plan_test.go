package pipeline

import (
	"context"
	"testing"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantumScoreFormula(t *testing.T) {
	cases := []struct {
		name             string
		expectedRisk     float64
		maxPortfolioRisk float64
		want             int
	}{
		{"zero risk scores 100", 0.0, 0.45, 100},
		{"risk at the ceiling scores 0", 0.45, 0.45, 0},
		{"half the budget scores 50", 0.225, 0.45, 50},
		{"risk beyond ceiling clamps to 0", 0.9, 0.45, 0},
		{"zero ceiling never divides by zero", 0.1, 0.0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, quantumScore(c.expectedRisk, c.maxPortfolioRisk))
		})
	}
}

func TestBuildPlanSetsQuantumScoreFromRealizedRisk(t *testing.T) {
	cfg := config.Default()
	orch := NewOrchestrator(cfg, FixedEntropy{Ones: 50, Zeros: 50})
	state := orch.Run(context.Background(), "run-score", "user-1", 0.5, testAssets())
	require.NotNil(t, state.Market)

	plan, err := BuildPlan(state, cfg.Risk.MaxPortfolioRisk)
	require.NoError(t, err)

	want := quantumScore(state.Market.Weights.ExpectedRisk, cfg.Risk.MaxPortfolioRisk)
	assert.Equal(t, want, plan.QuantumScore)
	assert.GreaterOrEqual(t, plan.QuantumScore, 0)
	assert.LessOrEqual(t, plan.QuantumScore, 100)
}

func TestBuildPlanHashChangesWithSolverEnergy(t *testing.T) {
	cfg := config.Default()
	orch := NewOrchestrator(cfg, FixedEntropy{Ones: 50, Zeros: 50})

	state1 := orch.Run(context.Background(), "run-hash-1", "user-1", 0.5, testAssets())
	require.NotNil(t, state1.Market)
	plan1, err := BuildPlan(state1, cfg.Risk.MaxPortfolioRisk)
	require.NoError(t, err)

	// A different risk tolerance changes K/lambda_risk and therefore the
	// QUBO solution, so the audit proof hash must differ too.
	state2 := orch.Run(context.Background(), "run-hash-2", "user-1", 0.9, testAssets())
	require.NotNil(t, state2.Market)
	plan2, err := BuildPlan(state2, cfg.Risk.MaxPortfolioRisk)
	require.NoError(t, err)

	assert.NotEqual(t, plan1.Hash, plan2.Hash)
}

func TestBuildPlanCarriesQuantumOptimizedAndReason(t *testing.T) {
	cfg := config.Default()
	orch := NewOrchestrator(cfg, FixedEntropy{Ones: 50, Zeros: 50})
	state := orch.Run(context.Background(), "run-reason", "user-1", 0.5, testAssets())
	require.NotNil(t, state.Market)

	plan, err := BuildPlan(state, cfg.Risk.MaxPortfolioRisk)
	require.NoError(t, err)

	assert.True(t, plan.IsQuantumOptimized)
	assert.NotEmpty(t, plan.Reason)
	assert.Equal(t, state.Market.Summary, plan.Reason)
}

func TestRunAppliesSentimentAdjustmentToExpectedReturn(t *testing.T) {
	cfg := config.Default()

	lowTolerance := NewOrchestrator(cfg, FixedEntropy{Ones: 50, Zeros: 50}).
		Run(context.Background(), "run-low", "user-1", 0.1, testAssets())
	highTolerance := NewOrchestrator(cfg, FixedEntropy{Ones: 50, Zeros: 50}).
		Run(context.Background(), "run-high", "user-1", 0.9, testAssets())

	require.NotNil(t, lowTolerance.Market)
	require.NotNil(t, highTolerance.Market)

	for i := range lowTolerance.Market.Estimation.ExpectedReturn {
		assert.Less(t,
			lowTolerance.Market.Estimation.ExpectedReturn[i],
			highTolerance.Market.Estimation.ExpectedReturn[i],
			"a higher risk tolerance should shift every asset's expected return upward")
	}
	assert.NotEmpty(t, lowTolerance.Market.Summary)
	assert.NotEqual(t, lowTolerance.Market.Summary, highTolerance.Market.Summary)
}
