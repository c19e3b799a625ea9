package pipeline

import (
	"context"
	"testing"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticReturns(n int, base float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + 0.001*float64(i%5-2)
	}
	return out
}

func testAssets() []Asset {
	return []Asset{
		{Symbol: "BTC", CurrentWeight: 0.5, MaxWeight: 0.4, PriceUSD: 60000, DailyReturns: syntheticReturns(30, 0.001)},
		{Symbol: "ETH", CurrentWeight: 0.3, MaxWeight: 0.4, PriceUSD: 3000, DailyReturns: syntheticReturns(30, 0.0012)},
		{Symbol: "SOL", CurrentWeight: 0.2, MaxWeight: 0.4, PriceUSD: 150, DailyReturns: syntheticReturns(30, 0.0015)},
	}
}

func TestRunProducesTerminalStatus(t *testing.T) {
	cfg := config.Default()
	orch := NewOrchestrator(cfg, FixedEntropy{Ones: 50, Zeros: 50})

	state := orch.Run(context.Background(), "run-1", "user-1", 0.5, testAssets())
	require.NotNil(t, state.Market)
	require.NotNil(t, state.Execution)
	require.NotNil(t, state.Risk)
	assert.Contains(t, []Status{StatusApproved, StatusPending, StatusRejected}, state.Status)
}

func TestRunRejectsEmptyAssetList(t *testing.T) {
	cfg := config.Default()
	orch := NewOrchestrator(cfg, FixedEntropy{Ones: 1, Zeros: 1})

	state := orch.Run(context.Background(), "run-2", "user-1", 0.5, nil)
	assert.Equal(t, StatusError, state.Status)
	require.NotNil(t, state.Err)
	assert.Equal(t, KindInputInvalid, state.Err.Kind)
}

func TestRunSurfacesEntropyFailureAsExternalError(t *testing.T) {
	cfg := config.Default()
	orch := NewOrchestrator(cfg, FixedEntropy{Err: ErrEntropyUnavailable})

	state := orch.Run(context.Background(), "run-3", "user-1", 0.5, testAssets())
	assert.Equal(t, StatusError, state.Status)
	require.NotNil(t, state.Err)
	assert.Equal(t, KindExternal, state.Err.Kind)
}

func TestBuildPlanIsDeterministicGivenIdenticalState(t *testing.T) {
	cfg := config.Default()
	orch := NewOrchestrator(cfg, FixedEntropy{Ones: 50, Zeros: 50})
	state := orch.Run(context.Background(), "run-4", "user-1", 0.5, testAssets())
	require.NotEqual(t, StatusError, state.Status)

	plan1, err := BuildPlan(state, cfg.Risk.MaxPortfolioRisk)
	require.NoError(t, err)
	plan2, err := BuildPlan(state, cfg.Risk.MaxPortfolioRisk)
	require.NoError(t, err)

	assert.Equal(t, plan1.Hash, plan2.Hash)
}
