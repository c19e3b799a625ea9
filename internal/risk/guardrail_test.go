package risk

import (
	"testing"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRiskConfig() config.Risk {
	return config.Risk{
		MaxPositionWeight:     0.40,
		MaxPortfolioRisk:      0.45,
		MinExpectedReturn:     0.01,
		MaxSolverTimeS:        5.0,
		ApprovalThresholdUSD:  50_000,
		ApprovalRiskThreshold: 0.30,
	}
}

func soundPlan() PlanInput {
	return PlanInput{
		OptimizerSucceeded: true,
		MaxSelectedWeight:  0.35,
		PortfolioRisk:      0.20,
		ExpectedReturn:     0.12,
		SolverTimeSeconds:  1.2,
		NumAssetsSelected:  4,
		MaxTradeUSD:        5_000,
	}
}

func TestEvaluateApprovesSoundPlan(t *testing.T) {
	g := NewGuardrail(testRiskConfig())
	checks, status := g.Evaluate(soundPlan())
	assert.Equal(t, StatusApproved, status)
	assert.True(t, checks.AllPassed())
}

func TestEvaluateRejectsOnAnyFailedCheck(t *testing.T) {
	g := NewGuardrail(testRiskConfig())

	cases := []struct {
		name   string
		mutate func(*PlanInput)
	}{
		{"optimizer failed", func(p *PlanInput) { p.OptimizerSucceeded = false }},
		{"position too concentrated", func(p *PlanInput) { p.MaxSelectedWeight = 0.9 }},
		{"risk too high", func(p *PlanInput) { p.PortfolioRisk = 0.9 }},
		{"return too low", func(p *PlanInput) { p.ExpectedReturn = 0.0 }},
		{"solver too slow", func(p *PlanInput) { p.SolverTimeSeconds = 10 }},
		{"no assets selected", func(p *PlanInput) { p.NumAssetsSelected = 0 }},
		{"slippage exceeds max", func(p *PlanInput) { p.SlippageExceedsMax = true }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := soundPlan()
			c.mutate(&in)
			checks, status := g.Evaluate(in)
			assert.Equal(t, StatusRejected, status)
			failure, ok := checks.FirstFailure()
			require.True(t, ok)
			assert.False(t, failure.Passed)
		})
	}
}

func TestEvaluateRoutesLargeApprovedTradesToPendingApproval(t *testing.T) {
	g := NewGuardrail(testRiskConfig())
	in := soundPlan()
	in.MaxTradeUSD = 60_000
	_, status := g.Evaluate(in)
	assert.Equal(t, StatusPendingApproval, status)
}

func TestEvaluateRoutesHighRiskApprovedPlansToPendingApproval(t *testing.T) {
	g := NewGuardrail(testRiskConfig())
	in := soundPlan()
	in.PortfolioRisk = 0.35
	_, status := g.Evaluate(in)
	assert.Equal(t, StatusPendingApproval, status)
}

func TestEvaluateApprovesExactlyAtApprovalThresholds(t *testing.T) {
	g := NewGuardrail(testRiskConfig())
	in := soundPlan()
	in.MaxTradeUSD = 50_000
	in.PortfolioRisk = 0.30
	_, status := g.Evaluate(in)
	assert.Equal(t, StatusApproved, status)
}

func TestEvaluateRejectsSlippageExceedsMax(t *testing.T) {
	g := NewGuardrail(testRiskConfig())
	in := soundPlan()
	in.SlippageExceedsMax = true
	checks, status := g.Evaluate(in)
	assert.Equal(t, StatusRejected, status)
	assert.False(t, checks.SlippageAcceptable.Passed)
}

func TestCheckOrderingIsDeterministic(t *testing.T) {
	c := GuardrailChecks{}
	ordered := c.Ordered()
	require.Len(t, ordered, 7)
}
