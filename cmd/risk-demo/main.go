// Command risk-demo evaluates a handful of hand-built plan scenarios
// against the guardrail state machine and prints each check's verdict,
// for quickly sanity-checking a config.Root's risk thresholds.
package main

import (
	"fmt"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/Rajchodisetti/quantum-vault/internal/risk"
)

func main() {
	cfg := config.Default()
	guard := risk.NewGuardrail(cfg.Risk)

	scenarios := []struct {
		name string
		in   risk.PlanInput
	}{
		{"well within limits", risk.PlanInput{
			OptimizerSucceeded: true, MaxSelectedWeight: 0.3, PortfolioRisk: 0.2,
			ExpectedReturn: 0.12, SolverTimeSeconds: 0.8, NumAssetsSelected: 4, MaxTradeUSD: 4_000,
		}},
		{"large trade requires approval", risk.PlanInput{
			OptimizerSucceeded: true, MaxSelectedWeight: 0.35, PortfolioRisk: 0.25,
			ExpectedReturn: 0.1, SolverTimeSeconds: 1.1, NumAssetsSelected: 5, MaxTradeUSD: 80_000,
		}},
		{"over-concentrated position", risk.PlanInput{
			OptimizerSucceeded: true, MaxSelectedWeight: 0.75, PortfolioRisk: 0.3,
			ExpectedReturn: 0.1, SolverTimeSeconds: 1.1, NumAssetsSelected: 2, MaxTradeUSD: 4_000,
		}},
		{"solver too slow", risk.PlanInput{
			OptimizerSucceeded: true, MaxSelectedWeight: 0.2, PortfolioRisk: 0.2,
			ExpectedReturn: 0.1, SolverTimeSeconds: 9.5, NumAssetsSelected: 4, MaxTradeUSD: 4_000,
		}},
		{"leg exceeds max slippage impact", risk.PlanInput{
			OptimizerSucceeded: true, MaxSelectedWeight: 0.2, PortfolioRisk: 0.2,
			ExpectedReturn: 0.1, SolverTimeSeconds: 0.8, NumAssetsSelected: 4, MaxTradeUSD: 4_000,
			SlippageExceedsMax: true,
		}},
	}

	for _, s := range scenarios {
		checks, status := guard.Evaluate(s.in)
		fmt.Printf("=== %s => %s ===\n", s.name, status)
		for _, c := range checks.Ordered() {
			mark := "PASS"
			if !c.Passed {
				mark = "FAIL"
			}
			fmt.Printf("  [%s] %-20s %s\n", mark, c.Name, c.Detail)
		}
		fmt.Println()
	}
}
