package pipeline

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
	"github.com/Rajchodisetti/quantum-vault/internal/observ"
	"github.com/Rajchodisetti/quantum-vault/internal/quant/cov"
	"github.com/Rajchodisetti/quantum-vault/internal/quant/qubo"
	"github.com/Rajchodisetti/quantum-vault/internal/quant/slippage"
	"github.com/Rajchodisetti/quantum-vault/internal/quant/weights"
	"github.com/Rajchodisetti/quantum-vault/internal/risk"
)

// Orchestrator runs the Market -> Execution -> Risk pipeline as one
// synchronous call chain — no extra goroutines, matching the
// teacher's decision.Evaluate being a plain synchronous function.
type Orchestrator struct {
	cfg       config.Root
	guardrail *risk.Guardrail
	slip      *slippage.Estimator
	entropy   Entropy
}

func NewOrchestrator(cfg config.Root, entropy Entropy) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		guardrail: risk.NewGuardrail(cfg.Risk),
		slip: &slippage.Estimator{
			DefaultParams:    slippage.ImpactParams{Alpha: cfg.Quant.Impact.DefaultAlpha, Beta: cfg.Quant.Impact.DefaultBeta},
			PerAsset:         toImpactParams(cfg.Quant.Impact.PerAsset),
			DailyVolumeUSD:   cfg.Quant.Impact.DailyVolumeUSD,
			BaseUnitDecimals: cfg.Quant.Impact.BaseUnitDecimals,
			SafetyMarginBps:  cfg.Quant.Impact.SafetyMarginBps,
			MaxImpactPct:     cfg.Quant.Impact.MaxImpactPct,
		},
		entropy: entropy,
	}
}

func toImpactParams(m map[string]config.AssetImpact) map[string]slippage.ImpactParams {
	out := make(map[string]slippage.ImpactParams, len(m))
	for k, v := range m {
		out[k] = slippage.ImpactParams{Alpha: v.Alpha, Beta: v.Beta}
	}
	return out
}

// Run executes the full pipeline against the given universe of assets
// for one caller's user ID and risk tolerance (spec §1, §3). riskTolerance
// is a per-request input in [0,1] — it is never derived from config, so
// the same universe can be optimized differently for different callers.
func (o *Orchestrator) Run(ctx context.Context, runID, userID string, riskTolerance float64, assets []Asset) *State {
	state := &State{
		RunID: runID, UserID: userID, RiskTolerance: riskTolerance,
		Assets: assets, BaseUSD: o.cfg.BaseUSD, Status: StatusRunning,
	}

	if err := o.runMarket(state); err != nil {
		state.Status = StatusError
		state.Err = err
		observ.IncCounter("pipeline_runs_total", map[string]string{"status": string(StatusError)})
		observ.RelayerMetrics().PipelineRun(string(StatusError))
		return state
	}

	if err := o.runExecution(ctx, state); err != nil {
		state.Status = StatusError
		state.Err = err
		observ.RelayerMetrics().PipelineRun(string(StatusError))
		return state
	}

	o.runRisk(state)
	observ.RelayerMetrics().PipelineRun(string(state.Status))
	return state
}

// runMarket implements C1-C4: estimate returns/covariance, build and
// solve the selection QUBO, then compute continuous weights over the
// selected subset.
func (o *Orchestrator) runMarket(state *State) *Error {
	assets := state.Assets
	if len(assets) == 0 {
		return newError(KindInputInvalid, "market", fmt.Errorf("no assets supplied"))
	}

	symbols := make([]string, len(assets))
	rows := make([][]float64, len(assets))
	for i, a := range assets {
		symbols[i] = a.Symbol
		rows[i] = a.DailyReturns
	}

	est := cov.Estimate(symbols, rows, o.cfg.Quant.MinGarchObs, o.cfg.Quant.ReturnCenter, o.cfg.Quant.ReturnSpread, o.cfg.Quant.TargetAvgVol)

	riskTolerance := state.RiskTolerance
	sentimentDelta := (riskTolerance - 0.5) * 0.05
	for i := range est.ExpectedReturn {
		est.ExpectedReturn[i] += sentimentDelta
	}
	summary := fmt.Sprintf(
		"risk_tolerance=%.2f applied sentiment adjustment %+.4f to expected return across %d assets",
		riskTolerance, sentimentDelta, len(symbols))

	buildCfg := qubo.DefaultConfig(len(symbols), riskTolerance, o.cfg.Quant.LambdaReturn, o.cfg.Quant.LambdaBudget)
	bqm := qubo.Build(est.ExpectedReturn, est.Cov, buildCfg)

	rng := newSeededRand()
	solution := qubo.Solve(bqm, rng, o.cfg.Quant.ExactMaxAssets, o.cfg.Quant.NumReads, o.cfg.Quant.NumSweeps)

	selected := selectedIndices(solution.Assignment)
	if len(selected) == 0 {
		state.Market = &MarketResult{Estimation: est, Selected: selected, BQM: bqm, Solution: solution, Summary: summary}
		return nil
	}

	muS := subsetVector(est.ExpectedReturn, selected)
	sigmaS := subsetMatrix(est.Cov, selected)
	subsetSymbols := make([]string, len(selected))
	maxW := make([]float64, len(selected))
	for i, idx := range selected {
		subsetSymbols[i] = symbols[idx]
		maxW[i] = assets[idx].MaxWeight
	}

	wcfg := weights.DefaultConfig()
	wcfg.MaxWeight = o.cfg.Risk.MaxPositionWeight
	wcfg.MinWeight = o.cfg.Quant.MinWeight
	wres := weights.Optimize(subsetSymbols, muS, sigmaS, wcfg)

	state.Market = &MarketResult{Estimation: est, Selected: selected, BQM: bqm, Solution: solution, Weights: wres, Summary: summary}
	return nil
}

// runExecution implements C5 (slippage) plus the entropy-sourced
// anti-front-running jitter draw before a plan is ever submitted.
func (o *Orchestrator) runExecution(ctx context.Context, state *State) *Error {
	if state.Market == nil || len(state.Market.Selected) == 0 {
		state.Execution = &ExecutionResult{}
		return nil
	}

	estimates := make([]slippage.Estimate, 0, len(state.Market.Selected))
	maxTradeUSD := 0.0
	for i, idx := range state.Market.Selected {
		asset := state.Assets[idx]
		w := state.Market.Weights.Weight[i]
		deltaWeight := w - asset.CurrentWeight
		tradeUSD := absFloat(deltaWeight) * state.BaseUSD
		if tradeUSD <= 0 {
			continue
		}
		est := o.slip.Estimate(asset.Symbol, tradeUSD, priceOrDefault(asset.PriceUSD))
		estimates = append(estimates, est)
		if tradeUSD > maxTradeUSD {
			maxTradeUSD = tradeUSD
		}
	}

	ones, zeros, err := o.entropy.Draw(ctx, o.cfg.Entropy.Shots)
	if err != nil {
		observ.RelayerMetrics().RNGFailed()
		return newError(KindExternal, "execution", fmt.Errorf("entropy draw: %w", err))
	}
	observ.RelayerMetrics().RNGTriggered()

	state.Execution = &ExecutionResult{Slippage: estimates, MaxTradeUSD: maxTradeUSD, JitterOnes: ones, JitterZeros: zeros}
	return nil
}

// runRisk implements C6: evaluate the seven guardrail checks and set
// the terminal status.
func (o *Orchestrator) runRisk(state *State) {
	if state.Market == nil {
		state.Risk = &RiskResult{Status: risk.StatusRejected}
		state.Status = StatusRejected
		return
	}

	maxWeight := 0.0
	for _, w := range state.Market.Weights.Weight {
		if w > maxWeight {
			maxWeight = w
		}
	}

	slippageExceedsMax := false
	if state.Execution != nil {
		for _, est := range state.Execution.Slippage {
			if est.ExceedsMaxImpact {
				slippageExceedsMax = true
				break
			}
		}
	}

	in := risk.PlanInput{
		OptimizerSucceeded: state.Market.Solution.Assignment != nil || len(state.Market.Selected) > 0,
		MaxSelectedWeight:  maxWeight,
		PortfolioRisk:      state.Market.Weights.ExpectedRisk,
		ExpectedReturn:     state.Market.Weights.ExpectedReturn,
		SolverTimeSeconds:  state.Market.Solution.SolverTime.Seconds(),
		NumAssetsSelected:  len(state.Market.Selected),
		MaxTradeUSD:        valueOr(state.Execution, func(e *ExecutionResult) float64 { return e.MaxTradeUSD }),
		SlippageExceedsMax: slippageExceedsMax,
	}

	checks, status := o.guardrail.Evaluate(in)
	state.Risk = &RiskResult{Checks: checks, Status: status}

	switch status {
	case risk.StatusApproved:
		state.Status = StatusApproved
	case risk.StatusPendingApproval:
		state.Status = StatusPending
	default:
		state.Status = StatusRejected
	}
}

func valueOr(e *ExecutionResult, f func(*ExecutionResult) float64) float64 {
	if e == nil {
		return 0
	}
	return f(e)
}

func selectedIndices(assignment []int) []int {
	out := make([]int, 0)
	for i, bit := range assignment {
		if bit == 1 {
			out = append(out, i)
		}
	}
	return out
}

func subsetVector(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

func subsetMatrix(m [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, ri := range idx {
		out[i] = make([]float64, len(idx))
		for j, rj := range idx {
			out[i][j] = m[ri][rj]
		}
	}
	return out
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func priceOrDefault(p float64) float64 {
	if p <= 0 {
		return 1.0
	}
	return p
}

// newSeededRand draws a 128-bit seed from the OS CSPRNG and returns a
// math/rand/v2 source for the simulated-annealing solver, so solver
// runs are unpredictable across pipeline invocations but internally
// reproducible given the same seed.
func newSeededRand() *rand.Rand {
	var seed [16]byte
	_, _ = crand.Read(seed[:])
	s1 := binary.LittleEndian.Uint64(seed[:8])
	s2 := binary.LittleEndian.Uint64(seed[8:])
	return rand.New(rand.NewPCG(s1, s2))
}
