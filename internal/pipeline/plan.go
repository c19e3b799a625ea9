package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// TradeLeg is one asset's target allocation within a Plan.
type TradeLeg struct {
	Symbol          string
	TargetWeight    float64
	DeltaWeight     float64
	TradeUSD        float64
	AmountBaseUnits uint64
	MinOutUSD       float64
	MinOutBaseUnits uint64
	VenueHint       string
}

// Plan is the audit-proof record of a single rebalance decision: every
// field that fed the decision is captured so the Hash can be
// recomputed and verified later.
type Plan struct {
	RunID     string
	UserID    string
	CreatedAt time.Time
	Trades    []TradeLeg

	// IsQuantumOptimized is true when the QUBO/SA solver actually
	// selected this plan's assets, false for a plan that fell back to
	// an empty or degenerate selection.
	IsQuantumOptimized bool
	// QuantumScore is in [0,100]: clamp(round(100*(1-expected_risk/
	// MAX_PORTFOLIO_RISK))) (spec §4.8) — higher means the realized
	// portfolio risk used less of the configured risk budget.
	QuantumScore int
	// Reason is a human-readable rationale for this plan, surfaced to
	// the submitter and to operators reviewing a pending approval.
	Reason string
	// Hash is the audit_proof_hash: SHA-256 of the canonical JSON
	// encoding of the QUBO allocation, weights, expected return,
	// expected risk, and solver energy (spec §3, §4.8).
	Hash string
}

// BuildPlan assembles the final Plan from a completed pipeline run.
// maxPortfolioRisk is the guardrail's risk ceiling (config.Risk.
// MaxPortfolioRisk), the denominator QuantumScore is computed against.
// Trades are ordered by descending target weight, breaking ties
// lexicographically by symbol, so the same inputs always produce the
// same trade ordering and therefore the same hash.
func BuildPlan(state *State, maxPortfolioRisk float64) (Plan, error) {
	if state.Market == nil || state.Execution == nil {
		return Plan{}, fmt.Errorf("build plan: pipeline did not complete market/execution stages")
	}

	bySymbol := make(map[string]TradeLeg, len(state.Execution.Slippage))
	for _, est := range state.Execution.Slippage {
		bySymbol[est.Symbol] = TradeLeg{
			Symbol: est.Symbol, TradeUSD: est.TradeUSD, AmountBaseUnits: est.TradeBaseUnits,
			MinOutUSD: est.MinOutUSD, MinOutBaseUnits: est.MinOutBaseUnits, VenueHint: "default",
		}
	}
	for i, idx := range state.Market.Selected {
		symbol := state.Assets[idx].Symbol
		leg := bySymbol[symbol]
		leg.Symbol = symbol
		leg.TargetWeight = state.Market.Weights.Weight[i]
		leg.DeltaWeight = leg.TargetWeight - state.Assets[idx].CurrentWeight
		bySymbol[symbol] = leg
	}

	trades := make([]TradeLeg, 0, len(bySymbol))
	for _, leg := range bySymbol {
		trades = append(trades, leg)
	}
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].TargetWeight != trades[j].TargetWeight {
			return trades[i].TargetWeight > trades[j].TargetWeight
		}
		return trades[i].Symbol < trades[j].Symbol
	})

	hash, err := hashPlan(state)
	if err != nil {
		return Plan{}, fmt.Errorf("build plan: %w", err)
	}

	plan := Plan{
		RunID: state.RunID, UserID: state.UserID, CreatedAt: time.Now().UTC(), Trades: trades,
		IsQuantumOptimized: state.Market.Solution.Assignment != nil && len(state.Market.Selected) > 0,
		QuantumScore:       quantumScore(state.Market.Weights.ExpectedRisk, maxPortfolioRisk),
		Reason:             planReason(state),
		Hash:               hash,
	}
	return plan, nil
}

// quantumScore is clamp(round(100*(1-expectedRisk/maxPortfolioRisk)),
// 0, 100) per spec §4.8: a score of 100 means the plan used none of
// the configured risk budget, 0 means it used all (or more) of it.
func quantumScore(expectedRisk, maxPortfolioRisk float64) int {
	if maxPortfolioRisk <= 0 {
		return 0
	}
	raw := 100 * (1 - expectedRisk/maxPortfolioRisk)
	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// planReason summarizes the market agent's sentiment adjustment for
// operators reviewing this plan (Slack alerts, pending-approval UI).
func planReason(state *State) string {
	if state.Market == nil || state.Market.Summary == "" {
		return "rebalance plan built from current market estimation"
	}
	return state.Market.Summary
}

// auditProofPayload is the canonical-JSON input to audit_proof_hash
// (spec §3, §4.8): the QUBO allocation, continuous weights, and the
// portfolio-level return/risk/energy the plan was built from. Field
// order is fixed by this struct's declaration, so json.Marshal always
// produces the same bytes for the same inputs.
type auditProofPayload struct {
	Allocation     []int     `json:"allocation"`
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	ExpectedRisk   float64   `json:"expected_risk"`
	Energy         float64   `json:"energy"`
}

// hashPlan computes the audit_proof_hash: SHA-256 over the canonical
// JSON encoding of the QUBO allocation, weights, expected_return,
// expected_risk, and energy (spec §3/§4.8). It deliberately excludes
// run_id and CreatedAt so two runs over identical market state and
// identical solver output produce an identical, verifiable hash.
func hashPlan(state *State) (string, error) {
	payload := auditProofPayload{
		Allocation:     state.Market.Solution.Assignment,
		Weights:        state.Market.Weights.Weight,
		ExpectedReturn: state.Market.Weights.ExpectedReturn,
		ExpectedRisk:   state.Market.Weights.ExpectedRisk,
		Energy:         state.Market.Solution.Energy,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal audit proof payload: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
