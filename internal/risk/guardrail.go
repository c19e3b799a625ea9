package risk

import (
	"time"

	"github.com/Rajchodisetti/quantum-vault/internal/config"
)

// GuardrailStatus is the terminal verdict of a rebalance plan's risk
// evaluation (C6).
type GuardrailStatus string

const (
	StatusApproved        GuardrailStatus = "APPROVED"
	StatusPendingApproval  GuardrailStatus = "PENDING_APPROVAL"
	StatusRejected        GuardrailStatus = "REJECTED"
	StatusError            GuardrailStatus = "ERROR"
)

// CheckResult is one named guardrail check and whether it passed, for
// deterministic ordered logging and audit trails.
type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// GuardrailChecks is a fixed-size struct of the seven deterministic
// checks run against every proposed rebalance plan, in place of a
// string-keyed map — field order below is also Ordered()'s iteration
// order.
type GuardrailChecks struct {
	OptimizerFeasible CheckResult
	PositionSizeOK    CheckResult
	RiskWithinLimit   CheckResult
	ReturnSufficient  CheckResult
	SolverFastEnough  CheckResult
	AssetsSelected    CheckResult
	SlippageAcceptable CheckResult
}

// Ordered returns the seven checks in their fixed definition order.
func (c GuardrailChecks) Ordered() []CheckResult {
	return []CheckResult{
		c.OptimizerFeasible, c.PositionSizeOK, c.RiskWithinLimit,
		c.ReturnSufficient, c.SolverFastEnough, c.AssetsSelected,
		c.SlippageAcceptable,
	}
}

// AllPassed reports whether every check passed.
func (c GuardrailChecks) AllPassed() bool {
	for _, r := range c.Ordered() {
		if !r.Passed {
			return false
		}
	}
	return true
}

// FirstFailure returns the first failed check in definition order, and
// true if one exists.
func (c GuardrailChecks) FirstFailure() (CheckResult, bool) {
	for _, r := range c.Ordered() {
		if !r.Passed {
			return r, true
		}
	}
	return CheckResult{}, false
}

// PlanInput is the subset of a proposed plan the guardrail evaluates.
// It deliberately carries plain scalars rather than the full pipeline
// state, so this package stays independent of internal/pipeline.
type PlanInput struct {
	OptimizerSucceeded bool
	MaxSelectedWeight  float64
	PortfolioRisk      float64
	ExpectedReturn     float64
	SolverTimeSeconds  float64
	NumAssetsSelected  int
	MaxTradeUSD        float64

	// SlippageExceedsMax is true if any trade leg's slippage estimate
	// exceeded its max_impact_pct. A plan with no slippage estimates at
	// all (legs absent) passes this check by default.
	SlippageExceedsMax bool
}

// Guardrail evaluates proposed plans against the thresholds in
// config.Root.Risk. It holds no mutable state of its own — the
// approval store (internal/approval) is the stateful half of C6/C11.
type Guardrail struct {
	cfg config.Risk
}

func NewGuardrail(cfg config.Risk) *Guardrail {
	return &Guardrail{cfg: cfg}
}

// Evaluate runs the seven checks in definition order and derives the
// terminal status: REJECTED if any hard check fails, PENDING_APPROVAL
// if the plan is otherwise sound but crosses a human-review threshold,
// APPROVED otherwise.
func (g *Guardrail) Evaluate(in PlanInput) (GuardrailChecks, GuardrailStatus) {
	checks := GuardrailChecks{
		OptimizerFeasible: check("optimizer_feasible", in.OptimizerSucceeded,
			"QUBO/SA solver returned a feasible assignment"),
		PositionSizeOK: check("position_size_ok", in.MaxSelectedWeight <= g.cfg.MaxPositionWeight,
			"largest single-asset weight within max_position_weight"),
		RiskWithinLimit: check("risk_within_limit", in.PortfolioRisk <= g.cfg.MaxPortfolioRisk,
			"portfolio volatility within max_portfolio_risk"),
		ReturnSufficient: check("return_sufficient", in.ExpectedReturn >= g.cfg.MinExpectedReturn,
			"expected return meets min_expected_return"),
		SolverFastEnough: check("solver_fast_enough", in.SolverTimeSeconds <= g.cfg.MaxSolverTimeS,
			"solver completed within max_solver_time_s"),
		AssetsSelected: check("assets_selected", in.NumAssetsSelected > 0,
			"at least one asset selected"),
		SlippageAcceptable: check("slippage_acceptable", !in.SlippageExceedsMax,
			"no leg's slippage estimate exceeds max_impact_pct"),
	}

	if !checks.AllPassed() {
		return checks, StatusRejected
	}

	if in.MaxTradeUSD > g.cfg.ApprovalThresholdUSD || in.PortfolioRisk > g.cfg.ApprovalRiskThreshold {
		return checks, StatusPendingApproval
	}

	return checks, StatusApproved
}

func check(name string, passed bool, detail string) CheckResult {
	return CheckResult{Name: name, Passed: passed, Detail: detail}
}

// EvaluatedAt is attached by callers that want to timestamp a
// guardrail run without this package depending on a clock source.
type EvaluatedAt = time.Time
