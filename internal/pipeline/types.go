package pipeline

import (
	"time"

	"github.com/Rajchodisetti/quantum-vault/internal/quant/cov"
	"github.com/Rajchodisetti/quantum-vault/internal/quant/qubo"
	"github.com/Rajchodisetti/quantum-vault/internal/quant/slippage"
	"github.com/Rajchodisetti/quantum-vault/internal/quant/weights"
	"github.com/Rajchodisetti/quantum-vault/internal/risk"
)

// Asset is one tradable instrument in the universe considered for
// rebalancing.
type Asset struct {
	Symbol         string
	CurrentWeight  float64
	MaxWeight      float64
	PriceUSD       float64
	DailyReturns   []float64
}

// Status is the pipeline's terminal outcome.
type Status string

const (
	StatusRunning  Status = "RUNNING"
	StatusApproved Status = "APPROVED"
	StatusPending  Status = "PENDING_APPROVAL"
	StatusRejected Status = "REJECTED"
	StatusError    Status = "ERROR"
)

// MarketResult is C1-C4's combined output: estimation, selection, and
// continuous weights.
type MarketResult struct {
	Estimation cov.Result
	Selected   []int
	BQM        *qubo.BQM
	Solution   qubo.Solution
	Weights    weights.Result
	// Summary is the market agent's human-readable synopsis of the
	// sentiment adjustment it applied (spec §4.7), for display in
	// Slack alerts and CLI output.
	Summary string
}

// ExecutionResult is C5's output plus the entropy jitter draw applied
// before submission.
type ExecutionResult struct {
	Slippage    []slippage.Estimate
	MaxTradeUSD float64
	JitterOnes  int
	JitterZeros int
}

// RiskResult is C6's output.
type RiskResult struct {
	Checks risk.GuardrailChecks
	Status risk.GuardrailStatus
}

// State threads the three pipeline stages' outputs through the
// orchestrator as a single concrete struct value — never a
// map[string]interface{} context bag.
type State struct {
	RunID     string
	UserID    string
	// RiskTolerance is the caller-supplied risk profile in [0,1] (spec
	// §1, §3) driving the QUBO's K and λ_risk (spec §4.2) and the
	// market agent's sentiment adjustment (spec §4.7). It is never
	// derived from config — every request can carry a different value.
	RiskTolerance float64
	StartedAt     time.Time
	Assets        []Asset
	BaseUSD       float64

	Market    *MarketResult
	Execution *ExecutionResult
	Risk      *RiskResult

	Status Status
	Err    *Error
}
