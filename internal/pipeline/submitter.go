package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPSubmitter submits a built Plan to a chain RPC/relay endpoint over
// HTTP, following the same request/response JSON shape the teacher's
// market-data adapters use for outbound calls. Submissions are
// rate-limited client-side so a misbehaving caller can't hammer the
// chain RPC endpoint with repeated plan submissions.
type HTTPSubmitter struct {
	client      *http.Client
	endpoint    string
	portfolioID string
	limiter     *rate.Limiter
}

func NewHTTPSubmitter(endpoint, portfolioID string, timeout time.Duration) *HTTPSubmitter {
	return &HTTPSubmitter{
		client:      &http.Client{Timeout: timeout},
		endpoint:    endpoint,
		portfolioID: portfolioID,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// submitRequest is the downstream submitter call surface (spec §6):
// an ordered list of swap amounts/min-outs in base units alongside the
// audit proof and the quantum-optimization metadata a submitter uses
// to decide whether to require extra sign-off.
type submitRequest struct {
	PortfolioID              string           `json:"portfolio_id"`
	RunID                    string           `json:"run_id"`
	Trades                   []submitTradeLeg `json:"trades"`
	SwapAmounts              []uint64         `json:"swap_amounts"`
	SwapMinOuts              []uint64         `json:"swap_min_outs"`
	IsQuantumOptimized       bool             `json:"is_quantum_optimized"`
	QuantumOptimizationScore int              `json:"quantum_optimization_score"`
	AuditProofHash           string           `json:"audit_proof_hash"`
	Reason                   string           `json:"reason"`
}

type submitTradeLeg struct {
	Symbol          string  `json:"symbol"`
	TargetWeight    float64 `json:"target_weight"`
	AmountBaseUnits uint64  `json:"amount_base_units"`
	MinOutBaseUnits uint64  `json:"min_out_base_units"`
	VenueHint       string  `json:"venue_hint"`
}

type submitResponse struct {
	Success  bool   `json:"success"`
	TxDigest string `json:"tx_digest"`
}

// Submit posts the plan's entire spec §6 call surface: each leg's
// amount aborts the whole plan downstream if its executed output falls
// below min_out, so swap_amounts and swap_min_outs must stay the same
// length and in the same order as Trades.
func (s *HTTPSubmitter) Submit(ctx context.Context, plan Plan) (Receipt, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Receipt{}, fmt.Errorf("rate limit wait: %w", err)
	}

	legs := make([]submitTradeLeg, len(plan.Trades))
	amounts := make([]uint64, len(plan.Trades))
	minOuts := make([]uint64, len(plan.Trades))
	for i, t := range plan.Trades {
		legs[i] = submitTradeLeg{
			Symbol: t.Symbol, TargetWeight: t.TargetWeight,
			AmountBaseUnits: t.AmountBaseUnits, MinOutBaseUnits: t.MinOutBaseUnits, VenueHint: t.VenueHint,
		}
		amounts[i] = t.AmountBaseUnits
		minOuts[i] = t.MinOutBaseUnits
	}
	body, err := json.Marshal(submitRequest{
		PortfolioID: s.portfolioID, RunID: plan.RunID, Trades: legs,
		SwapAmounts: amounts, SwapMinOuts: minOuts,
		IsQuantumOptimized: plan.IsQuantumOptimized, QuantumOptimizationScore: plan.QuantumScore,
		AuditProofHash: plan.Hash, Reason: plan.Reason,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit request: %w", err)
	}
	defer resp.Body.Close()

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Receipt{}, fmt.Errorf("decode submit response: %w", err)
	}
	return Receipt{TxDigest: out.TxDigest, Accepted: out.Success}, nil
}
