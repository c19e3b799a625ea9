package qubo

import "math"

// BuildConfig holds the objective weights and budget target for Build.
// Defaults per spec §4.2: LambdaReturn=1.0, LambdaBudget=2.0,
// LambdaRisk=max(0.1, 1-riskTolerance), K=clamp(floor(N*riskTolerance)+1, 2, N).
type BuildConfig struct {
	LambdaReturn float64
	LambdaRisk   float64
	LambdaBudget float64
	K            int
}

// DefaultConfig derives the builder config from N assets and a risk
// tolerance in [0,1], per spec §4.2.
func DefaultConfig(n int, riskTolerance, lambdaReturn, lambdaBudget float64) BuildConfig {
	k := int(math.Floor(float64(n)*riskTolerance)) + 1
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}
	if n < 2 {
		k = n
	}
	return BuildConfig{
		LambdaReturn: lambdaReturn,
		LambdaRisk:   math.Max(0.1, 1-riskTolerance),
		LambdaBudget: lambdaBudget,
		K:            k,
	}
}

// Build encodes the asset-selection objective
//
//	E(x) = λ_risk·xᵀΣx − λ_return·μᵀx + λ_budget·(Σx_i − K)²
//
// as a BQM, exploiting x_i² = x_i to fold the diagonal and the budget
// expansion into linear terms. Deterministic: identical (μ, Σ, cfg)
// always produce a byte-identical BQM.
func Build(mu []float64, sigma [][]float64, cfg BuildConfig) *BQM {
	n := len(mu)
	linear := make(map[int]float64, n)
	quadratic := make(map[Pair]float64)

	budgetLinearTerm := cfg.LambdaBudget * (1 - 2*float64(cfg.K))
	for i := 0; i < n; i++ {
		h := -cfg.LambdaReturn*mu[i] + cfg.LambdaRisk*sigma[i][i] + budgetLinearTerm
		linear[i] = h
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			jij := 2*cfg.LambdaRisk*sigma[i][j] + 2*cfg.LambdaBudget
			if math.Abs(jij) < 1e-12 {
				continue
			}
			quadratic[Pair{I: i, J: j}] = jij
		}
	}

	return &BQM{
		NumVars:   n,
		Linear:    linear,
		Quadratic: quadratic,
		Offset:    cfg.LambdaBudget * float64(cfg.K) * float64(cfg.K),
	}
}
