package cov

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// FitGARCH fits a GARCH(1,1) model to a single asset's daily log returns
// and produces a 1-step-ahead annualized volatility forecast:
//
//	σ²_t = ω + α·ε²_{t-1} + β·σ²_{t-1}
//
// Falls back to EWMA (span=10) when returns are too short, the
// likelihood search fails to find a stationary fit, or α+β ≥ 1.
func FitGARCH(returns []float64, symbol string, minObs int) VolatilityForecast {
	histVol := annualizedStd(returns)

	if len(returns) < minObs {
		return VolatilityForecast{
			Symbol:        symbol,
			HistoricalVol: histVol,
			ForecastVol:   ewmaVol(returns, 10),
			Model:         ModelEWMAFallback,
		}
	}

	omega, alpha, beta, ll, ok := fitGARCHParams(returns)
	persistence := alpha + beta
	if !ok || persistence >= 1 {
		return VolatilityForecast{
			Symbol:        symbol,
			HistoricalVol: histVol,
			ForecastVol:   ewmaVol(returns, 10),
			Model:         ModelEWMAFallback,
		}
	}

	n := len(returns)
	mean := stat.Mean(returns, nil)
	sigma2 := variance(returns)
	for i := 1; i < n; i++ {
		eps := returns[i-1] - mean
		sigma2 = omega + alpha*eps*eps + beta*sigma2
	}
	forecastVar := omega + alpha*(returns[n-1]-mean)*(returns[n-1]-mean) + beta*sigma2
	forecastVol := math.Sqrt(forecastVar * 365)

	return VolatilityForecast{
		Symbol:        symbol,
		HistoricalVol: histVol,
		ForecastVol:   forecastVol,
		Omega:         omega,
		Alpha:         alpha,
		Beta:          beta,
		Persistence:   persistence,
		LogLikelihood: ll,
		Model:         ModelGARCH,
	}
}

// fitGARCHParams searches for the (ω, α, β) that maximize the Gaussian
// GARCH(1,1) log-likelihood via a derivative-free Nelder-Mead search,
// seeded at the variance-targeting stationary point. Returns ok=false if
// the optimizer fails to converge to a valid (non-negative, stationary)
// point.
func fitGARCHParams(returns []float64) (omega, alpha, beta, loglik float64, ok bool) {
	mean := stat.Mean(returns, nil)
	sampleVar := variance(returns)
	if sampleVar <= 0 {
		return 0, 0, 0, 0, false
	}

	negLL := func(x []float64) float64 {
		a, b := sigmoid(x[0])*0.3, sigmoid(x[1])*0.98
		w := sampleVar * math.Max(1-a-b, 0.01)
		return -garchLogLikelihood(returns, mean, w, a, b)
	}

	p := optimize.Problem{Func: negLL}
	init := []float64{logit(0.1 / 0.3), logit(0.85 / 0.98)}

	result, err := optimize.Minimize(p, init, &optimize.Settings{MaxIterations: 200}, &optimize.NelderMead{})
	if err != nil || result == nil || result.X == nil {
		return 0, 0, 0, 0, false
	}

	a, b := sigmoid(result.X[0])*0.3, sigmoid(result.X[1])*0.98
	w := sampleVar * math.Max(1-a-b, 0.01)
	ll := garchLogLikelihood(returns, mean, w, a, b)
	if w <= 0 || a < 0 || b < 0 || math.IsNaN(ll) || math.IsInf(ll, 0) {
		return 0, 0, 0, 0, false
	}
	return w, a, b, ll, true
}

func garchLogLikelihood(returns []float64, mean, omega, alpha, beta float64) float64 {
	n := len(returns)
	sigma2 := variance(returns)
	ll := 0.0
	for i := 0; i < n; i++ {
		eps := returns[i] - mean
		if sigma2 <= 0 {
			return math.Inf(-1)
		}
		ll += -0.5 * (math.Log(2*math.Pi) + math.Log(sigma2) + eps*eps/sigma2)
		sigma2 = omega + alpha*eps*eps + beta*sigma2
	}
	return ll
}

// ewmaVol computes an exponentially-weighted-moving-average annualized
// volatility with the given span, the documented GARCH fallback.
func ewmaVol(returns []float64, span int) float64 {
	if len(returns) == 0 {
		return 0.02 * math.Sqrt(365)
	}
	decay := 2.0 / (float64(span) + 1)
	n := len(returns)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = math.Pow(1-decay, float64(n-1-i))
	}
	sum := floats.Sum(weights)
	for i := range weights {
		weights[i] /= sum
	}
	mean := stat.Mean(returns, nil)
	ewmaVar := 0.0
	for i, r := range returns {
		d := r - mean
		ewmaVar += weights[i] * d * d
	}
	return math.Sqrt(ewmaVar * 365)
}

func annualizedStd(returns []float64) float64 {
	if len(returns) < 2 {
		return 0.02 * math.Sqrt(365)
	}
	return math.Sqrt(variance(returns)) * math.Sqrt(365)
}

func variance(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.Variance(x, nil)
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
func logit(p float64) float64   { return math.Log(p / (1 - p)) }
