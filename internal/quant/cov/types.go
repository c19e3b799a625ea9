// Package cov produces forward-looking expected returns and a
// positive-semidefinite covariance matrix from a raw daily-return
// history (C1 in the rebalancing pipeline).
package cov

// VolatilityForecast is the per-asset output of the GARCH(1,1) fit,
// or of its EWMA fallback.
type VolatilityForecast struct {
	Symbol        string
	HistoricalVol float64 // naive annualized std
	ForecastVol   float64 // 1-step-ahead annualized vol
	Omega         float64
	Alpha         float64
	Beta          float64
	Persistence   float64 // Alpha + Beta
	LogLikelihood float64
	Model         Model
}

type Model string

const (
	ModelGARCH        Model = "GARCH"
	ModelEWMAFallback Model = "EWMA_FALLBACK"
)

// Result bundles the per-asset expected returns, the PSD covariance
// matrix, and the diagnostic forecasts used to build it.
type Result struct {
	Symbols        []string
	ExpectedReturn []float64  // annualized, calibrated
	Cov            [][]float64 // N x N, annualized, symmetric PSD
	Forecasts      []VolatilityForecast
}
