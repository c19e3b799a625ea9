package cov

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Estimate builds the GARCH-enhanced ("DCC-lite") covariance matrix and
// calibrated expected-return vector for a universe of assets, given
// their daily log-return history as an N-row slice (one row per asset,
// T columns of daily returns). T<2 for a given asset falls back to a
// synthetic daily vol of 0.02 and a return of 0.15, per spec §4.1.
func Estimate(symbols []string, returnRows [][]float64, minGarchObs int, returnCenter, returnSpread, targetAvgVol float64) Result {
	n := len(symbols)
	forecasts := make([]VolatilityForecast, n)
	dailyVols := make([]float64, n)
	rawReturns := make([]float64, n)

	for i, sym := range symbols {
		row := returnRows[i]
		if len(row) < 2 {
			dailyVols[i] = 0.02
			rawReturns[i] = 0.15
			forecasts[i] = VolatilityForecast{Symbol: sym, Model: ModelEWMAFallback, ForecastVol: 0.02 * math.Sqrt(365)}
			continue
		}
		fc := FitGARCH(row, sym, minGarchObs)
		forecasts[i] = fc
		dailyVols[i] = fc.ForecastVol / math.Sqrt(365)
		rawReturns[i] = stat.Mean(row, nil) * 365
	}

	corr := correlationMatrix(returnRows, n)
	covDaily := diagTimesMatTimesDiag(dailyVols, corr)
	covAnnual := scaleMatrix(covDaily, 365)
	covAnnual = symmetrize(covAnnual)
	covAnnual = correctPSD(covAnnual)
	covAnnual = shrinkToTargetVol(covAnnual, targetAvgVol)

	calibrated := calibrateReturns(rawReturns, returnCenter, returnSpread)

	return Result{
		Symbols:        symbols,
		ExpectedReturn: calibrated,
		Cov:            covAnnual,
		Forecasts:      forecasts,
	}
}

// correlationMatrix computes the Pearson correlation of the raw daily
// returns, standardizing each row by its own sample std. Assets with a
// zero-variance history keep their raw row so the correlation falls back
// to whatever signal exists; an asset with fewer than two returns gets
// zero correlation with every other asset.
func correlationMatrix(rows [][]float64, n int) [][]float64 {
	std := make([][]float64, n)
	for i, row := range rows {
		if len(row) < 2 {
			std[i] = []float64{0}
			continue
		}
		s := math.Sqrt(variance(row))
		std[i] = make([]float64, len(row))
		if s > 0 {
			for j, v := range row {
				std[i][j] = v / s
			}
		} else {
			copy(std[i], row)
		}
	}

	corr := make([][]float64, n)
	for i := range corr {
		corr[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		corr[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			c := pairwiseCorr(std[i], std[j])
			corr[i][j] = c
			corr[j][i] = c
		}
	}
	return corr
}

func pairwiseCorr(a, b []float64) float64 {
	m := len(a)
	if len(b) < m {
		m = len(b)
	}
	if m < 2 {
		return 0
	}
	return stat.Correlation(a[:m], b[:m], nil)
}

func diagTimesMatTimesDiag(d []float64, m [][]float64) [][]float64 {
	n := len(d)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = d[i] * m[i][j] * d[j]
		}
	}
	return out
}

func scaleMatrix(m [][]float64, s float64) [][]float64 {
	n := len(m)
	out := make([][]float64, n)
	for i := range m {
		out[i] = make([]float64, n)
		for j := range m[i] {
			out[i][j] = m[i][j] * s
		}
	}
	return out
}

func symmetrize(m [][]float64) [][]float64 {
	n := len(m)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = (m[i][j] + m[j][i]) / 2
		}
	}
	return out
}

// correctPSD shifts Σ by -1.1·λ_min·I whenever the smallest eigenvalue
// is negative, restoring positive semi-definiteness per spec §4.1.
func correctPSD(m [][]float64) [][]float64 {
	n := len(m)
	if n == 0 {
		return m
	}
	dense := toDense(m)
	var eig mat.EigenSym
	ok := eig.Factorize(dense, true)
	if !ok {
		return m
	}
	values := eig.Values(nil)
	lambdaMin := floatsMin(values)
	if lambdaMin >= 0 {
		return m
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		copy(out[i], m[i])
		out[i][i] -= 1.1 * lambdaMin
	}
	return out
}

// shrinkToTargetVol rescales Σ so its average diagonal (annualized)
// volatility matches TARGET_AVG_VOL.
func shrinkToTargetVol(m [][]float64, target float64) [][]float64 {
	n := len(m)
	if n == 0 {
		return m
	}
	sumVol := 0.0
	for i := 0; i < n; i++ {
		sumVol += math.Sqrt(math.Max(m[i][i], 0))
	}
	avgVol := sumVol / float64(n)
	if avgVol <= 0 {
		return m
	}
	scale := (target / avgVol) * (target / avgVol)
	return scaleMatrix(m, scale)
}

// calibrateReturns maps short-window annualized means onto
// [center-spread/2, center+spread/2] preserving rank, per the
// Black-Litterman-lite calibration in spec §4.1.
func calibrateReturns(raw []float64, center, spread float64) []float64 {
	n := len(raw)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return raw[idx[a]] < raw[idx[b]] })

	lo, hi := floatsMin(raw), floatsMax(raw)
	rng := hi - lo
	low, high := center-spread/2, center+spread/2
	if rng < 1e-10 {
		for i := range out {
			out[i] = center
		}
		return out
	}
	for rank, i := range idx {
		frac := float64(rank) / float64(n-1)
		if n == 1 {
			frac = 0.5
		}
		out[i] = low + frac*(high-low)
	}
	return out
}

func toDense(m [][]float64) *mat.SymDense {
	n := len(m)
	flat := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			flat[i*n+j] = m[i][j]
		}
	}
	return mat.NewSymDense(n, flat)
}

func floatsMin(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func floatsMax(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
