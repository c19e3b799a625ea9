// Package weights turns a selected asset subset into continuous
// portfolio weights (C4): a tangency/min-variance direction, projected
// onto the bounded simplex, then nudged to respect a diversification
// floor.
package weights

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Direction names which raw direction vector produced the weights,
// before projection.
type Direction string

const (
	DirectionTangency    Direction = "TANGENCY"
	DirectionMinVariance Direction = "MIN_VARIANCE"
	DirectionUniform     Direction = "UNIFORM_FALLBACK"
)

// Result is the continuous allocation over the selected assets, plus
// the portfolio-level metrics the risk guardrails consume.
type Result struct {
	Symbols        []string
	Weight         []float64
	Direction      Direction
	ExpectedReturn float64
	ExpectedRisk   float64
}

// Config bounds the per-asset weight and sets the diversification
// floor enforced on every selected asset.
type Config struct {
	MaxWeight            float64
	MinWeight            float64
	MaxSimplexIterations int
	MaxFloorIterations   int
}

// DefaultConfig mirrors spec §4.4's defaults: 40% position cap, 5%
// diversification floor, 50 simplex-projection iterations, 20
// floor-enforcement iterations.
func DefaultConfig() Config {
	return Config{MaxWeight: 0.40, MinWeight: 0.05, MaxSimplexIterations: 50, MaxFloorIterations: 20}
}

// Optimize computes the continuous weights for the subset of assets
// selected by the QUBO solver, given their expected returns muS and
// covariance sigmaS restricted to that subset.
func Optimize(symbols []string, muS []float64, sigmaS [][]float64, cfg Config) Result {
	n := len(symbols)
	if n == 0 {
		return Result{Symbols: symbols, Weight: nil}
	}
	if n == 1 {
		w := []float64{1.0}
		return Result{
			Symbols: symbols, Weight: w, Direction: DirectionUniform,
			ExpectedReturn: muS[0], ExpectedRisk: math.Sqrt(math.Max(sigmaS[0][0], 0)),
		}
	}

	dir, direction := rawDirection(muS, sigmaS)
	projected := projectSimplex(dir, cfg.MaxWeight, cfg.MaxSimplexIterations)
	floored := enforceFloor(projected, cfg.MinWeight, cfg.MaxWeight, cfg.MaxFloorIterations)

	ret, risk := portfolioMoments(floored, muS, sigmaS)
	return Result{
		Symbols: symbols, Weight: floored, Direction: direction,
		ExpectedReturn: ret, ExpectedRisk: risk,
	}
}

// rawDirection computes Σ⁻¹μ (tangency). If Σ is singular or the
// tangency direction is degenerate (all non-positive, or any NaN/Inf),
// falls back to Σ⁻¹·1 (minimum-variance). If that also degenerates,
// falls back to a uniform 1/n direction.
func rawDirection(mu []float64, sigma [][]float64) ([]float64, Direction) {
	n := len(mu)
	sigmaDense := toDense(sigma)

	var sigmaInv mat.Dense
	if err := sigmaInv.Inverse(sigmaDense); err == nil {
		muVec := mat.NewVecDense(n, mu)
		var tangency mat.VecDense
		tangency.MulVec(&sigmaInv, muVec)
		d := vecToSlice(&tangency)
		if validDirection(d) {
			return d, DirectionTangency
		}

		ones := mat.NewVecDense(n, onesSlice(n))
		var minVar mat.VecDense
		minVar.MulVec(&sigmaInv, ones)
		d2 := vecToSlice(&minVar)
		if validDirection(d2) {
			return d2, DirectionMinVariance
		}
	}

	return onesSlice(n), DirectionUniform
}

func validDirection(d []float64) bool {
	sum := 0.0
	for _, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		sum += v
	}
	return sum > 1e-9
}

// projectSimplex projects the (possibly negative, unnormalized)
// direction onto {w : sum(w)=1, 0<=w_i<=maxWeight} via alternating
// clamp-and-renormalize (a Dykstra-style projection), iterated until
// stable or maxIter is reached.
func projectSimplex(dir []float64, maxWeight float64, maxIter int) []float64 {
	n := len(dir)
	w := make([]float64, n)

	floor := 0.0
	for i, v := range dir {
		w[i] = math.Max(v, floor)
	}
	normalize(w)

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i := range w {
			if w[i] > maxWeight {
				w[i] = maxWeight
				changed = true
			}
		}
		normalize(w)
		if !changed {
			break
		}
	}
	return w
}

// enforceFloor lifts every component below minWeight up to minWeight,
// funding the lift by scaling down the components above minWeight
// proportionally to their excess over minWeight, then re-clamps at
// maxWeight and renormalizes. Iterates until stable or maxIter.
func enforceFloor(w []float64, minWeight, maxWeight float64, maxIter int) []float64 {
	n := len(w)
	out := make([]float64, n)
	copy(out, w)

	if minWeight*float64(n) >= 1.0 {
		for i := range out {
			out[i] = 1.0 / float64(n)
		}
		return out
	}

	for iter := 0; iter < maxIter; iter++ {
		deficit := 0.0
		var below, above []int
		for i, v := range out {
			if v < minWeight {
				deficit += minWeight - v
				below = append(below, i)
			} else if v > minWeight {
				above = append(above, i)
			}
		}
		if deficit < 1e-12 {
			break
		}

		excessTotal := 0.0
		for _, i := range above {
			excessTotal += out[i] - minWeight
		}
		for _, i := range below {
			out[i] = minWeight
		}
		if excessTotal > 1e-12 {
			for _, i := range above {
				excess := out[i] - minWeight
				out[i] -= deficit * (excess / excessTotal)
			}
		}

		for i := range out {
			if out[i] > maxWeight {
				out[i] = maxWeight
			}
			if out[i] < 0 {
				out[i] = 0
			}
		}
		normalize(out)
	}
	return out
}

func portfolioMoments(w, mu []float64, sigma [][]float64) (ret, risk float64) {
	n := len(w)
	for i := 0; i < n; i++ {
		ret += w[i] * mu[i]
	}
	variance := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += w[i] * sigma[i][j] * w[j]
		}
	}
	return ret, math.Sqrt(math.Max(variance, 0))
}

func normalize(w []float64) {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum <= 1e-12 {
		n := float64(len(w))
		for i := range w {
			w[i] = 1.0 / n
		}
		return
	}
	for i := range w {
		w[i] /= sum
	}
}

func onesSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0
	}
	return out
}

func toDense(m [][]float64) *mat.Dense {
	n := len(m)
	flat := make([]float64, n*n)
	for i := 0; i < n; i++ {
		copy(flat[i*n:(i+1)*n], m[i])
	}
	return mat.NewDense(n, n, flat)
}

func vecToSlice(v *mat.VecDense) []float64 {
	n := v.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = v.AtVec(i)
	}
	return out
}
