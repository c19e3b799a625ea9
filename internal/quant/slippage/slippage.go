// Package slippage estimates market impact for a proposed trade using
// an Almgren-Chriss-style power-law model (C5): impact = alpha *
// (tradeUSD / dailyVolumeUSD)^beta, with a safety margin applied on
// top before converting to a minimum-acceptable-output figure.
package slippage

import "math"

// ImpactParams are the per-asset alpha/beta exponent pair. Grounded on
// original_source's ASSET_IMPACT_PARAMS table: alpha scales the impact
// magnitude, beta controls how impact grows with trade size relative
// to daily volume.
type ImpactParams struct {
	Alpha float64
	Beta  float64
}

// Estimator holds the default and per-asset impact parameters plus the
// mock daily-volume table used when no live volume feed is wired.
type Estimator struct {
	DefaultParams    ImpactParams
	PerAsset         map[string]ImpactParams
	DailyVolumeUSD   map[string]float64
	BaseUnitDecimals map[string]int
	SafetyMarginBps  int
	MaxImpactPct     float64
}

// Estimate is the per-trade slippage output consumed by the risk
// guardrail and the plan builder.
type Estimate struct {
	Symbol          string
	TradeUSD        float64
	DailyVolumeUSD  float64
	ParticipationPct float64
	ImpactPct       float64
	SafetyMarginPct float64
	MinOutUSD       float64
	MinOutBaseUnits uint64
	TradeBaseUnits  uint64
	ExceedsMaxImpact bool
}

const defaultBaseUnitDecimals = 9

// Estimate computes the expected slippage for trading tradeUSD notional
// of symbol, at the given assetPriceUSD (the asset's own USD price,
// used for the base-unit conversion in place of a fixed $1 proxy).
func (e *Estimator) Estimate(symbol string, tradeUSD, assetPriceUSD float64) Estimate {
	params := e.DefaultParams
	if p, ok := e.PerAsset[symbol]; ok {
		params = p
	}
	adv := e.DailyVolumeUSD[symbol]
	if adv <= 0 {
		adv = tradeUSD * 100
	}

	participation := tradeUSD / adv
	impactPct := params.Alpha * math.Pow(participation, params.Beta)
	safetyPct := float64(e.SafetyMarginBps) / 10000.0
	totalHaircut := impactPct + safetyPct

	minOutUSD := tradeUSD * (1 - totalHaircut)
	if minOutUSD < 0 {
		minOutUSD = 0
	}

	decimals := defaultBaseUnitDecimals
	if d, ok := e.BaseUnitDecimals[symbol]; ok {
		decimals = d
	}
	minOutBaseUnits := uint64(0)
	tradeBaseUnits := uint64(0)
	if assetPriceUSD > 0 {
		minOutAsset := minOutUSD / assetPriceUSD
		minOutBaseUnits = uint64(math.Floor(minOutAsset * math.Pow10(decimals)))
		tradeBaseUnits = uint64(math.Floor(tradeUSD / assetPriceUSD * math.Pow10(decimals)))
	}

	return Estimate{
		Symbol: symbol, TradeUSD: tradeUSD, DailyVolumeUSD: adv,
		ParticipationPct: participation, ImpactPct: impactPct,
		SafetyMarginPct: safetyPct, MinOutUSD: minOutUSD,
		MinOutBaseUnits: minOutBaseUnits, TradeBaseUnits: tradeBaseUnits,
		ExceedsMaxImpact: impactPct > e.MaxImpactPct,
	}
}
