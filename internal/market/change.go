// Package market holds the pure, deterministic core of MarketDeck: quote
// normalization, derived-metric arithmetic, and the trading-calendar
// evaluation. Nothing in this package performs I/O.
package market

import "math"

// GramsPerTroyOunce is the fixed physical conversion factor between a troy
// ounce and a kilogram (grams per troy ounce). Commodity futures quote in
// USD per troy ounce; the dashboard reports INR per kilogram.
const GramsPerTroyOunce = 31.1035

// Delta is a day-over-day price movement in points and percent.
type Delta struct {
	PointsChange  float64 `json:"pointsChange"`
	PercentChange float64 `json:"percentChange"`
}

// Change computes the movement from open to last, rounded to 2 decimal
// places. A zero open degrades the percent change to 0 instead of faulting.
func Change(last, open float64) Delta {
	points := last - open
	var pct float64
	if open != 0 {
		pct = (points / open) * 100
	}
	return Delta{
		PointsChange:  Round2(points),
		PercentChange: Round2(pct),
	}
}

// ChangeFine is Change with 4-decimal precision on the points component,
// used for currency rates where a paisa-level move matters. The percent
// change keeps 2 decimals.
func ChangeFine(last, prev float64) Delta {
	points := last - prev
	var pct float64
	if prev != 0 {
		pct = (points / prev) * 100
	}
	return Delta{
		PointsChange:  Round4(points),
		PercentChange: Round2(pct),
	}
}

// OzUSDToKgINR converts a USD-per-troy-ounce price to INR per kilogram at
// the given USD/INR rate. The result is not rounded; callers round for
// presentation.
func OzUSDToKgINR(priceUSD, fxRate float64) float64 {
	return (priceUSD * fxRate * 1000) / GramsPerTroyOunce
}

// Round2 rounds to 2 decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round4 rounds to 4 decimal places.
func Round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
