// Package hydra implements the HYDRA Scorer (spec.md §4.5): the five
// capped-at-20 confluence dimensions, the entry contract, ATR-based
// position sizing, and the priority-ordered exit monitor. Grounded on
// decision/localfunc.go's localFuncGenetic (weighted multi-factor score
// vs. threshold, then TP/SL/size derivation from ATR multiples and
// account equity), generalized from a single weighted-average score to
// five independently capped dimensions.
package hydra

import "tradeforge/store"

// Sizing is the output of ATR-based position sizing (spec.md §4.5.1).
type Sizing struct {
	PositionUSD   float64
	Quantity      float64
	StopLoss      float64
	TP1           float64
	TP2           float64
	TrailDistance float64
	TP1ClosePct   float64
	TP2ClosePct   float64
}

// ScoreMultiplier returns the sizing multiplier `m` for a HYDRA score,
// per spec.md §4.5.1.
func ScoreMultiplier(score float64) float64 {
	switch {
	case score >= 95:
		return 1.5
	case score >= 90:
		return 1.25
	case score >= 85:
		return 1.0
	default:
		return 0.75
	}
}

// Size computes the ATR-based position sizing for a long entry at price
// P, given portfolio value V, ATR14, the HYDRA score, and the
// configured riskPerTrade/maxPositionPct fractions.
func Size(v, price, atr14, score, riskPerTrade, maxPositionPct float64) Sizing {
	riskUSD := v * riskPerTrade
	stopDistance := 1.5 * atr14
	stopLoss := price - stopDistance

	var rawPositionUSD float64
	if stopDistance > 0 {
		rawPositionUSD = riskUSD / (stopDistance / price)
	}

	m := ScoreMultiplier(score)
	positionUSD := rawPositionUSD * m
	if cap := v * maxPositionPct; positionUSD > cap {
		positionUSD = cap
	}

	return Sizing{
		PositionUSD:   positionUSD,
		Quantity:      positionUSD / price,
		StopLoss:      stopLoss,
		TP1:           price + 1.2*atr14,
		TP2:           price + 2.5*atr14,
		TrailDistance: 0.8 * atr14,
		TP1ClosePct:   0.40,
		TP2ClosePct:   0.40,
	}
}

// NewPosition materializes a store.Position from a sizing result. The
// caller (RPG) assigns ID/EntryTs/Strategy/Mode after all gates pass.
func NewPosition(pair string, price float64, sz Sizing) store.Position {
	return store.Position{
		Pair:          pair,
		Side:          "long",
		EntryPrice:    price,
		Quantity:      sz.Quantity,
		OriginalQuantity: sz.Quantity,
		Cost:          sz.PositionUSD,
		StopLoss:      sz.StopLoss,
		TP1:           sz.TP1,
		TP2:           sz.TP2,
		TP1ClosePct:   sz.TP1ClosePct,
		TP2ClosePct:   sz.TP2ClosePct,
		TrailDistance: sz.TrailDistance,
	}
}
