// Package regime implements the Regime Classifier (spec.md §4.4): a
// pure, deterministic decision over the latest values of a handful of
// indicators, producing {bullish, choppy, bearish} plus the reasons
// that led there. Grounded on decision/localfunc.go's
// threshold-comparison-then-reason-string style (e.g.
// localFuncGenetic's pass/fail commentary), generalized from a single
// entry-gate decision to a three-way classification.
package regime

import (
	"fmt"

	"tradeforge/indicator"
	"tradeforge/sdeerr"
	"tradeforge/store"
)

// Inputs bundles the indicator readings the classifier needs. EMA50 may
// be Absent (not yet warmed up); every other field must be finite or
// Classify returns sdeerr.DataGap.
type Inputs struct {
	Price      float64
	SMA200     float64
	EMA9       float64
	EMA21      float64
	EMA50      float64 // may be indicator.Absent
	ADX        float64
	RSI        float64
	BBWidth    float64
	BBWidthAvg float64
}

// Result is the classifier's output: the regime plus the reasons that
// produced it, in evaluation order.
type Result struct {
	Regime  store.Regime
	Reasons []string
}

// Classify applies spec.md §4.4's decision table, evaluating choppy
// before bullish/bearish as the spec mandates.
func Classify(pair string, in Inputs) (Result, error) {
	required := []float64{in.Price, in.SMA200, in.EMA9, in.EMA21, in.ADX, in.RSI, in.BBWidth, in.BBWidthAvg}
	for _, v := range required {
		if !indicator.Finite(v) {
			return Result{}, sdeerr.New(sdeerr.DataGap, pair, "regime.Classify", nil)
		}
	}

	nearSMA200 := withinPct(in.Price, in.SMA200, 1.5)
	narrowBand := in.BBWidth < in.BBWidthAvg

	if in.ADX < 20 {
		return Result{
			Regime:  store.RegimeChoppy,
			Reasons: []string{fmt.Sprintf("ADX %.2f < 20", in.ADX)},
		}, nil
	}
	if nearSMA200 && narrowBand {
		return Result{
			Regime: store.RegimeChoppy,
			Reasons: []string{
				fmt.Sprintf("price %.4f within 1.5%% of SMA200 %.4f", in.Price, in.SMA200),
				fmt.Sprintf("BB width %.4f < rolling avg %.4f", in.BBWidth, in.BBWidthAvg),
			},
		}, nil
	}

	emaStackBullish := in.EMA9 > in.EMA21 && (!indicator.Finite(in.EMA50) || in.EMA21 > in.EMA50)
	if in.Price > in.SMA200 && emaStackBullish && in.ADX > 25 && in.RSI >= 45 && in.RSI <= 75 {
		return Result{
			Regime: store.RegimeBullish,
			Reasons: []string{
				"price > SMA200",
				"EMA9 > EMA21 > EMA50",
				fmt.Sprintf("ADX %.2f > 25", in.ADX),
				fmt.Sprintf("RSI %.2f in [45,75]", in.RSI),
			},
		}, nil
	}

	if in.Price < in.SMA200 && in.EMA9 < in.EMA21 && in.ADX > 25 {
		return Result{
			Regime: store.RegimeBearish,
			Reasons: []string{
				"price < SMA200",
				"EMA9 < EMA21",
				fmt.Sprintf("ADX %.2f > 25", in.ADX),
			},
		}, nil
	}

	return Result{Regime: store.RegimeChoppy, Reasons: []string{"no bullish/bearish condition satisfied"}}, nil
}

func withinPct(price, ref float64, pct float64) bool {
	if ref == 0 {
		return false
	}
	diff := (price - ref) / ref
	if diff < 0 {
		diff = -diff
	}
	return diff*100 <= pct
}
