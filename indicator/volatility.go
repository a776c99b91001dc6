package indicator

import "math"

// ATR computes the Average True Range with Wilder smoothing, default
// period 14.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := absentSlice(n)
	if n < 2 {
		return out
	}
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = trueRange(highs[i], lows[i], closes[i-1])
	}
	smoothed := wilderSmooth(tr[1:], period)
	for i, v := range smoothed {
		if Finite(v) {
			out[i+1] = v
		}
	}
	return out
}

// BollingerResult bundles the middle/upper/lower bands.
type BollingerResult struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger computes Bollinger Bands: an SMA midline with upper/lower
// bands `mult` standard deviations away, default (20, 2).
func Bollinger(closes []float64, period int, mult float64) BollingerResult {
	n := len(closes)
	res := BollingerResult{Middle: absentSlice(n), Upper: absentSlice(n), Lower: absentSlice(n)}
	mid := SMA(closes, period)
	for i := period - 1; i < n; i++ {
		if !Finite(mid[i]) {
			continue
		}
		var sumSq float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mid[i]
			sumSq += d * d
		}
		sd := math.Sqrt(sumSq / float64(period))
		res.Middle[i] = mid[i]
		res.Upper[i] = mid[i] + mult*sd
		res.Lower[i] = mid[i] - mult*sd
	}
	return res
}

// KeltnerResult bundles the middle/upper/lower channel lines.
type KeltnerResult struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Keltner computes Keltner Channels: an EMA midline with ATR-scaled
// bands, default (20, 1.5).
func Keltner(highs, lows, closes []float64, period int, mult float64) KeltnerResult {
	n := len(closes)
	mid := EMA(closes, period)
	atr := ATR(highs, lows, closes, period)
	res := KeltnerResult{Middle: absentSlice(n), Upper: absentSlice(n), Lower: absentSlice(n)}
	for i := 0; i < n; i++ {
		if !Finite(mid[i]) || !Finite(atr[i]) {
			continue
		}
		res.Middle[i] = mid[i]
		res.Upper[i] = mid[i] + mult*atr[i]
		res.Lower[i] = mid[i] - mult*atr[i]
	}
	return res
}

// SupertrendResult bundles the trend line and its direction
// (+1 bullish, -1 bearish).
type SupertrendResult struct {
	Line      []float64
	Direction []int
}

// Supertrend computes the Supertrend indicator, default (10, 3).
func Supertrend(highs, lows, closes []float64, period int, mult float64) SupertrendResult {
	n := len(closes)
	res := SupertrendResult{Line: absentSlice(n), Direction: make([]int, n)}
	atr := ATR(highs, lows, closes, period)

	upperBand := make([]float64, n)
	lowerBand := make([]float64, n)
	dir := 1
	var prevFinalUpper, prevFinalLower float64
	started := false

	for i := 0; i < n; i++ {
		if !Finite(atr[i]) {
			continue
		}
		hl2 := (highs[i] + lows[i]) / 2
		basicUpper := hl2 + mult*atr[i]
		basicLower := hl2 - mult*atr[i]

		if !started {
			upperBand[i] = basicUpper
			lowerBand[i] = basicLower
			dir = 1
			if closes[i] < upperBand[i] {
				dir = 1
			}
			started = true
			prevFinalUpper = upperBand[i]
			prevFinalLower = lowerBand[i]
			res.Direction[i] = dir
			if dir == 1 {
				res.Line[i] = lowerBand[i]
			} else {
				res.Line[i] = upperBand[i]
			}
			continue
		}

		if basicUpper < prevFinalUpper || closes[i-1] > prevFinalUpper {
			upperBand[i] = basicUpper
		} else {
			upperBand[i] = prevFinalUpper
		}
		if basicLower > prevFinalLower || closes[i-1] < prevFinalLower {
			lowerBand[i] = basicLower
		} else {
			lowerBand[i] = prevFinalLower
		}

		switch {
		case dir == 1 && closes[i] < lowerBand[i]:
			dir = -1
		case dir == -1 && closes[i] > upperBand[i]:
			dir = 1
		}

		res.Direction[i] = dir
		if dir == 1 {
			res.Line[i] = lowerBand[i]
		} else {
			res.Line[i] = upperBand[i]
		}
		prevFinalUpper = upperBand[i]
		prevFinalLower = lowerBand[i]
	}
	return res
}

// PSARResult bundles the parabolic SAR line and its direction
// (+1 bullish/below price, -1 bearish/above price).
type PSARResult struct {
	SAR       []float64
	Direction []int
}

// ParabolicSAR computes Wilder's Parabolic SAR, default step 0.02,
// max 0.2.
func ParabolicSAR(highs, lows []float64, step, max float64) PSARResult {
	n := len(highs)
	res := PSARResult{SAR: absentSlice(n), Direction: make([]int, n)}
	if n < 2 {
		return res
	}

	dir := 1
	af := step
	sar := lows[0]
	ep := highs[0]
	res.SAR[0] = sar
	res.Direction[0] = dir

	for i := 1; i < n; i++ {
		sar = sar + af*(ep-sar)

		if dir == 1 {
			if i >= 2 {
				sar = math.Min(sar, math.Min(lows[i-1], lows[i-2]))
			} else {
				sar = math.Min(sar, lows[i-1])
			}
			if lows[i] < sar {
				dir = -1
				sar = ep
				ep = lows[i]
				af = step
			} else {
				if highs[i] > ep {
					ep = highs[i]
					af = math.Min(af+step, max)
				}
			}
		} else {
			if i >= 2 {
				sar = math.Max(sar, math.Max(highs[i-1], highs[i-2]))
			} else {
				sar = math.Max(sar, highs[i-1])
			}
			if highs[i] > sar {
				dir = 1
				sar = ep
				ep = highs[i]
				af = step
			} else {
				if lows[i] < ep {
					ep = lows[i]
					af = math.Min(af+step, max)
				}
			}
		}

		res.SAR[i] = sar
		res.Direction[i] = dir
	}
	return res
}
