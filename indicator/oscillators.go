package indicator

import "math"

// RSI computes the Relative Strength Index using Wilder's smoothing
// (the method spec.md §4.1 mandates), default period 14.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := absentSlice(n)
	if n < period+1 {
		return out
	}
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	avgGain := wilderSmooth(gains[1:], period)
	avgLoss := wilderSmooth(losses[1:], period)
	for i := 0; i < len(avgGain); i++ {
		if !Finite(avgGain[i]) {
			continue
		}
		idx := i + 1 // shift back since gains/losses were sliced from index 1
		ag, al := avgGain[i], avgLoss[i]
		if al == 0 {
			out[idx] = 100
			continue
		}
		rs := ag / al
		out[idx] = 100 - 100/(1+rs)
	}
	return out
}

// MACDResult bundles the MACD line, signal line, and histogram.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes MACD(fast/slow/signal), default (12,26,9).
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	n := len(closes)
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	macdLine := absentSlice(n)
	for i := 0; i < n; i++ {
		if Finite(emaFast[i]) && Finite(emaSlow[i]) {
			macdLine[i] = emaFast[i] - emaSlow[i]
		}
	}
	signalLine := emaOfSeries(macdLine, signal)
	hist := absentSlice(n)
	for i := 0; i < n; i++ {
		if Finite(macdLine[i]) && Finite(signalLine[i]) {
			hist[i] = macdLine[i] - signalLine[i]
		}
	}
	return MACDResult{MACD: macdLine, Signal: signalLine, Histogram: hist}
}

// StochRSIResult bundles the smoothed %K and %D lines.
type StochRSIResult struct {
	K []float64
	D []float64
}

// StochRSI computes Stochastic RSI: rsiPeriod/stochPeriod/kSmooth/dSmooth,
// default (14,14,3,3).
func StochRSI(closes []float64, rsiPeriod, stochPeriod, kSmooth, dSmooth int) StochRSIResult {
	n := len(closes)
	rsi := RSI(closes, rsiPeriod)

	rawK := absentSlice(n)
	for i := 0; i < n; i++ {
		if i < stochPeriod-1 {
			continue
		}
		lo, hi, ready := math.Inf(1), math.Inf(-1), true
		for j := i - stochPeriod + 1; j <= i; j++ {
			if !Finite(rsi[j]) {
				ready = false
				break
			}
			if rsi[j] < lo {
				lo = rsi[j]
			}
			if rsi[j] > hi {
				hi = rsi[j]
			}
		}
		if !ready {
			continue
		}
		if hi == lo {
			rawK[i] = 50
			continue
		}
		rawK[i] = (rsi[i] - lo) / (hi - lo) * 100
	}

	k := SMA(rawK, kSmooth)
	d := SMA(k, dSmooth)
	return StochRSIResult{K: k, D: d}
}

// WilliamsR computes Williams %R over `period` bars (default 14).
func WilliamsR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := absentSlice(n)
	if n < period {
		return out
	}
	for i := period - 1; i < n; i++ {
		hi, lo := highs[i-period+1], lows[i-period+1]
		for j := i - period + 1; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		if hi == lo {
			out[i] = -50
			continue
		}
		out[i] = (hi - closes[i]) / (hi - lo) * -100
	}
	return out
}

// CCI computes the Commodity Channel Index over `period` bars
// (default 20).
func CCI(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := absentSlice(n)
	if n < period {
		return out
	}
	tp := make([]float64, n)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	smaTP := SMA(tp, period)
	for i := period - 1; i < n; i++ {
		var meanDev float64
		for j := i - period + 1; j <= i; j++ {
			meanDev += math.Abs(tp[j] - smaTP[i])
		}
		meanDev /= float64(period)
		if meanDev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - smaTP[i]) / (0.015 * meanDev)
	}
	return out
}

// ROC computes the Rate of Change over `period` bars (default 12), as a
// percentage.
func ROC(closes []float64, period int) []float64 {
	n := len(closes)
	out := absentSlice(n)
	for i := period; i < n; i++ {
		if closes[i-period] == 0 {
			continue
		}
		out[i] = (closes[i] - closes[i-period]) / closes[i-period] * 100
	}
	return out
}

// TRIX computes the rate-of-change of a triple-smoothed EMA, default
// period 15.
func TRIX(closes []float64, period int) []float64 {
	n := len(closes)
	ema1 := EMA(closes, period)
	ema2 := emaOfSeries(ema1, period)
	ema3 := emaOfSeries(ema2, period)

	out := absentSlice(n)
	for i := 1; i < n; i++ {
		if Finite(ema3[i]) && Finite(ema3[i-1]) && ema3[i-1] != 0 {
			out[i] = (ema3[i] - ema3[i-1]) / ema3[i-1] * 100
		}
	}
	return out
}

// ADXResult bundles +DI, -DI and ADX itself.
type ADXResult struct {
	PlusDI  []float64
	MinusDI []float64
	ADX     []float64
}

// ADX computes the Average Directional Index with Wilder smoothing,
// default period 14.
func ADX(highs, lows, closes []float64, period int) ADXResult {
	n := len(closes)
	res := ADXResult{PlusDI: absentSlice(n), MinusDI: absentSlice(n), ADX: absentSlice(n)}
	if n < period*2 {
		return res
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = trueRange(highs[i], lows[i], closes[i-1])
	}

	smoothTR := wilderSmooth(tr[1:], period)
	smoothPlusDM := wilderSmooth(plusDM[1:], period)
	smoothMinusDM := wilderSmooth(minusDM[1:], period)

	dx := absentSlice(len(smoothTR))
	for i := range smoothTR {
		if !Finite(smoothTR[i]) || smoothTR[i] == 0 {
			continue
		}
		pdi := 100 * smoothPlusDM[i] / smoothTR[i]
		mdi := 100 * smoothMinusDM[i] / smoothTR[i]
		idx := i + 1
		res.PlusDI[idx] = pdi
		res.MinusDI[idx] = mdi
		sum := pdi + mdi
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = math.Abs(pdi-mdi) / sum * 100
	}

	// dx carries its own absent warm-up prefix; the ADX seed starts at the
	// first present DX value so that prefix does not poison the average.
	start := 0
	for start < len(dx) && !Finite(dx[start]) {
		start++
	}
	if start < len(dx) {
		adxSmoothed := wilderSmooth(dx[start:], period)
		for i, v := range adxSmoothed {
			if Finite(v) {
				res.ADX[start+i+1] = v
			}
		}
	}
	return res
}

func trueRange(high, low, prevClose float64) float64 {
	r := high - low
	r = math.Max(r, math.Abs(high-prevClose))
	r = math.Max(r, math.Abs(low-prevClose))
	return r
}
