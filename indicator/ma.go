package indicator

// SMA computes the simple moving average over `period` bars.
func SMA(values []float64, period int) []float64 {
	out := absentSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average, seeded by the SMA of the
// first `period` bars (the conventional EMA bootstrap).
func EMA(values []float64, period int) []float64 {
	out := absentSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	k := 2.0 / float64(period+1)

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	prev := seed
	for i := period; i < len(values); i++ {
		cur := values[i]*k + prev*(1-k)
		out[i] = cur
		prev = cur
	}
	return out
}

// wilderSmooth applies Wilder's smoothing (equivalent to an EMA with
// alpha=1/period) to a pre-computed per-bar series, seeded by the simple
// average of the first `period` values. Used by RSI, ATR, and ADX, all
// of which spec.md §4.1 pins to Wilder's method.
func wilderSmooth(values []float64, period int) []float64 {
	out := absentSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	prev := seed
	for i := period; i < len(values); i++ {
		cur := (prev*float64(period-1) + values[i]) / float64(period)
		out[i] = cur
		prev = cur
	}
	return out
}

// HMA computes the Hull Moving Average: HMA(n) = WMA(2*WMA(n/2) -
// WMA(n), sqrt(n)).
func HMA(values []float64, period int) []float64 {
	n := len(values)
	out := absentSlice(n)
	if period <= 1 || n < period {
		return out
	}
	halfWMA := wma(values, period/2)
	fullWMA := wma(values, period)

	diff := absentSlice(n)
	for i := 0; i < n; i++ {
		if Finite(halfWMA[i]) && Finite(fullWMA[i]) {
			diff[i] = 2*halfWMA[i] - fullWMA[i]
		}
	}

	sqrtPeriod := int(isqrt(period))
	if sqrtPeriod < 1 {
		sqrtPeriod = 1
	}
	return wma(diff, sqrtPeriod)
}

func isqrt(n int) float64 {
	f := float64(n)
	x := f
	for i := 0; i < 30; i++ {
		if x == 0 {
			break
		}
		x = 0.5 * (x + f/x)
	}
	return x
}

// wma computes the linearly-weighted moving average; it tolerates Absent
// entries inside its window by treating the window as unavailable until
// every entry in it is present (propagating warm-up correctly when
// chained, as HMA does above).
func wma(values []float64, period int) []float64 {
	n := len(values)
	out := absentSlice(n)
	if period <= 0 {
		return out
	}
	denom := float64(period * (period + 1) / 2)
	for i := period - 1; i < n; i++ {
		ready := true
		var sum float64
		for j := 0; j < period; j++ {
			v := values[i-period+1+j]
			if !Finite(v) {
				ready = false
				break
			}
			weight := float64(j + 1)
			sum += v * weight
		}
		if ready {
			out[i] = sum / denom
		}
	}
	return out
}

// TEMA computes the Triple Exponential Moving Average:
// TEMA = 3*EMA1 - 3*EMA2 + EMA3, where EMA2=EMA(EMA1), EMA3=EMA(EMA2).
func TEMA(values []float64, period int) []float64 {
	n := len(values)
	out := absentSlice(n)
	ema1 := EMA(values, period)
	ema2 := emaOfSeries(ema1, period)
	ema3 := emaOfSeries(ema2, period)
	for i := 0; i < n; i++ {
		if Finite(ema1[i]) && Finite(ema2[i]) && Finite(ema3[i]) {
			out[i] = 3*ema1[i] - 3*ema2[i] + ema3[i]
		}
	}
	return out
}

// emaOfSeries applies EMA to a series that itself has a leading Absent
// prefix, re-basing the EMA bootstrap to start at the first present
// value so warm-up compounds correctly across chained EMAs.
func emaOfSeries(series []float64, period int) []float64 {
	n := len(series)
	out := absentSlice(n)
	start := -1
	for i, v := range series {
		if Finite(v) {
			start = i
			break
		}
	}
	if start < 0 || n-start < period {
		return out
	}
	sub := EMA(series[start:], period)
	copy(out[start:], sub)
	return out
}
