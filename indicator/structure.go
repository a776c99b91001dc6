package indicator

// IchimokuResult bundles the five classic Ichimoku Kinko Hyo lines. The
// two span lines are forward-shifted by `displacement` bars (the cloud
// projects ahead of price), so their leading `displacement` entries stay
// Absent relative to the current bar.
type IchimokuResult struct {
	Tenkan   []float64 // conversion line
	Kijun    []float64 // base line
	SenkouA  []float64 // leading span A, shifted forward
	SenkouB  []float64 // leading span B, shifted forward
	Chikou   []float64 // lagging span, shifted backward
}

// Ichimoku computes the Ichimoku Cloud, default periods (9, 26, 52) with
// a 26-bar forward displacement.
func Ichimoku(highs, lows, closes []float64, tenkanPeriod, kijunPeriod, senkouBPeriod, displacement int) IchimokuResult {
	n := len(closes)
	res := IchimokuResult{
		Tenkan:  absentSlice(n),
		Kijun:   absentSlice(n),
		SenkouA: absentSlice(n),
		SenkouB: absentSlice(n),
		Chikou:  absentSlice(n),
	}

	midpoint := func(period int, i int) float64 {
		if i < period-1 {
			return Absent
		}
		hi, lo := highs[i-period+1], lows[i-period+1]
		for j := i - period + 1; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		return (hi + lo) / 2
	}

	tenkan := make([]float64, n)
	kijun := make([]float64, n)
	for i := 0; i < n; i++ {
		tenkan[i] = midpoint(tenkanPeriod, i)
		kijun[i] = midpoint(kijunPeriod, i)
		res.Tenkan[i] = tenkan[i]
		res.Kijun[i] = kijun[i]
	}

	senkouB := make([]float64, n)
	for i := 0; i < n; i++ {
		senkouB[i] = midpoint(senkouBPeriod, i)
	}

	for i := 0; i < n; i++ {
		shifted := i + displacement
		if shifted >= n {
			continue
		}
		if Finite(tenkan[i]) && Finite(kijun[i]) {
			res.SenkouA[shifted] = (tenkan[i] + kijun[i]) / 2
		}
		if Finite(senkouB[i]) {
			res.SenkouB[shifted] = senkouB[i]
		}
	}

	for i := 0; i < n; i++ {
		back := i - displacement
		if back < 0 {
			continue
		}
		res.Chikou[back] = closes[i]
	}

	return res
}

// PivotPoints is the classic floor-trader pivot set derived from one
// prior period's high/low/close.
type PivotPoints struct {
	Pivot float64
	R1    float64
	R2    float64
	R3    float64
	S1    float64
	S2    float64
	S3    float64
}

// ClassicPivots computes the classic pivot point and three support/
// resistance levels on each side from the prior period's high/low/close.
func ClassicPivots(prevHigh, prevLow, prevClose float64) PivotPoints {
	pivot := (prevHigh + prevLow + prevClose) / 3
	r1 := 2*pivot - prevLow
	s1 := 2*pivot - prevHigh
	r2 := pivot + (prevHigh - prevLow)
	s2 := pivot - (prevHigh - prevLow)
	r3 := prevHigh + 2*(pivot-prevLow)
	s3 := prevLow - 2*(prevHigh-pivot)
	return PivotPoints{Pivot: pivot, R1: r1, R2: r2, R3: r3, S1: s1, S2: s2, S3: s3}
}

// RollingHigh returns the highest high over the trailing `period` bars
// (inclusive of the current bar).
func RollingHigh(highs []float64, period int) []float64 {
	n := len(highs)
	out := absentSlice(n)
	for i := period - 1; i < n; i++ {
		hi := highs[i-period+1]
		for j := i - period + 1; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
		}
		out[i] = hi
	}
	return out
}

// RollingLow returns the lowest low over the trailing `period` bars
// (inclusive of the current bar).
func RollingLow(lows []float64, period int) []float64 {
	n := len(lows)
	out := absentSlice(n)
	for i := period - 1; i < n; i++ {
		lo := lows[i-period+1]
		for j := i - period + 1; j <= i; j++ {
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		out[i] = lo
	}
	return out
}
