package indicator

import "time"

// OBV computes On-Balance Volume: a running sum that adds volume on an
// up close, subtracts it on a down close, and leaves it unchanged on a
// flat close.
func OBV(closes, volumes []float64) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// MFI computes the Money Flow Index, default period 14.
func MFI(highs, lows, closes, volumes []float64, period int) []float64 {
	n := len(closes)
	out := absentSlice(n)
	if n < period+1 {
		return out
	}
	tp := make([]float64, n)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	posFlow := make([]float64, n)
	negFlow := make([]float64, n)
	for i := 1; i < n; i++ {
		rawFlow := tp[i] * volumes[i]
		if tp[i] > tp[i-1] {
			posFlow[i] = rawFlow
		} else if tp[i] < tp[i-1] {
			negFlow[i] = rawFlow
		}
	}
	for i := period; i < n; i++ {
		var posSum, negSum float64
		for j := i - period + 1; j <= i; j++ {
			posSum += posFlow[j]
			negSum += negFlow[j]
		}
		if negSum == 0 {
			out[i] = 100
			continue
		}
		ratio := posSum / negSum
		out[i] = 100 - 100/(1+ratio)
	}
	return out
}

// CMF computes the Chaikin Money Flow, default period 20.
func CMF(highs, lows, closes, volumes []float64, period int) []float64 {
	n := len(closes)
	out := absentSlice(n)
	if n < period {
		return out
	}
	mfv := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := highs[i] - lows[i]
		if hl == 0 {
			continue
		}
		mfMult := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / hl
		mfv[i] = mfMult * volumes[i]
	}
	for i := period - 1; i < n; i++ {
		var sumMFV, sumVol float64
		for j := i - period + 1; j <= i; j++ {
			sumMFV += mfv[j]
			sumVol += volumes[j]
		}
		if sumVol == 0 {
			out[i] = 0
			continue
		}
		out[i] = sumMFV / sumVol
	}
	return out
}

// VWAPBar is one bar's worth of input to the VWAP accumulator.
type VWAPBar struct {
	Time   time.Time
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// VWAPAccumulator computes a single-pass volume-weighted average price
// that resets at every UTC day boundary, per spec.md §4.1. Grounded on
// trader/vwap_collector.go's CalculateVWAP (Σ(TypicalPrice·Volume)/ΣVolume)
// generalized from a fixed session window to a rolling daily reset.
type VWAPAccumulator struct {
	day        int
	sumTPV     float64
	sumVol     float64
	lastValue  float64
	lastPresent bool
}

// NewVWAPAccumulator creates an empty daily VWAP accumulator.
func NewVWAPAccumulator() *VWAPAccumulator {
	return &VWAPAccumulator{day: -1}
}

// Add feeds one bar and returns the current VWAP value (Absent until the
// first bar of the day has non-zero volume).
func (v *VWAPAccumulator) Add(bar VWAPBar) float64 {
	_, _, day := bar.Time.UTC().Date()
	if v.day != day {
		v.day = day
		v.sumTPV = 0
		v.sumVol = 0
		v.lastPresent = false
	}
	tp := (bar.High + bar.Low + bar.Close) / 3
	v.sumTPV += tp * bar.Volume
	v.sumVol += bar.Volume
	if v.sumVol <= 0 {
		return Absent
	}
	v.lastValue = v.sumTPV / v.sumVol
	v.lastPresent = true
	return v.lastValue
}

// Value returns the last computed VWAP, or Absent if no volume has
// accumulated yet today.
func (v *VWAPAccumulator) Value() float64 {
	if !v.lastPresent {
		return Absent
	}
	return v.lastValue
}

// VolumeProfileBin is one price bucket of the session's traded-volume
// histogram.
type VolumeProfileBin struct {
	PriceLow  float64
	PriceHigh float64
	Volume    float64
}

// VolumeProfileResult bundles the point of control (the highest-volume
// bin's midpoint) and the value area bounds (the contiguous bin range
// holding >=70% of total volume, extended outward from the POC).
type VolumeProfileResult struct {
	Bins         []VolumeProfileBin
	POC          float64
	ValueAreaLow  float64
	ValueAreaHigh float64
}

// VolumeProfile buckets (high,low,volume) bars into `numBins` equal-width
// price bins spanning the series' full range and derives the point of
// control and the 70% value area, per spec.md §4.1.
func VolumeProfile(highs, lows, volumes []float64, numBins int) VolumeProfileResult {
	n := len(highs)
	if n == 0 || numBins <= 0 {
		return VolumeProfileResult{}
	}
	lo, hi := lows[0], highs[0]
	for i := 1; i < n; i++ {
		if lows[i] < lo {
			lo = lows[i]
		}
		if highs[i] > hi {
			hi = highs[i]
		}
	}
	if hi <= lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(numBins)

	bins := make([]VolumeProfileBin, numBins)
	for b := 0; b < numBins; b++ {
		bins[b] = VolumeProfileBin{PriceLow: lo + width*float64(b), PriceHigh: lo + width*float64(b+1)}
	}

	for i := 0; i < n; i++ {
		mid := (highs[i] + lows[i]) / 2
		b := int((mid - lo) / width)
		if b < 0 {
			b = 0
		}
		if b >= numBins {
			b = numBins - 1
		}
		bins[b].Volume += volumes[i]
	}

	var total float64
	pocIdx := 0
	for i, bin := range bins {
		total += bin.Volume
		if bin.Volume > bins[pocIdx].Volume {
			pocIdx = i
		}
	}

	lowIdx, highIdx := pocIdx, pocIdx
	accepted := bins[pocIdx].Volume
	target := 0.70 * total
	for total > 0 && accepted < target && (lowIdx > 0 || highIdx < numBins-1) {
		expandLow := lowIdx > 0
		expandHigh := highIdx < numBins-1
		var volLow, volHigh float64
		if expandLow {
			volLow = bins[lowIdx-1].Volume
		}
		if expandHigh {
			volHigh = bins[highIdx+1].Volume
		}
		switch {
		case expandLow && (!expandHigh || volLow >= volHigh):
			lowIdx--
			accepted += bins[lowIdx].Volume
		case expandHigh:
			highIdx++
			accepted += bins[highIdx].Volume
		default:
			expandLow = false
		}
		if !expandLow && !expandHigh {
			break
		}
	}

	poc := (bins[pocIdx].PriceLow + bins[pocIdx].PriceHigh) / 2
	return VolumeProfileResult{
		Bins:          bins,
		POC:           poc,
		ValueAreaLow:  bins[lowIdx].PriceLow,
		ValueAreaHigh: bins[highIdx].PriceHigh,
	}
}
