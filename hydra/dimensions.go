package hydra

import "tradeforge/indicator"

// dimensionCap is the per-dimension ceiling from spec.md §4.5.
const dimensionCap = 20

func capScore(v float64) float64 {
	if v > dimensionCap {
		return dimensionCap
	}
	if v < 0 {
		return 0
	}
	return v
}

// TrendInputs is one timeframe's trend-alignment snapshot.
type TrendInputs struct {
	Price  float64
	SMA200 float64 // may be indicator.Absent
	EMA9   float64
	EMA21  float64
	EMA50  float64 // may be indicator.Absent
}

func (t TrendInputs) bullish() bool {
	stackOK := t.EMA9 > t.EMA21 && (!indicator.Finite(t.EMA50) || t.EMA21 > t.EMA50)
	priceOK := !indicator.Finite(t.SMA200) || t.Price > t.SMA200
	return stackOK && priceOK
}

func (t TrendInputs) bearish() bool {
	return t.EMA9 < t.EMA21
}

// D1TrendAlignment implements spec.md §4.5 D1.
func D1TrendAlignment(tf1m, tf5m, tf15m TrendInputs) float64 {
	if tf1m.bearish() || tf5m.bearish() || tf15m.bearish() {
		return capScore(5)
	}
	b1, b5, b15 := tf1m.bullish(), tf5m.bullish(), tf15m.bullish()
	if !b1 && !b5 && !b15 {
		return capScore(3)
	}
	var score float64
	if b1 {
		score += 4
	}
	if b5 {
		score += 7
	}
	if b15 {
		score += 9
	}
	return capScore(score)
}

// MomentumInputs bundles the D2 momentum inputs. PriceLows and
// RSIForPivots feed the hidden-divergence check and must be aligned 1:1,
// most recent last.
type MomentumInputs struct {
	RSI           float64
	RSIHistory    []float64 // recent RSI values, most recent last, for "recovering from <40"
	MACDHist      []float64 // recent histogram values, most recent last
	StochK        []float64 // recent %K, most recent last
	StochD        []float64 // recent %D, most recent last
	PriceLows     []float64 // recent close (or low) series for divergence pivots
	RSIForPivots  []float64 // same length as PriceLows, RSI aligned
}

// D2MomentumQuality implements spec.md §4.5 D2.
func D2MomentumQuality(in MomentumInputs) float64 {
	var score float64
	score += rsiPlacementScore(in.RSI, in.RSIHistory)
	score += macdHistogramScore(in.MACDHist)
	score += stochRSIScore(in.StochK, in.StochD)
	if hiddenBullishDivergence(in.PriceLows, in.RSIForPivots) {
		score += 3
	}
	return capScore(score)
}

func rsiPlacementScore(rsi float64, history []float64) float64 {
	switch {
	case rsi >= 50 && rsi <= 65:
		return 6
	case rsi >= 45 && rsi < 50:
		if recentlyBelow(history, 40) {
			return 5
		}
		return 3
	case rsi > 65 && rsi <= 72:
		return 3
	default:
		return 0
	}
}

func recentlyBelow(history []float64, threshold float64) bool {
	for _, v := range history {
		if indicator.Finite(v) && v < threshold {
			return true
		}
	}
	return false
}

func macdHistogramScore(hist []float64) float64 {
	n := len(hist)
	if n == 0 || !indicator.Finite(hist[n-1]) {
		return 0
	}
	cur := hist[n-1]
	if n < 2 || !indicator.Finite(hist[n-2]) {
		if cur > 0 {
			return 3
		}
		return 0
	}
	prev := hist[n-2]
	switch {
	case prev <= 0 && cur > 0:
		return 6
	case cur > 0 && cur > prev:
		return 7
	case cur > 0 && cur <= prev:
		return 3
	default:
		return 0
	}
}

func stochRSIScore(k, d []float64) float64 {
	n := len(k)
	if n == 0 || len(d) != n || !indicator.Finite(k[n-1]) || !indicator.Finite(d[n-1]) {
		return 0
	}
	curK, curD := k[n-1], d[n-1]
	if curK <= curD {
		return 0
	}
	if n >= 2 && indicator.Finite(k[n-2]) && indicator.Finite(d[n-2]) && k[n-2] <= d[n-2] && curK < 80 {
		return 7
	}
	if curK > 50 && curD > 50 {
		return 5
	}
	return 2
}

// hiddenBullishDivergence looks at the last 20 points for a price
// higher-low paired with an RSI lower-low, via local pivot comparison:
// the last two local minima of price (by simple local-minimum scan) are
// compared, and RSI is read at those same two indices.
func hiddenBullishDivergence(prices, rsis []float64) bool {
	n := len(prices)
	if n != len(rsis) || n < 5 {
		return false
	}
	window := 20
	if n > window {
		prices = prices[n-window:]
		rsis = rsis[n-window:]
		n = window
	}

	type pivot struct {
		idx int
		val float64
	}
	var pricePivots []pivot
	for i := 1; i < n-1; i++ {
		if prices[i] < prices[i-1] && prices[i] < prices[i+1] {
			pricePivots = append(pricePivots, pivot{i, prices[i]})
		}
	}
	if len(pricePivots) < 2 {
		return false
	}
	a, b := pricePivots[len(pricePivots)-2], pricePivots[len(pricePivots)-1]
	priceHigherLow := b.val > a.val

	rsiA, rsiB := rsis[a.idx], rsis[b.idx]
	if !indicator.Finite(rsiA) || !indicator.Finite(rsiB) {
		return false
	}
	rsiLowerLow := rsiB < rsiA

	return priceHigherLow && rsiLowerLow
}

// VolumeInputs bundles the D3 volume-conviction inputs.
type VolumeInputs struct {
	CurrentVolume float64
	VolumeSMA20   float64
	OBVLast5      []float64 // OBV over the last 5 bars, most recent last
	BuyShare      float64
	HasTradeFlow  bool
}

// D3VolumeConviction implements spec.md §4.5 D3.
func D3VolumeConviction(in VolumeInputs) float64 {
	var score float64
	if in.VolumeSMA20 > 0 {
		ratio := in.CurrentVolume / in.VolumeSMA20
		switch {
		case ratio >= 2.0:
			score += 6
		case ratio >= 1.5:
			score += 4
		case ratio >= 1.2:
			score += 2
		}
	}

	score += obvTrendScore(in.OBVLast5)

	if in.HasTradeFlow {
		switch {
		case in.BuyShare > 0.65:
			score += 7
		case in.BuyShare >= 0.55:
			score += 5
		case in.BuyShare >= 0.50:
			score += 3
		}
	} else {
		score += 5
	}

	return capScore(score)
}

func obvTrendScore(obv []float64) float64 {
	if len(obv) < 2 {
		return 0
	}
	upSteps := 0
	flat := true
	for i := 1; i < len(obv); i++ {
		if obv[i] > obv[i-1] {
			upSteps++
			flat = false
		} else if obv[i] != obv[i-1] {
			flat = false
		}
	}
	if upSteps >= 3 {
		return 7
	}
	if flat {
		return 3
	}
	return 0
}

// MicrostructureInputs bundles the D4 inputs. SpreadOK is false when the
// book is degraded (spec.md §7 DegradedBook: "spread unknown -> not
// blocked", D4 contributes 0 spread points but is not a hard block).
type MicrostructureInputs struct {
	Imbalance        float64
	ImbalanceOK      bool
	SpreadPct        float64 // fraction, e.g. 0.0025 == 0.25%
	SpreadOK         bool
	VWAP             float64
	HasVWAP          bool
	Price            float64
	ReclaimedVWAPIn2 bool // price closed below VWAP within the last 2 bars and is now above it
}

// D4Result bundles the dimension score and whether the spread blocks
// entry outright.
type D4Result struct {
	Score         float64
	SpreadBlocked bool
}

// D4Microstructure implements spec.md §4.5 D4.
func D4Microstructure(in MicrostructureInputs) D4Result {
	var score float64
	if in.ImbalanceOK {
		switch {
		case in.Imbalance > 2.0:
			score += 8
		case in.Imbalance >= 1.5:
			score += 6
		case in.Imbalance >= 1.2:
			score += 4
		}
	}

	res := D4Result{}
	if in.SpreadOK {
		if in.SpreadPct > 0.0025 {
			res.SpreadBlocked = true
		} else {
			switch {
			case in.SpreadPct <= 0.0003:
				score += 6
			case in.SpreadPct <= 0.0008:
				score += 4
			case in.SpreadPct <= 0.0015:
				score += 3
			default:
				score += 1
			}
		}
	}

	if in.HasVWAP {
		switch {
		case in.ReclaimedVWAPIn2:
			score += 6
		case in.Price > in.VWAP:
			pctAbove := (in.Price - in.VWAP) / in.VWAP
			switch {
			case pctAbove <= 0.002:
				score += 5
			case pctAbove <= 0.005:
				score += 3
			default:
				score += 1
			}
		}
	}

	res.Score = capScore(score)
	return res
}

// SessionInputs bundles the D5 inputs.
type SessionInputs struct {
	HourlyScore   int // 0..12
	SessionWeight float64
	ATR14         float64
	ATR50Avg      float64
}

// D5SessionIntelligence implements spec.md §4.5 D5.
func D5SessionIntelligence(in SessionInputs) float64 {
	score := float64(in.HourlyScore) * in.SessionWeight

	if in.ATR50Avg > 0 {
		ratio := in.ATR14 / in.ATR50Avg
		switch {
		case ratio < 0.8:
			score += 3
		case ratio <= 1.5:
			score += 8
		case ratio <= 2.5:
			score += 5
		default:
			score += 1
		}
	}

	return capScore(score)
}
