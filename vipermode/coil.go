package vipermode

import "tradeforge/candle"

// CoilRange is a detected 5m trading range (spec.md §4.6).
type CoilRange struct {
	Support       float64
	Resistance    float64
	Width         float64
	SupportTouches    int
	ResistanceTouches int
	Valid         bool
}

// DetectCoilRange scans the last 40 5m bars for a valid range: width in
// [0.8, 4.0]*ATR, at least 2 touches of each edge (a touch is a
// high/low within 8% of the width from that edge), and no breakout
// closes in the last 5 bars.
func DetectCoilRange(bars []candle.Candle, atr float64) CoilRange {
	if len(bars) < 40 || atr <= 0 {
		return CoilRange{}
	}
	window := bars[len(bars)-40:]

	resistance := window[0].High
	support := window[0].Low
	for _, b := range window[1:] {
		if b.High > resistance {
			resistance = b.High
		}
		if b.Low < support {
			support = b.Low
		}
	}
	width := resistance - support
	widthInATR := width / atr
	if widthInATR < 0.8 || widthInATR > 4.0 {
		return CoilRange{Support: support, Resistance: resistance, Width: width}
	}

	touchBand := width * 0.08
	var supportTouches, resistanceTouches int
	for _, b := range window {
		if b.Low-support <= touchBand {
			supportTouches++
		}
		if resistance-b.High <= touchBand {
			resistanceTouches++
		}
	}
	if supportTouches < 2 || resistanceTouches < 2 {
		return CoilRange{Support: support, Resistance: resistance, Width: width}
	}

	last5 := window[len(window)-5:]
	for _, b := range last5 {
		if b.Close > resistance || b.Close < support {
			return CoilRange{Support: support, Resistance: resistance, Width: width}
		}
	}

	return CoilRange{
		Support:           support,
		Resistance:        resistance,
		Width:             width,
		SupportTouches:    supportTouches,
		ResistanceTouches: resistanceTouches,
		Valid:             true,
	}
}

// score implements COIL's election precondition: "a valid range on 5m".
// A valid range scores on how cleanly it qualifies — more edge touches
// and a width nearer the center of the [0.8,4.0]*ATR band score higher.
func (r CoilRange) score(atr float64) float64 {
	if !r.Valid || atr <= 0 {
		return 0
	}
	widthInATR := r.Width / atr
	center := 2.4 // midpoint of [0.8, 4.0]
	distFromCenter := widthInATR - center
	if distFromCenter < 0 {
		distFromCenter = -distFromCenter
	}
	widthScore := clampScore((1 - distFromCenter/1.6) * 50)
	touchScore := clampScore(float64(r.SupportTouches+r.ResistanceTouches-4) * 10)
	return clampScore(widthScore + touchScore)
}

// CoilConditions is the 5m-timeframe entry-evaluation input.
type CoilConditions struct {
	Price          float64
	RSI            float64
	RSIRising      bool
	BullishCandle  bool
	VolumeRatio    float64 // current volume / SMA20 volume
	ADX            float64
}

// CheckCoilEntry applies COIL's entry contract (spec.md §4.6): price
// near support (within +1.5% above, not below by more than 0.3%), RSI<55
// and rising, a bullish candle, volume > 1.3x its 20-period average, and
// ADX<25 (range persisting, not trending away).
func CheckCoilEntry(r CoilRange, c CoilConditions) (bool, string) {
	if !r.Valid {
		return false, "no valid range"
	}
	distFromSupportPct := (c.Price - r.Support) / r.Support * 100
	switch {
	case distFromSupportPct > 1.5:
		return false, "too far above support"
	case distFromSupportPct < -0.3:
		return false, "below support by more than 0.3%"
	case c.RSI >= 55:
		return false, "rsi at/above 55"
	case !c.RSIRising:
		return false, "rsi not rising"
	case !c.BullishCandle:
		return false, "not a bullish candle"
	case c.VolumeRatio <= 1.3:
		return false, "volume at/below 1.3x SMA20"
	case c.ADX >= 25:
		return false, "adx at/above 25"
	}
	return true, ""
}

// CoilSizePct is the base 3.5% of allocated VIPER capital, scaled by a
// per-pair multiplier (spec.md §4.6).
const CoilSizePct = 0.035

// CoilSize returns the USD position size for a COIL entry.
func CoilSize(allocatedCapital, perPairMultiplier float64) float64 {
	return allocatedCapital * CoilSizePct * perPairMultiplier
}

// CoilExitParams bundles the range geometry an open COIL position's
// exit monitor needs.
type CoilExitParams struct {
	Support float64
	Width   float64
	ATR14   float64
}

// EvaluateCoilExit applies COIL's exit priority: stop, TP1 (range
// midpoint, close 40%), TP2 (support + 85% of width, close remainder),
// then range invalidation (a close below support while P&L < -0.1%).
func EvaluateCoilExit(p CoilExitParams, entryPrice, currentClose float64, tp1Hit bool) (string, float64, float64) {
	stop := p.Support - 0.6*p.ATR14
	tp1 := p.Support + p.Width/2
	tp2 := p.Support + 0.85*p.Width

	if currentClose <= stop {
		return "stop", 1.0, stop
	}
	if !tp1Hit && currentClose >= tp1 {
		return "tp1", 0.4, tp1
	}
	if tp1Hit && currentClose >= tp2 {
		return "tp2", 1.0, tp2
	}

	pnlPct := (currentClose - entryPrice) / entryPrice * 100
	if currentClose < p.Support && pnlPct < -0.1 {
		return "invalidation", 1.0, currentClose
	}
	return "", 0, 0
}
