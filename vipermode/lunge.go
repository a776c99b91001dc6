package vipermode

// LungeConditions is the 15m-timeframe entry-evaluation input (spec.md
// §4.6).
type LungeConditions struct {
	EMA9, EMA21, EMA50   float64
	Close                float64
	PriorHigh            float64 // prior 15m bar's high
	Volume, VolumeSMA20  float64
	MACDHist             []float64 // recent histogram values, most recent last
	RSI                  float64
	VWAP                 float64
	ADX                  float64
	ADXRising             bool
	LungeEligible         bool // per-pair gate (spec.md §4.6)
}

// score implements LUNGE's election precondition: "ADX>28 rising and
// price>VWAP on 15m". The score rewards how far ADX clears 28 and how
// far price clears VWAP.
func (c LungeConditions) score() float64 {
	if !c.LungeEligible || c.ADX <= 28 || !c.ADXRising || c.Close <= c.VWAP {
		return 0
	}
	adxScore := clampScore((c.ADX - 28) / 28 * 50)
	vwapDist := (c.Close - c.VWAP) / c.VWAP * 100
	vwapScore := clampScore(vwapDist * 20)
	return clampScore(adxScore + vwapScore)
}

// CheckLungeEntry applies LUNGE's full entry contract (spec.md §4.6):
// EMA9>21>50 on 15m, a close above the prior 15m high, volume > 2x its
// 20-period average, a positive and rising MACD histogram, RSI in
// [52,72], price above VWAP, and ADX>28 rising.
func CheckLungeEntry(c LungeConditions) (bool, string) {
	switch {
	case !c.LungeEligible:
		return false, "pair not lunge-eligible"
	case !(c.EMA9 > c.EMA21 && c.EMA21 > c.EMA50):
		return false, "emas not stacked 9>21>50"
	case c.Close <= c.PriorHigh:
		return false, "close not above prior 15m high"
	case c.Volume <= 2*c.VolumeSMA20:
		return false, "volume at/below 2x SMA20"
	case !macdHistRisingPositive(c.MACDHist):
		return false, "macd histogram not positive and rising"
	case c.RSI < 52 || c.RSI > 72:
		return false, "rsi outside [52,72]"
	case c.Close <= c.VWAP:
		return false, "price at/below vwap"
	case c.ADX <= 28 || !c.ADXRising:
		return false, "adx at/below 28 or not rising"
	}
	return true, ""
}

func macdHistRisingPositive(hist []float64) bool {
	if len(hist) < 2 {
		return false
	}
	last := hist[len(hist)-1]
	prev := hist[len(hist)-2]
	return last > 0 && last > prev
}

// LungeRiskPct is the 1.5% of allocated capital risked per LUNGE trade.
const LungeRiskPct = 0.015

// LungeMaxPositionPct caps a LUNGE position at 10% of allocated capital.
const LungeMaxPositionPct = 0.10

// LungeSize computes LUNGE's risk-based size: riskUSD = 1.5% of
// allocated capital; size = min(riskUSD/(P-stop)*P, 10% of allocated).
func LungeSize(allocatedCapital, price, stop float64) float64 {
	riskUSD := allocatedCapital * LungeRiskPct
	perUnitRisk := price - stop
	if perUnitRisk <= 0 {
		return 0
	}
	bySize := riskUSD / perUnitRisk * price
	cap := allocatedCapital * LungeMaxPositionPct
	if bySize > cap {
		return cap
	}
	return bySize
}

// LungeExitParams bundles the ATR-derived exit geometry for an open
// LUNGE position (spec.md §4.6): TP1=+2.0*ATR (35%), TP2=+3.5*ATR
// (35%), trailing=1.2*ATR after TP1 on the remainder, stop=-1.8*ATR,
// plus an emergency exit if EMA9<EMA21 on 15m.
type LungeExitParams struct {
	EntryPrice float64
	ATR14      float64
}

// EvaluateLungeExit applies LUNGE's exit priority: stop, TP1, TP2,
// trailing stop (after TP1, on the remainder), then an emergency exit on
// an EMA9/EMA21 cross-down.
func EvaluateLungeExit(p LungeExitParams, currentPrice, highSinceTP1 float64, tp1Hit, tp2Hit bool, ema9, ema21 float64) (string, float64, float64) {
	stop := p.EntryPrice - 1.8*p.ATR14
	tp1 := p.EntryPrice + 2.0*p.ATR14
	tp2 := p.EntryPrice + 3.5*p.ATR14
	trailDistance := 1.2 * p.ATR14

	if currentPrice <= stop {
		return "stop", 1.0, stop
	}
	if !tp1Hit && currentPrice >= tp1 {
		return "tp1", 0.35, tp1
	}
	if tp1Hit && !tp2Hit && currentPrice >= tp2 {
		return "tp2", 0.35, tp2
	}
	if tp1Hit {
		trailStop := highSinceTP1 - trailDistance
		if currentPrice <= trailStop {
			return "trail", 1.0, trailStop
		}
	}
	if ema9 < ema21 {
		return "emergency", 1.0, currentPrice
	}
	return "", 0, 0
}
