package vipermode

import "time"

// StrikeConditions is the 1m-timeframe readings STRIKE needs for both
// election scoring and entry evaluation (spec.md §4.6).
type StrikeConditions struct {
	VWAPDistancePct float64 // abs % distance of price from 1m VWAP
	StochK          float64
	StochD          float64
	HMARising       bool
	BuyFlowPct      float64 // 0-100, from tradeflow.Window.BuyShare()*100
	SpreadPct       float64
}

// score implements STRIKE's election precondition: "tight spread and
// StochRSI regime on 1m". Hard preconditions gate to 0; within the gate
// the score rewards a tighter spread and more room before StochRSI
// overbought (K<75).
func (c StrikeConditions) score() float64 {
	const spreadCeiling = 0.15
	const stochCeiling = 75
	if c.SpreadPct > spreadCeiling || c.StochK >= stochCeiling {
		return 0
	}
	spreadScore := (spreadCeiling - c.SpreadPct) / spreadCeiling * 50
	stochScore := (stochCeiling - c.StochK) / stochCeiling * 50
	return clampScore(spreadScore + stochScore)
}

// CheckStrikeEntry applies STRIKE's full entry contract (spec.md §4.6):
// VWAP distance <= 0.75%, StochRSI K>D with K<75, a rising HMA, buy-flow
// >55%, and spread <= 0.15%.
func CheckStrikeEntry(c StrikeConditions) (bool, string) {
	switch {
	case c.VWAPDistancePct > 0.75:
		return false, "vwap distance exceeds 0.75%"
	case !(c.StochK > c.StochD):
		return false, "stochrsi K not above D"
	case c.StochK >= 75:
		return false, "stochrsi K at/above 75"
	case !c.HMARising:
		return false, "hma not rising"
	case c.BuyFlowPct <= 55:
		return false, "buy-flow at/below 55%"
	case c.SpreadPct > 0.15:
		return false, "spread exceeds 0.15%"
	}
	return true, ""
}

// StrikeSizePct is the fixed 2.5% of allocated VIPER capital per trade.
const StrikeSizePct = 0.025

// StrikeSize returns the USD position size for a STRIKE entry.
func StrikeSize(allocatedCapital float64) float64 {
	return allocatedCapital * StrikeSizePct
}

// StrikeParams is the per-pair tuned exit configuration (spec.md §4.6:
// "per-pair tuned %" / "per-pair tuned seconds, <= 4 min").
type StrikeParams struct {
	TakeProfitPct float64
	StopLossPct   float64
	MaxHoldSec    float64 // must be <= 240
}

// EvaluateStrikeExit checks STRIKE's exit conditions in priority order:
// stop, take-profit, max-hold timeout, then the StochRSI reversal signal
// (K crosses below D while K>70 and the position is in profit). STRIKE
// never partial-closes, so a fired exit always closes the full 1.0.
func EvaluateStrikeExit(entryPrice, currentPrice float64, heldFor time.Duration, params StrikeParams, stochK, stochD float64) (kind string, closePct float64, price float64) {
	changePct := (currentPrice - entryPrice) / entryPrice * 100

	switch {
	case changePct <= -params.StopLossPct:
		return "stop", 1.0, currentPrice
	case changePct >= params.TakeProfitPct:
		return "tp1", 1.0, currentPrice
	case heldFor.Seconds() >= params.MaxHoldSec:
		return "timeout", 1.0, currentPrice
	case stochK < stochD && stochK > 70 && changePct > 0:
		return "reversal", 1.0, currentPrice
	}
	return "", 0, 0
}

// StrikeCadence is STRIKE's per-pair cooldown/streak bookkeeping (spec.md
// §4.6): 90s cooldown between trades, 180s after 3 consecutive wins, and
// a forced one-signal skip after a loss. Max 1 concurrent STRIKE position
// is enforced by the Risk & Portfolio Gate, not here.
type StrikeCadence struct {
	LastTradeTs     time.Time
	ConsecutiveWins int
	SkipNext        bool
}

// Allowed reports whether STRIKE may evaluate a new entry right now.
func (c *StrikeCadence) Allowed(now time.Time) bool {
	if c.SkipNext {
		return false
	}
	cooldown := 90 * time.Second
	if c.ConsecutiveWins >= 3 {
		cooldown = 180 * time.Second
	}
	return now.Sub(c.LastTradeTs) >= cooldown
}

// RecordResult updates cadence state after a STRIKE trade closes. A skip
// consumed by Allowed's caller must clear SkipNext explicitly via
// ConsumeSkip; RecordResult only sets it on a loss.
func (c *StrikeCadence) RecordResult(won bool, closedAt time.Time) {
	c.LastTradeTs = closedAt
	if won {
		c.ConsecutiveWins++
		c.SkipNext = false
		return
	}
	c.ConsecutiveWins = 0
	c.SkipNext = true
}

// ConsumeSkip clears a pending forced skip; the engine calls it when it
// passes over one STRIKE evaluation because of the skip.
func (c *StrikeCadence) ConsumeSkip() {
	c.SkipNext = false
}
