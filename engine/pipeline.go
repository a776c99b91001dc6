package engine

import (
	"time"

	"tradeforge/calibrate"
	"tradeforge/hydra"
	"tradeforge/indicator"
	"tradeforge/metrics"
	"tradeforge/position"
	"tradeforge/regime"
	"tradeforge/risk"
	"tradeforge/store"
	"tradeforge/vipermode"
)

// onSealedBar is one full pass of the tick loop for a single pair: it
// recomputes every timeframe's indicator bundle, classifies the regime,
// then drives HYDRA/VIPER -> Risk & Portfolio Gate -> Position Lifecycle
// Manager -> Self-Calibrator in spec.md §5's mandated order, once per
// sealed bar. A pair with an open position only runs the exit half of
// the pipeline; a flat pair only runs the entry half — spec.md §8
// property 8 forbids two concurrent positions on the same pair.
func (e *Engine) onSealedBar(pair string, now time.Time) {
	start := time.Now()
	defer func() { metrics.RecordTickDuration(pair, time.Since(start).Seconds()) }()

	pf := buildFeatures(e.store, pair, now)

	regimeResult, err := regime.Classify(pair, regime.Inputs{
		Price: pf.tf1h.Close, SMA200: pf.tf1h.SMA200, EMA9: pf.tf1h.EMA9,
		EMA21: pf.tf1h.EMA21, EMA50: pf.tf1h.EMA50, ADX: pf.tf1h.ADX,
		RSI: pf.tf1h.RSI, BBWidth: pf.tf1h.BBWidth, BBWidthAvg: pf.tf1h.BBWidthAvg,
	})
	if err != nil {
		metrics.RecordDataGap(pair)
		e.store.AppendEngineLog(store.EngineLogEntry{Ts: now, Pair: pair, Message: "data gap: regime not classified this bar"})
		return
	}
	e.store.SetRegime(pair, regimeResult.Regime, now)

	dims := e.computeDimensions(pair, now, pf)

	if pos, ok := e.store.OpenPositionForPair(pair); ok {
		e.manageOpenPosition(pair, now, pos, pf, dims)
		return
	}

	e.attemptEntry(pair, now, pf, dims, regimeResult.Regime)
}

// computeDimensions folds a pairFeatures bundle into HYDRA's five
// confluence dimensions (spec.md §4.5), shared by both the entry and
// exit halves of the pipeline (HYDRA's exit monitor recombines D1+D2+D3).
func (e *Engine) computeDimensions(pair string, now time.Time, pf pairFeatures) hydra.Dimensions {
	d1 := hydra.D1TrendAlignment(trendInputs(pf.tf1m), trendInputs(pf.tf5m), trendInputs(pf.tf15m))
	d2 := hydra.D2MomentumQuality(hydra.MomentumInputs{
		RSI: pf.tf5m.RSI, RSIHistory: pf.tf5m.RSIHistory, MACDHist: pf.tf5m.MACDHist,
		StochK: pf.tf5m.StochK, StochD: pf.tf5m.StochD,
		PriceLows: pf.tf5m.PriceLows, RSIForPivots: pf.tf5m.RSIForPivots,
	})
	d3 := hydra.D3VolumeConviction(hydra.VolumeInputs{
		CurrentVolume: pf.tf5m.Volume, VolumeSMA20: pf.tf5m.VolumeSMA20,
		OBVLast5: pf.tf5m.OBVLast5, BuyShare: pf.buyShare, HasTradeFlow: pf.hasTradeFlow,
	})

	vwap := e.vwapValue(pair)
	d4 := hydra.D4Microstructure(hydra.MicrostructureInputs{
		Imbalance: pf.imbalance, ImbalanceOK: pf.imbalanceOK,
		SpreadPct: pf.spreadPct, SpreadOK: pf.spreadOK,
		VWAP: vwap, HasVWAP: indicator.Finite(vwap), Price: pf.tf1m.Close,
		ReclaimedVWAPIn2: e.reclaimedVWAPIn2(pair, vwap),
	})

	profile := e.store.SessionProfile(pair)
	hour := now.UTC().Hour()
	hourlyScore := profile.Hourly[hour]
	if hourlyScore == 0 && profile.Default != 0 {
		hourlyScore = profile.Default
	}
	d5 := hydra.D5SessionIntelligence(hydra.SessionInputs{
		HourlyScore: hourlyScore, SessionWeight: e.cfg.SessionWeight,
		ATR14: pf.tf1h.ATR14, ATR50Avg: avgOf(pf.tf1h.ATRHistory),
	})

	return hydra.Dimensions{D1: d1, D2: d2, D3: d3, D4: d4.Score, D5: d5}
}

// d4SpreadBlocked recomputes D4's spread-blocked verdict directly,
// mirroring hydra.D4Microstructure's internal rule (spread > 0.25%
// blocks entry outright, independent of its score contribution).
func d4SpreadBlocked(pf pairFeatures) bool {
	return pf.spreadOK && pf.spreadPct > 0.0025
}

func trendInputs(f tfFeatures) hydra.TrendInputs {
	return hydra.TrendInputs{Price: f.Close, SMA200: f.SMA200, EMA9: f.EMA9, EMA21: f.EMA21, EMA50: f.EMA50}
}

// reclaimedVWAPIn2 reports whether a pair's 1m close was below VWAP
// within the last two sealed bars and is now back above it.
func (e *Engine) reclaimedVWAPIn2(pair string, vwap float64) bool {
	if !indicator.Finite(vwap) {
		return false
	}
	closes := e.store.Series(pair, store.TF1m).Closes()
	n := len(closes)
	if n < 3 {
		return false
	}
	cur := closes[n-1]
	return cur > vwap && (closes[n-2] < vwap || closes[n-3] < vwap)
}

// attemptEntry evaluates the flat-pair half of the pipeline: VIPER's
// currently-elected mode first (its shorter cycle and ratchet-protected
// sizing make it the tighter-risk signal), then HYDRA, per this
// implementation's tie-break for two composable strategies sharing one
// pair slot (spec.md leaves the simultaneous-signal order unspecified).
func (e *Engine) attemptEntry(pair string, now time.Time, pf pairFeatures, dims hydra.Dimensions, reg store.Regime) {
	if e.EmergencyStopped() {
		return
	}
	rt := e.rt(pair)
	e.maybeElect(pair, now, pf, rt)

	if rt.electedMode != store.ModeNone {
		if e.attemptViperEntry(pair, now, pf, reg, rt) {
			return
		}
	}
	e.attemptHydraEntry(pair, now, pf, dims, reg)
}

func (e *Engine) maybeElect(pair string, now time.Time, pf pairFeatures, rt *pairRuntime) {
	if !rt.lastElectionAt.IsZero() && now.Sub(rt.lastElectionAt) < e.cfg.ElectionInterval {
		return
	}
	rt.lastElectionAt = now

	coilATR := pf.tf5m.ATR14
	coilRange := vipermode.DetectCoilRange(e.store.Series(pair, store.TF5m).Bars, coilATR)

	in := vipermode.ElectionInputs{
		Strike: e.strikeConditions(pair, pf),
		Coil:   coilRange,
		CoilATR14: coilATR,
		Lunge:  e.lungeConditions(pair, pf),
	}
	rt.electionScores = in.Score()
	rt.electedMode = vipermode.Elect(rt.electionScores)
}

func (e *Engine) strikeConditions(pair string, pf pairFeatures) vipermode.StrikeConditions {
	vwap := e.vwapValue(pair)
	vwapDist := 0.0
	if indicator.Finite(vwap) && vwap != 0 {
		vwapDist = (pf.tf1m.Close - vwap) / vwap * 100
		if vwapDist < 0 {
			vwapDist = -vwapDist
		}
	}
	buyFlowPct := 0.0
	if pf.hasTradeFlow {
		buyFlowPct = pf.buyShare * 100
	}
	hma := indicator.HMA(e.store.Series(pair, store.TF1m).Closes(), 9)
	hmaRising := len(hma) >= 2 && indicator.Finite(hma[len(hma)-2]) && hma[len(hma)-1] > hma[len(hma)-2]

	var stochK, stochD float64
	if n := len(pf.tf1m.StochK); n > 0 {
		stochK = pf.tf1m.StochK[n-1]
	}
	if n := len(pf.tf1m.StochD); n > 0 {
		stochD = pf.tf1m.StochD[n-1]
	}
	spreadPct := pf.spreadPct * 100

	return vipermode.StrikeConditions{
		VWAPDistancePct: vwapDist, StochK: stochK, StochD: stochD,
		HMARising: hmaRising, BuyFlowPct: buyFlowPct, SpreadPct: spreadPct,
	}
}

func (e *Engine) lungeConditions(pair string, pf pairFeatures) vipermode.LungeConditions {
	bars := e.store.Series(pair, store.TF15m).Bars
	var priorHigh float64
	if n := len(bars); n >= 2 {
		priorHigh = bars[n-2].High
	}
	return vipermode.LungeConditions{
		EMA9: pf.tf15m.EMA9, EMA21: pf.tf15m.EMA21, EMA50: pf.tf15m.EMA50,
		Close: pf.tf15m.Close, PriorHigh: priorHigh,
		Volume: pf.tf15m.Volume, VolumeSMA20: pf.tf15m.VolumeSMA20,
		MACDHist: pf.tf15m.MACDHist, RSI: pf.tf15m.RSI,
		VWAP: e.vwapValue(pair), ADX: pf.tf15m.ADX, ADXRising: pf.tf15m.ADXRising,
		LungeEligible: e.cfg.lungeEligible(pair),
	}
}

func (e *Engine) coilConditions(pf pairFeatures) vipermode.CoilConditions {
	volRatio := 0.0
	if pf.tf5m.VolumeSMA20 > 0 {
		volRatio = pf.tf5m.Volume / pf.tf5m.VolumeSMA20
	}
	return vipermode.CoilConditions{
		Price: pf.tf5m.Close, RSI: pf.tf5m.RSI, RSIRising: rsiRising(pf.tf5m.RSIHistory),
		BullishCandle: pf.tf5m.Close > pf.tf5m.Open,
		VolumeRatio:   volRatio, ADX: pf.tf5m.ADX,
	}
}

func rsiRising(history []float64) bool {
	n := len(history)
	if n < 2 || !indicator.Finite(history[n-1]) || !indicator.Finite(history[n-2]) {
		return false
	}
	return history[n-1] > history[n-2]
}

// attemptViperEntry tries the elected VIPER mode's entry contract,
// running its candidate through the Risk & Portfolio Gate on acceptance.
// Returns true if a position was opened.
func (e *Engine) attemptViperEntry(pair string, now time.Time, pf pairFeatures, reg store.Regime, rt *pairRuntime) bool {
	ratchet := e.store.Ratchet()
	if !vipermode.ModeAllowed(ratchet.Level, rt.electedMode) {
		return false
	}

	var pos store.Position
	var accepted bool
	var reason string
	isScalp := rt.electedMode == store.ModeStrike

	switch rt.electedMode {
	case store.ModeStrike:
		if rt.strikeCadence.SkipNext {
			// The forced skip after a loss is spent on the first evaluation
			// the cooldown alone would have let through.
			rt.strikeCadence.ConsumeSkip()
			if rt.strikeCadence.Allowed(now) {
				e.logDenied(pair, now, store.StrategyViper, "cadence: forced skip after a loss")
				return false
			}
			rt.strikeCadence.SkipNext = true
		}
		if !rt.strikeCadence.Allowed(now) {
			e.logDenied(pair, now, store.StrategyViper, "cadence: strike cooldown active")
			return false
		}
		c := e.strikeConditions(pair, pf)
		if ok, r := vipermode.CheckStrikeEntry(c); ok {
			accepted = true
			pos = store.Position{Pair: pair, Strategy: store.StrategyViper, Mode: store.ModeStrike, Side: "long"}
		} else {
			reason = r
		}

	case store.ModeCoil:
		coilATR := pf.tf5m.ATR14
		r := vipermode.DetectCoilRange(e.store.Series(pair, store.TF5m).Bars, coilATR)
		c := e.coilConditions(pf)
		if ok, rr := vipermode.CheckCoilEntry(r, c); ok {
			accepted = true
			pos = store.Position{
				Pair: pair, Strategy: store.StrategyViper, Mode: store.ModeCoil, Side: "long",
				RangeSupport: r.Support, RangeResistance: r.Resistance,
			}
		} else {
			reason = rr
		}

	case store.ModeLunge:
		c := e.lungeConditions(pair, pf)
		if ok, rr := vipermode.CheckLungeEntry(c); ok {
			accepted = true
			pos = store.Position{Pair: pair, Strategy: store.StrategyViper, Mode: store.ModeLunge, Side: "long"}
		} else {
			reason = rr
		}
	}

	if !accepted {
		e.logDenied(pair, now, store.StrategyViper, reason)
		return false
	}

	viperCapital, _ := e.allocatedCapital()
	sizeUSD := e.viperSize(rt.electedMode, viperCapital, pf)
	if sizeUSD <= 0 {
		e.logDenied(pair, now, store.StrategyViper, "sizing produced zero position")
		return false
	}

	cand := risk.Candidate{
		Pair: pair, Strategy: store.StrategyViper, Mode: rt.electedMode, IsScalp: isScalp,
		SizeUSD: sizeUSD, SpreadPct: pf.spreadPct, EstSlippagePct: e.cfg.EstSlippagePct,
		EstFeesUSD: sizeUSD * e.cfg.EstFeePct, EstGrossUSD: sizeUSD,
		SignalTs: now, Regime: reg, RatchetLevel: ratchet.Level,
	}
	decision := e.evaluateGate(cand, now)
	if !decision.Allowed {
		metrics.RecordRiskVeto(decision.Reason)
		e.logDenied(pair, now, store.StrategyViper, decision.Reason)
		if rt.electedMode == store.ModeStrike && decision.Reason != "" {
			rt.strikeCadence.ConsumeSkip()
		}
		return false
	}

	pos.Cost = decision.AdjustedSizeUSD
	pos.EntryPrice = pf.tf1m.Close
	pos.Quantity = decision.AdjustedSizeUSD / pf.tf1m.Close
	pos.OriginalQuantity = pos.Quantity

	opened, ok := position.Open(e.store, pos, now)
	if !ok {
		return false
	}
	metrics.RecordSignal(pair, string(store.StrategyViper), true, 0)
	e.store.AppendSignalHistory(store.SignalHistoryEntry{Ts: now, Pair: pair, Strategy: store.StrategyViper, Accepted: true})
	e.store.AppendEngineLog(store.EngineLogEntry{Ts: now, Pair: pair, Message: "viper " + string(rt.electedMode) + " position opened"})
	_ = opened
	return true
}

func (e *Engine) viperSize(mode store.ViperMode, allocatedCapital float64, pf pairFeatures) float64 {
	mult := vipermode.SizingMultiplier(e.store.Ratchet().Level)
	switch mode {
	case store.ModeStrike:
		return vipermode.StrikeSize(allocatedCapital) * mult
	case store.ModeCoil:
		return vipermode.CoilSize(allocatedCapital, 1.0) * mult
	case store.ModeLunge:
		stop := pf.tf15m.Close - 1.8*pf.tf15m.ATR14
		return vipermode.LungeSize(allocatedCapital, pf.tf15m.Close, stop) * mult
	default:
		return 0
	}
}

// attemptHydraEntry tries HYDRA's scored entry contract.
func (e *Engine) attemptHydraEntry(pair string, now time.Time, pf pairFeatures, dims hydra.Dimensions, reg store.Regime) {
	threshold := e.threshold()
	params := hydra.EntryParams{
		Pair: pair, Threshold: threshold, SpreadBlocked: d4SpreadBlocked(pf),
		Regime: reg, Price: pf.tf1h.Close, ATR14: pf.tf1h.ATR14,
		PortfolioValue: e.cfg.PortfolioValue, RiskPerTrade: e.cfg.RiskPerTrade, MaxPositionPct: e.cfg.MaxPositionPct,
	}
	ev := hydra.Evaluate(dims, params)
	if !ev.Accepted {
		e.logDenied(pair, now, store.StrategyHydra, ev.Reason)
		return
	}

	cand := risk.Candidate{
		Pair: pair, Strategy: store.StrategyHydra, Mode: store.ModeNone, IsScalp: false,
		SizeUSD: ev.Sizing.PositionUSD, SpreadPct: pf.spreadPct, EstSlippagePct: e.cfg.EstSlippagePct,
		EstFeesUSD: ev.Sizing.PositionUSD * e.cfg.EstFeePct, EstGrossUSD: ev.Sizing.PositionUSD,
		SignalTs: now, Regime: reg, RatchetLevel: e.store.Ratchet().Level,
	}
	decision := e.evaluateGate(cand, now)
	if !decision.Allowed {
		metrics.RecordRiskVeto(decision.Reason)
		e.logDenied(pair, now, store.StrategyHydra, decision.Reason)
		return
	}

	pos := hydra.NewPosition(pair, params.Price, ev.Sizing)
	pos.Strategy = store.StrategyHydra
	pos.Mode = store.ModeNone
	pos.DimensionScores = map[string]float64{"d1": dims.D1, "d2": dims.D2, "d3": dims.D3, "d4": dims.D4, "d5": dims.D5}
	if decision.AdjustedSizeUSD != ev.Sizing.PositionUSD && decision.AdjustedSizeUSD > 0 {
		scale := decision.AdjustedSizeUSD / ev.Sizing.PositionUSD
		pos.Quantity *= scale
		pos.OriginalQuantity = pos.Quantity
		pos.Cost = decision.AdjustedSizeUSD
	}

	if _, ok := position.Open(e.store, pos, now); ok {
		metrics.RecordSignal(pair, string(store.StrategyHydra), true, ev.Score)
		e.store.AppendSignalHistory(store.SignalHistoryEntry{Ts: now, Pair: pair, Strategy: store.StrategyHydra, Score: ev.Score, Accepted: true})
		e.store.AppendEngineLog(store.EngineLogEntry{Ts: now, Pair: pair, Message: "hydra position opened"})
	}
}

func (e *Engine) logDenied(pair string, now time.Time, strat store.Strategy, reason string) {
	if reason == "" {
		return
	}
	metrics.RecordSignal(pair, string(strat), false, 0)
	e.store.AppendSignalHistory(store.SignalHistoryEntry{Ts: now, Pair: pair, Strategy: strat, Reason: reason})
}

// evaluateGate assembles the Risk & Portfolio Gate's Portfolio view from
// live MSS state and runs the 11 ordered checks.
func (e *Engine) evaluateGate(cand risk.Candidate, now time.Time) risk.Decision {
	open := e.store.OpenPositions()
	ratchet := e.store.Ratchet()
	scalp := e.store.Scalp()

	lastClose := map[string]time.Time{}
	for _, t := range e.store.RecentTrades(200) {
		if t.ClosedTs.After(lastClose[t.Pair]) {
			lastClose[t.Pair] = t.ClosedTs
		}
	}

	var dailyLossUSD, hydraDailyLossPct float64
	tradesToday := 0
	for _, t := range e.store.RecentTrades(1000) {
		if !sameUTCDay(t.ClosedTs, now) {
			continue
		}
		tradesToday++
		if t.NetPnL < 0 {
			dailyLossUSD += -t.NetPnL
		}
		if t.Strategy == store.StrategyHydra && t.NetPnL < 0 {
			hydraDailyLossPct += -t.NetPnL / e.cfg.PortfolioValue * 100
		}
	}
	dailyLossPct := dailyLossUSD / e.cfg.PortfolioValue * 100

	breaker := risk.ScalpCircuitBreaker{
		ConsecutiveLosses: negativeStreak(scalp.Streak),
		PausedUntil:       scalp.PausedUntilTs,
		Disabled:          scalp.Disabled,
		SessionPnLPct:     scalp.NetPnL / e.cfg.PortfolioValue * 100,
	}

	return risk.Evaluate(cand, e.cfg.Limits, risk.Portfolio{
		OpenPositions: open, TradesToday: tradesToday, DailyLossUSD: dailyLossUSD,
		DailyLossPct: dailyLossPct, HydraDailyLossPct: hydraDailyLossPct,
		LastCloseByPair: lastClose, Correlations: e.cfg.Correlation,
		MinUnitUSD: e.cfg.CorrelationMinUnit, Breaker: breaker, Now: now,
	})
}

func negativeStreak(streak int) int {
	if streak < 0 {
		return -streak
	}
	return 0
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// allocatedCapital splits total capital between HYDRA and VIPER per
// spec.md §4.6. The engine keeps no VIPER performance ledger, so the
// replacement threat is derived from an empty history, which yields
// WARNING and halves VIPER's configured share.
func (e *Engine) allocatedCapital() (viperCapital, hydraCapital float64) {
	threat := vipermode.DeriveReplacementThreat(nil)
	return vipermode.SplitAllocation(e.cfg.PortfolioValue, e.cfg.ConfiguredViperPct, threat)
}

func (e *Engine) threshold() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hydraThreshold
}

// manageOpenPosition runs the exit half of the pipeline for a pair
// already under management: evaluate the owning strategy's exit
// monitor, apply any fired exit, and — on a full close — run the
// Self-Calibrator.
func (e *Engine) manageOpenPosition(pair string, now time.Time, pos *store.Position, pf pairFeatures, dims hydra.Dimensions) {
	rt := e.rt(pair)

	var stochK, stochD float64
	if n := len(pf.tf1m.StochK); n > 0 {
		stochK = pf.tf1m.StochK[n-1]
	}
	if n := len(pf.tf1m.StochD); n > 0 {
		stochD = pf.tf1m.StochD[n-1]
	}

	atr14 := pf.tf1h.ATR14
	ema9, ema21 := pf.tf15m.EMA9, pf.tf15m.EMA21
	if pos.Strategy == store.StrategyViper {
		switch pos.Mode {
		case store.ModeCoil:
			atr14 = pf.tf5m.ATR14
		case store.ModeLunge:
			atr14 = pf.tf15m.ATR14
		}
	}

	mctx := position.MarketContext{
		High: pf.tf1m.High, Low: pf.tf1m.Low, Close: pf.tf1m.Close,
		HeldFor: now.Sub(pos.EntryTs), ExitScore: dims.D1 + dims.D2 + dims.D3,
		StochK: stochK, StochD: stochD, EMA9: ema9, EMA21: ema21, ATR14: atr14,
		StrikeParams: vipermode.StrikeParams{TakeProfitPct: 0.4, StopLossPct: 0.25, MaxHoldSec: 240},
	}

	hydra.UpdateHighSinceTP1(pos, pf.tf1m.High)

	exitType, closePct, price, fired := position.EvaluateExit(pos, mctx)
	if !fired {
		return
	}

	feesUSD := pos.OriginalQuantity * closePct * price * e.cfg.EstFeePct
	trade, closed := position.ApplyExit(e.store, e.ledger, pos, exitType, closePct, price, feesUSD, now)
	e.store.AppendEngineLog(store.EngineLogEntry{Ts: now, Pair: pair, Message: "exit: " + string(exitType)})

	if pos.Strategy == store.StrategyViper && pos.Mode == store.ModeStrike {
		rt.strikeCadence.RecordResult(closed && trade.NetPnL > 0, now)
	}

	if !closed {
		return
	}
	e.onTradeClosed(pair, now, *trade)
}

// onTradeClosed runs the Self-Calibrator against one fully realized
// trade: VIPER's ratchet recompute, HYDRA's threshold adaptation every
// 10 trades, and per-pair session-profile learning (spec.md §4.9).
func (e *Engine) onTradeClosed(pair string, now time.Time, trade store.Trade) {
	metrics.RecordTrade(pair, string(trade.Strategy), trade.NetPnL)

	if trade.Strategy == store.StrategyViper {
		r := e.store.Ratchet()
		pnlPct := trade.NetPnL / e.cfg.PortfolioValue * 100
		next := vipermode.EvaluateRatchet(r, r.DailyPnL+trade.NetPnL, r.DailyPnLPct+pnlPct, now)
		e.store.SetRatchet(next)
		metrics.SetRatchetLevel(string(next.Level))

		sc := e.store.Scalp()
		sc.NetPnL += trade.NetPnL
		sc.Fees += trade.Fees
		sc.Trades++
		if trade.NetPnL > 0 {
			sc.Wins++
			if sc.Streak < 0 {
				sc.Streak = 0
			}
			sc.Streak++
		} else {
			sc.Losses++
			if sc.Streak > 0 {
				sc.Streak = 0
			}
			sc.Streak--
		}
		sc.History = append(sc.History, trade)
		e.store.SetScalp(sc)
		metrics.SetScalpStreak(sc.Streak)
	}

	if trade.Strategy == store.StrategyHydra {
		e.mu.Lock()
		e.hydraNetPnLs = append(e.hydraNetPnLs, trade.NetPnL)
		next, ev := calibrate.AdaptThreshold(e.hydraNetPnLs, e.hydraThreshold, e.initialHydraThreshold, now)
		e.hydraThreshold = next
		e.mu.Unlock()
		metrics.SetHydraThreshold(next)
		if ev != nil {
			e.store.AppendEngineLog(store.EngineLogEntry{Ts: now, Pair: pair, Message: "calibration: " + ev.Reason})
		}
	}

	if bal, ok := e.ledger.Balance().Float64(); ok {
		metrics.SetEquity(bal)
	}
	metrics.SetOpenPositionsCount(len(e.store.OpenPositions()))

	learner := e.sessionLearnerFor(pair)
	learner.Record(trade.EntryTs.UTC().Hour(), trade.NetPnL > 0)
	baseline := e.baselineProfileFor(pair)
	overlay := e.store.SessionProfile(pair)
	e.store.SetSessionProfile(pair, calibrate.LearnSessionProfile(learner, baseline, overlay))
}

func (e *Engine) sessionLearnerFor(pair string) *calibrate.SessionLearner {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.sessionLearner[pair]
	if !ok {
		l = calibrate.NewSessionLearner()
		e.sessionLearner[pair] = l
	}
	return l
}

// EmergencyStop is the HTTP API's emergency-stop toggle (spec.md §4.8):
// it forbids new entries from this point forward and force-closes every
// open position at the last known ticker price with ExitType "emergency".
// In-flight order calls already placed are not retroactively cancelled;
// they resolve normally on their own acknowledgement.
func (e *Engine) EmergencyStop(now time.Time) {
	e.mu.Lock()
	e.emergencyStopped = true
	e.mu.Unlock()

	for _, pos := range e.store.OpenPositions() {
		price := pos.EntryPrice
		if t, ok := e.store.Ticker(pos.Pair); ok && t.Price > 0 {
			price = t.Price
		}
		feesUSD := pos.Quantity * price * e.cfg.EstFeePct
		trade, closed := position.ApplyExit(e.store, e.ledger, pos, store.ExitEmergency, 1.0, price, feesUSD, now)
		e.store.AppendEngineLog(store.EngineLogEntry{Ts: now, Pair: pos.Pair, Message: "emergency stop: position force-closed"})
		if closed {
			e.onTradeClosed(pos.Pair, now, *trade)
		}
	}
}

// ClearEmergencyStop re-enables new entries.
func (e *Engine) ClearEmergencyStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emergencyStopped = false
}

// EmergencyStopped reports whether new entries are currently forbidden.
func (e *Engine) EmergencyStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emergencyStopped
}

func (e *Engine) baselineProfileFor(pair string) store.SessionProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.baselineProfile[pair]
	if !ok {
		p = store.SessionProfile{Default: 6}
		e.baselineProfile[pair] = p
	}
	return p
}
