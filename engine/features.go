package engine

import (
	"time"

	"tradeforge/candle"
	"tradeforge/indicator"
	"tradeforge/store"
)

// warmupBars is the longest lookback any single indicator in the
// feature set needs (SMA200); shorter timeframes simply stay WARMING
// longer under the same constant, matching spec.md §4.2's per-series
// state machine.
const warmupBars = 200

// tfFeatures is the computed indicator bundle for one (pair, timeframe),
// cached in the MSS via store.SetIndicators so the HTTP API and
// backtester can read it without recomputing.
type tfFeatures struct {
	Open, Close, High, Low, Volume float64
	SMA200                   float64 // indicator.Absent until warmed
	EMA9, EMA21, EMA50       float64 // EMA50 may be indicator.Absent
	RSI                      float64
	RSIHistory               []float64
	MACDHist                 []float64
	StochK, StochD           []float64
	ADX                      float64
	ADXRising                bool
	BBWidth, BBWidthAvg      float64
	ATR14                    float64
	ATRHistory               []float64
	VolumeSMA20              float64
	OBVLast5                 []float64
	PriceLows                []float64
	RSIForPivots             []float64
}

// asMap flattens a tfFeatures into the map[string]any shape
// store.SetIndicators expects, per spec.md §3 ("raw []float64 series or
// named bundles").
func (f tfFeatures) asMap() map[string]any {
	return map[string]any{
		"close": f.Close, "high": f.High, "low": f.Low, "volume": f.Volume,
		"sma200": f.SMA200, "ema9": f.EMA9, "ema21": f.EMA21, "ema50": f.EMA50,
		"rsi": f.RSI, "macd_hist": f.MACDHist, "stoch_k": f.StochK, "stoch_d": f.StochD,
		"adx": f.ADX, "adx_rising": f.ADXRising, "bb_width": f.BBWidth, "bb_width_avg": f.BBWidthAvg,
		"atr14": f.ATR14, "volume_sma20": f.VolumeSMA20, "obv": f.OBVLast5,
	}
}

// computeTfFeatures runs package indicator's accumulators over a
// series's full backing slice, matching spec.md §4.1's "recompute the
// full window on every sealed bar" (no incremental indicator state is
// kept beyond the raw candle series itself, mirroring
// trader/vwap_collector.go's refold-on-append idiom already used by
// candle.Aggregator).
func computeTfFeatures(s *candle.Series) tfFeatures {
	closes := s.Closes()
	highs := s.Highs()
	lows := s.Lows()
	opens := s.Opens()
	vols := s.Volumes()
	n := len(closes)

	f := tfFeatures{SMA200: indicator.Absent, EMA50: indicator.Absent}
	if n == 0 {
		return f
	}
	f.Open = opens[n-1]
	f.Close = closes[n-1]
	f.High = highs[n-1]
	f.Low = lows[n-1]
	f.Volume = vols[n-1]

	f.SMA200 = lastOr(indicator.SMA(closes, 200), indicator.Absent)
	f.EMA9 = lastOr(indicator.EMA(closes, 9), indicator.Absent)
	f.EMA21 = lastOr(indicator.EMA(closes, 21), indicator.Absent)
	f.EMA50 = lastOr(indicator.EMA(closes, 50), indicator.Absent)

	rsi := indicator.RSI(closes, 14)
	f.RSI = lastOr(rsi, indicator.Absent)
	f.RSIHistory = lastN(rsi, 10)
	f.RSIForPivots = lastN(rsi, 20)
	f.PriceLows = lastN(closes, 20)

	macd := indicator.MACD(closes, 12, 26, 9)
	f.MACDHist = lastN(macd.Histogram, 10)

	stoch := indicator.StochRSI(closes, 14, 14, 3, 3)
	f.StochK = lastN(stoch.K, 5)
	f.StochD = lastN(stoch.D, 5)

	adx := indicator.ADX(highs, lows, closes, 14)
	adxSeries := adx.ADX
	f.ADX = lastOr(adxSeries, indicator.Absent)
	if len(adxSeries) >= 2 && indicator.Finite(adxSeries[len(adxSeries)-2]) {
		f.ADXRising = adxSeries[len(adxSeries)-1] > adxSeries[len(adxSeries)-2]
	}

	bb := indicator.Bollinger(closes, 20, 2.0)
	bbWidth := make([]float64, n)
	for i := range bbWidth {
		if indicator.Finite(bb.Middle[i]) && bb.Middle[i] != 0 {
			bbWidth[i] = (bb.Upper[i] - bb.Lower[i]) / bb.Middle[i]
		} else {
			bbWidth[i] = indicator.Absent
		}
	}
	f.BBWidth = lastOr(bbWidth, indicator.Absent)
	f.BBWidthAvg = avgOf(lastN(bbWidth, 50))

	atr := indicator.ATR(highs, lows, closes, 14)
	f.ATR14 = lastOr(atr, indicator.Absent)
	f.ATRHistory = lastN(atr, 50)

	f.VolumeSMA20 = lastOr(indicator.SMA(vols, 20), 0)

	f.OBVLast5 = lastN(indicator.OBV(closes, vols), 5)

	return f
}

func lastOr(series []float64, fallback float64) float64 {
	if len(series) == 0 {
		return fallback
	}
	v := series[len(series)-1]
	if !indicator.Finite(v) {
		return fallback
	}
	return v
}

func lastN(series []float64, n int) []float64 {
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

func avgOf(vs []float64) float64 {
	var sum float64
	var count int
	for _, v := range vs {
		if indicator.Finite(v) {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// pairFeatures bundles every timeframe's computed indicators for one
// pair, plus the book/flow snapshots, everything downstream decision
// stages need.
type pairFeatures struct {
	tf1m, tf5m, tf15m, tf1h tfFeatures
	spreadPct               float64
	spreadOK                bool
	imbalance               float64
	imbalanceOK             bool
	buyShare                float64
	hasTradeFlow            bool
}

// buildFeatures recomputes every timeframe's indicator bundle for a
// pair, writes each back into the MSS (spec.md §4.2: the store is the
// one cache the HTTP API and backtester read), and returns the bundle
// the regime/HYDRA/VIPER stages evaluate against.
func buildFeatures(s *store.Store, pair string, now time.Time) pairFeatures {
	tf1m := computeTfFeatures(s.Series(pair, store.TF1m))
	tf5m := computeTfFeatures(s.Series(pair, store.TF5m))
	tf15m := computeTfFeatures(s.Series(pair, store.TF15m))
	tf1h := computeTfFeatures(s.Series(pair, store.TF1h))

	s.SetIndicators(pair, store.TF1m, tf1m.asMap())
	s.SetIndicators(pair, store.TF5m, tf5m.asMap())
	s.SetIndicators(pair, store.TF15m, tf15m.asMap())
	s.SetIndicators(pair, store.TF1h, tf1h.asMap())

	pf := pairFeatures{tf1m: tf1m, tf5m: tf5m, tf15m: tf15m, tf1h: tf1h}

	b := s.Book(pair)
	if pct, ok := b.SpreadPct(); ok {
		pf.spreadPct, pf.spreadOK = pct, true
	}
	if ratio, ok := b.Imbalance(); ok {
		pf.imbalance, pf.imbalanceOK = ratio, true
	}

	flow := s.TradeFlow(pair).Snapshot(now)
	if share, ok := flow.BuyShare(); ok {
		pf.buyShare, pf.hasTradeFlow = share, true
	}

	return pf
}
