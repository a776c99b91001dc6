// Package store is the Market State Store (MSS): the single in-memory
// authoritative snapshot of tickers, candle series, order books, rolling
// trade-flow, indicator caches, positions, and session analytics
// (spec.md §3/§4.2). It is guarded entirely by the single-threaded
// engine tick loop (spec.md §5) — Store itself takes no internal locks
// beyond the one RWMutex protecting the read-view snapshots handed to
// the HTTP API and backtester, which run on a different goroutine than
// the tick loop.
//
// Grounded on store/strategy.go and store/tactics.go's struct-per-entity
// shape and CRUD surface, generalized from durable per-user strategy
// rows to the in-memory, single-tenant market snapshot spec.md names.
package store

import (
	"sync"
	"time"

	"tradeforge/book"
	"tradeforge/candle"
	"tradeforge/tradeflow"
)

// Timeframe re-exports candle.Timeframe so callers need only import
// store for the full MSS surface.
type Timeframe = candle.Timeframe

const (
	TF1m  = candle.TF1m
	TF5m  = candle.TF5m
	TF15m = candle.TF15m
	TF1h  = candle.TF1h
	TF4h  = candle.TF4h
)

// SeriesState is the per (pair, timeframe) candle series readiness
// state machine of spec.md §4.2.
type SeriesState int

const (
	SeriesEmpty SeriesState = iota
	SeriesWarming
	SeriesReady
)

// Ticker is the latest quote for one pair (spec.md §3).
type Ticker struct {
	Pair       string
	Price      float64
	Bid        float64
	Ask        float64
	Change24h  float64
	Volume24h  float64
	PrevPrice  float64
	UpdatedAt  time.Time
}

// Regime is the classifier's enum output (spec.md §3/§4.4).
type Regime string

const (
	RegimeBullish Regime = "bullish"
	RegimeChoppy  Regime = "choppy"
	RegimeBearish Regime = "bearish"
)

// RegimeSample is one entry of the bounded regime history.
type RegimeSample struct {
	Regime Regime
	Ts     time.Time
}

// Strategy identifies which strategy owns a position.
type Strategy string

const (
	StrategyHydra Strategy = "hydra"
	StrategyViper Strategy = "viper"
)

// ViperMode is VIPER's elected mode, or "-" when the position belongs
// to HYDRA.
type ViperMode string

const (
	ModeNone   ViperMode = "-"
	ModeStrike ViperMode = "STRIKE"
	ModeCoil   ViperMode = "COIL"
	ModeLunge  ViperMode = "LUNGE"
)

// Position is an open position under management by the PLM (spec.md §3).
type Position struct {
	ID              string
	Pair            string
	Strategy        Strategy
	Mode            ViperMode
	Side            string // always "long" per spec.md §3
	EntryPrice      float64
	Quantity        float64
	OriginalQuantity float64
	Cost            float64
	EntryTs         time.Time
	StopLoss        float64
	TP1             float64
	TP2             float64
	TP1ClosePct     float64
	TP2ClosePct     float64
	TP1Hit          bool
	TP2Hit          bool
	TrailDistance   float64
	HighSinceTP1    float64
	RangeSupport    float64
	RangeResistance float64
	MaxHoldMs       int64
	ExitReason      string
	DimensionScores map[string]float64
}

// ExitType enumerates how a Trade closed (spec.md §3).
type ExitType string

const (
	ExitTP1          ExitType = "tp1"
	ExitTP2          ExitType = "tp2"
	ExitStop         ExitType = "stop"
	ExitTrail        ExitType = "trail"
	ExitTimeout      ExitType = "timeout"
	ExitEarly        ExitType = "early"
	ExitManual       ExitType = "manual"
	ExitInvalidation ExitType = "invalidation"
	ExitReversal     ExitType = "reversal"
	ExitEmergency    ExitType = "emergency"
)

// Trade is a closed Position plus realization fields (spec.md §3).
type Trade struct {
	Position
	ExitPrice float64
	ClosedTs  time.Time
	PnL       float64
	Fees      float64
	NetPnL    float64
	ExitTypeV ExitType
}

// ScalpSession is VIPER STRIKE's circuit-breaker bookkeeping (spec.md §3).
type ScalpSession struct {
	Wins           int
	Losses         int
	NetPnL         float64
	Fees           float64
	Trades         int
	Streak         int // positive run of wins, negative run of losses
	PausedUntilTs  time.Time
	Disabled       bool
	History        []Trade
}

// RatchetLevel is VIPER's capital-preservation ladder (spec.md §3/§4.6).
type RatchetLevel string

const (
	RatchetNormal      RatchetLevel = "NORMAL"
	RatchetProtected   RatchetLevel = "PROTECTED"
	RatchetPreservation RatchetLevel = "PRESERVATION"
	RatchetLocked      RatchetLevel = "LOCKED"
	RatchetRecovery    RatchetLevel = "RECOVERY"
)

// ratchetRank gives RatchetLevel a total order for the
// never-loosens-within-a-session invariant (spec.md §8 property 3).
var ratchetRank = map[RatchetLevel]int{
	RatchetNormal:       0,
	RatchetRecovery:     1,
	RatchetProtected:    2,
	RatchetPreservation: 3,
	RatchetLocked:       4,
}

// Tighter reports whether level b is strictly tighter than level a.
func (a RatchetLevel) Tighter(b RatchetLevel) bool {
	return ratchetRank[b] > ratchetRank[a]
}

// RatchetState is VIPER's daily capital-preservation state (spec.md §3).
type RatchetState struct {
	Level            RatchetLevel
	DailyPnL         float64
	DailyPnLPct      float64
	DailyHighPnL     float64
	DailyHighPnLPct  float64
	SessionStartedAt time.Time
}

// SessionProfile maps UTC hour-of-day to a 0..12 session-intelligence
// score for one pair (spec.md §3/§4.5 D5).
type SessionProfile struct {
	Hourly  [24]int
	Default int
}

// EngineLogEntry is one bounded record of an evaluation outcome.
type EngineLogEntry struct {
	Ts      time.Time
	Pair    string
	Message string
}

// SignalHistoryEntry is one bounded record of an emitted or denied
// candidate.
type SignalHistoryEntry struct {
	Ts       time.Time
	Pair     string
	Strategy Strategy
	Score    float64
	Accepted bool
	Reason   string
}

const (
	engineLogCap      = 100
	signalHistoryCap  = 200
	regimeHistoryCap  = 100
)

type pairState struct {
	ticker    Ticker
	hasTicker bool
	book      *book.Book
	flow      *tradeflow.Window
	series    map[Timeframe]*candle.Series
	aggs      map[Timeframe]*candle.Aggregator
	indicators map[Timeframe]map[string]any
	regimeHist []RegimeSample
	currentRegime Regime
	sessionProfile SessionProfile
}

// Store is the Market State Store.
type Store struct {
	mu sync.RWMutex // guards only the read-view snapshots below

	pairs map[string]*pairState

	positions map[string]*Position // open positions, by id
	trades    []Trade              // ring buffer, pair-independent

	scalp   ScalpSession
	ratchet RatchetState

	engineLog      []EngineLogEntry
	signalHistory  []SignalHistoryEntry

	persister *Persister
}

// New creates an empty Market State Store. persister may be nil, in
// which case durable reads/writes are no-ops.
func New(persister *Persister) *Store {
	return &Store{
		pairs:     make(map[string]*pairState),
		positions: make(map[string]*Position),
		persister: persister,
		ratchet:   RatchetState{Level: RatchetNormal},
	}
}

func (s *Store) pair(pair string) *pairState {
	ps, ok := s.pairs[pair]
	if !ok {
		ps = &pairState{
			book:       book.New(),
			flow:       tradeflow.NewWindow(),
			series:     make(map[Timeframe]*candle.Series),
			aggs:       make(map[Timeframe]*candle.Aggregator),
			indicators: make(map[Timeframe]map[string]any),
		}
		ps.series[TF1m] = candle.NewSeries(200)
		for _, tf := range []Timeframe{TF5m, TF15m, TF1h, TF4h} {
			ps.series[tf] = candle.NewSeries(200)
		}
		ps.aggs[TF5m] = candle.NewAggregator(TF5m)
		ps.aggs[TF15m] = candle.NewAggregator(TF15m)
		ps.aggs[TF1h] = candle.NewAggregator(TF1h)
		ps.aggs[TF4h] = candle.NewAggregator(TF4h)
		s.pairs[pair] = ps
	}
	return ps
}

// UpdateTicker applies the latest quote for a pair.
func (s *Store) UpdateTicker(t Ticker) {
	ps := s.pair(t.Pair)
	if ps.hasTicker {
		t.PrevPrice = ps.ticker.Price
	}
	ps.ticker = t
	ps.hasTicker = true
}

// Ticker returns the latest quote for a pair.
func (s *Store) Ticker(pair string) (Ticker, bool) {
	ps, ok := s.pairs[pair]
	if !ok || !ps.hasTicker {
		return Ticker{}, false
	}
	return ps.ticker, true
}

// Book returns the order book for a pair, creating an empty one on
// first access.
func (s *Store) Book(pair string) *book.Book {
	return s.pair(pair).book
}

// TradeFlow returns the rolling trade-flow window for a pair.
func (s *Store) TradeFlow(pair string) *tradeflow.Window {
	return s.pair(pair).flow
}

// UpsertCandle appends/overwrites the 1m bar for a pair and folds the
// result into every derived timeframe, per spec.md §3/§4.3.
func (s *Store) UpsertCandle(pair string, bar candle.Candle) {
	ps := s.pair(pair)
	ps.series[TF1m].Upsert(bar)
	for _, tf := range []Timeframe{TF5m, TF15m, TF1h, TF4h} {
		if sealed, didSeal := ps.aggs[tf].Feed(bar); didSeal {
			ps.series[tf].Upsert(sealed)
		}
		ps.series[tf].Upsert(ps.aggs[tf].Current())
	}
}

// Series returns the candle series for (pair, timeframe), creating an
// empty one on first access.
func (s *Store) Series(pair string, tf Timeframe) *candle.Series {
	return s.pair(pair).series[tf]
}

// SeriesState reports the EMPTY/WARMING/READY state for (pair,
// timeframe) given the warm-up bar count required by the caller's
// longest indicator lookback.
func (s *Store) SeriesState(pair string, tf Timeframe, warmupBars int) SeriesState {
	n := s.Series(pair, tf).Len()
	switch {
	case n == 0:
		return SeriesEmpty
	case n < warmupBars:
		return SeriesWarming
	default:
		return SeriesReady
	}
}

// SetIndicators stores the computed indicator cache for (pair,
// timeframe); values are either raw []float64 series or named bundles
// (e.g. indicator.BollingerResult), per spec.md §3.
func (s *Store) SetIndicators(pair string, tf Timeframe, values map[string]any) {
	s.pair(pair).indicators[tf] = values
}

// Indicators returns the indicator cache for (pair, timeframe).
func (s *Store) Indicators(pair string, tf Timeframe) map[string]any {
	return s.pair(pair).indicators[tf]
}

// SetRegime records a new classification and appends it to the bounded
// history (spec.md §3).
func (s *Store) SetRegime(pair string, r Regime, ts time.Time) {
	ps := s.pair(pair)
	ps.currentRegime = r
	ps.regimeHist = append(ps.regimeHist, RegimeSample{Regime: r, Ts: ts})
	if len(ps.regimeHist) > regimeHistoryCap {
		ps.regimeHist = ps.regimeHist[len(ps.regimeHist)-regimeHistoryCap:]
	}
}

// Regime returns the current classification for a pair.
func (s *Store) Regime(pair string) Regime {
	ps, ok := s.pairs[pair]
	if !ok {
		return RegimeChoppy
	}
	return ps.currentRegime
}

// RegimeHistory returns the bounded regime history for a pair.
func (s *Store) RegimeHistory(pair string) []RegimeSample {
	ps, ok := s.pairs[pair]
	if !ok {
		return nil
	}
	return ps.regimeHist
}

// SessionProfile returns the per-pair hourly session-intelligence table.
func (s *Store) SessionProfile(pair string) SessionProfile {
	return s.pair(pair).sessionProfile
}

// SetSessionProfile replaces the per-pair hourly session-intelligence
// table (mutated only by SC, per spec.md §3 ownership rule).
func (s *Store) SetSessionProfile(pair string, p SessionProfile) {
	s.pair(pair).sessionProfile = p
}

// AddPosition registers a newly opened position. Per spec.md §8
// property 8, no two concurrent positions may exist on the same pair
// across strategies; callers (RPG) must check OpenPositionForPair
// first — AddPosition itself enforces it defensively.
func (s *Store) AddPosition(p *Position) bool {
	if _, exists := s.OpenPositionForPair(p.Pair); exists {
		return false
	}
	s.positions[p.ID] = p
	return true
}

// Position looks up an open position by id.
func (s *Store) Position(id string) (*Position, bool) {
	p, ok := s.positions[id]
	return p, ok
}

// OpenPositionForPair returns the (at most one) open position on a pair,
// across strategies.
func (s *Store) OpenPositionForPair(pair string) (*Position, bool) {
	for _, p := range s.positions {
		if p.Pair == pair {
			return p, true
		}
	}
	return nil, false
}

// OpenPositions returns every currently open position.
func (s *Store) OpenPositions() []*Position {
	out := make([]*Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	return out
}

// ClosePosition removes a position from the open set and appends its
// closed Trade record to the ring buffer.
func (s *Store) ClosePosition(id string, tr Trade) {
	delete(s.positions, id)
	s.trades = append(s.trades, tr)
	const maxTrades = 1000
	if len(s.trades) > maxTrades {
		s.trades = s.trades[len(s.trades)-maxTrades:]
	}
	if s.persister != nil {
		_ = s.persister.AppendTrade(tr.ID, tr.Pair, string(tr.Strategy), tr.ClosedTs, tr)
	}
}

// RecentTrades returns the last n closed trades, oldest first.
func (s *Store) RecentTrades(n int) []Trade {
	if n > len(s.trades) {
		n = len(s.trades)
	}
	return append([]Trade(nil), s.trades[len(s.trades)-n:]...)
}

// Scalp returns VIPER STRIKE's circuit-breaker state.
func (s *Store) Scalp() ScalpSession { return s.scalp }

// SetScalp replaces VIPER STRIKE's circuit-breaker state.
func (s *Store) SetScalp(sc ScalpSession) { s.scalp = sc }

// Ratchet returns VIPER's capital-preservation state.
func (s *Store) Ratchet() RatchetState { return s.ratchet }

// SetRatchet replaces VIPER's capital-preservation state. Callers are
// responsible for the monotonic-tightening invariant (spec.md §8
// property 3); Store enforces it defensively by refusing a loosening
// transition within the same session.
func (s *Store) SetRatchet(next RatchetState) {
	if s.ratchet.Level.Tighter(next.Level) || next.Level == s.ratchet.Level {
		s.ratchet = next
		return
	}
	next.Level = s.ratchet.Level
	s.ratchet = next
}

// AppendEngineLog records one bounded evaluation-outcome entry.
func (s *Store) AppendEngineLog(e EngineLogEntry) {
	s.engineLog = append(s.engineLog, e)
	if len(s.engineLog) > engineLogCap {
		s.engineLog = s.engineLog[len(s.engineLog)-engineLogCap:]
	}
}

// EngineLog returns the bounded engine log.
func (s *Store) EngineLog() []EngineLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EngineLogEntry(nil), s.engineLog...)
}

// AppendSignalHistory records one bounded signal-history entry.
func (s *Store) AppendSignalHistory(e SignalHistoryEntry) {
	s.signalHistory = append(s.signalHistory, e)
	if len(s.signalHistory) > signalHistoryCap {
		s.signalHistory = s.signalHistory[len(s.signalHistory)-signalHistoryCap:]
	}
}

// SignalHistory returns the bounded signal history.
func (s *Store) SignalHistory() []SignalHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SignalHistoryEntry(nil), s.signalHistory...)
}

// Snapshot is a read-only view handed to the HTTP API and backtester,
// taken under the read lock so it is safe to read from a different
// goroutine than the tick loop.
type Snapshot struct {
	Positions     []*Position
	RecentTrades  []Trade
	Ratchet       RatchetState
	Scalp         ScalpSession
	EngineLog     []EngineLogEntry
	SignalHistory []SignalHistoryEntry
}

// TakeSnapshot produces a Snapshot under the store's read lock.
func (s *Store) TakeSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Positions:     s.OpenPositions(),
		RecentTrades:  s.RecentTrades(len(s.trades)),
		Ratchet:       s.ratchet,
		Scalp:         s.scalp,
		EngineLog:     append([]EngineLogEntry(nil), s.engineLog...),
		SignalHistory: append([]SignalHistoryEntry(nil), s.signalHistory...),
	}
}

// Lock/Unlock expose the snapshot mutex so the engine can bracket a
// full tick's worth of mutation as one atomic unit from the HTTP API's
// point of view, per spec.md §5 ("all mutations are atomic from the
// engine's point of view").
func (s *Store) Lock()   { s.mu.Lock() }
func (s *Store) Unlock() { s.mu.Unlock() }
