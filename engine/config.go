// Package engine is the single-threaded cooperative event loop named in
// spec.md §5: it owns the normalized ingress event channel, a bounded
// indicator-worker pool, and drives Regime Classifier -> HYDRA/VIPER ->
// Risk & Portfolio Gate -> Position Lifecycle Manager -> Self-Calibrator
// in the order spec.md §5/§9 specify, once per sealed bar per pair.
// Grounded on trader/auto_trader.go's Run/runCycle ticker-driven scan
// loop (isRunning flag, stopCh, monitorWg) generalized from a fixed-
// interval poll to an event-driven tick keyed off sealed 1m bars, and on
// go-coffee/crypto-terminal's strategy_engine.go background-loop-per-
// concern pattern for the worker pool shape.
package engine

import (
	"time"

	"tradeforge/risk"
	"tradeforge/store"
	"tradeforge/vipermode"
)

// Config bundles every tunable the tick loop needs; it is the in-memory
// materialization of the `config` package's typed settings (spec.md §6).
type Config struct {
	Pairs []string

	HydraThreshold float64 // [65,95], adapted in place by calibrate.AdaptThreshold
	RiskPerTrade   float64
	MaxPositionPct float64

	PortfolioValue      float64
	ConfiguredViperPct  float64 // HYDRA/VIPER capital split before replacement-threat adjustment
	CorrelationMinUnit  float64

	Limits      risk.Limits
	Correlation risk.CorrelationTable

	ElectionInterval time.Duration
	WorkerPoolSize   int

	SessionWeight float64 // D5's per-session weight multiplier, spec.md §4.5

	// EstSlippagePct/EstFeePct are the Risk & Portfolio Gate's pre-trade
	// estimates of slippage and taker fees, used to build a
	// risk.Candidate before an order is ever placed; the exchange/paper
	// client's actual fill may differ slightly.
	EstSlippagePct float64
	EstFeePct      float64

	// LungeEligible gates VIPER LUNGE per pair (spec.md §4.6); pairs
	// absent from the map default to eligible.
	LungeEligible map[string]bool
}

// lungeEligible reports whether a pair may evaluate a LUNGE entry.
func (c Config) lungeEligible(pair string) bool {
	if c.LungeEligible == nil {
		return true
	}
	v, ok := c.LungeEligible[pair]
	return !ok || v
}

// DefaultConfig returns sane defaults matching spec.md §6's stated
// ranges, overridden by the `config` package's loaded settings at
// startup.
func DefaultConfig() Config {
	return Config{
		HydraThreshold:     80,
		RiskPerTrade:       0.01,
		MaxPositionPct:     0.08,
		PortfolioValue:     10000,
		ConfiguredViperPct: 0.35,
		CorrelationMinUnit: 50,
		Limits: risk.Limits{
			MaxConcurrentPositions: 6,
			MaxDailyLossPct:        3,
			MaxTradesPerDay:        40,
			HydraDailyLossPctCap:   2,
			PerPairCooldown:        5 * time.Minute,
			ScalpSpreadPct:         0.0015,
			SwingSpreadPct:         0.004,
			MaxSlippagePct:         0.0015,
			ScalpFeeGrossPct:       0.5,
			SignalExpirySec:        20,
		},
		Correlation:      risk.DefaultCorrelationTable(),
		ElectionInterval: 5 * time.Minute,
		WorkerPoolSize:   4,
		SessionWeight:    1.0,
		EstSlippagePct:   0.0005,
		EstFeePct:        0.001,
	}
}

// pairRuntime is the engine's per-pair bookkeeping that does not belong
// in the MSS (it is the engine's own scheduling/cadence state, not
// market or position state).
type pairRuntime struct {
	strikeCadence  vipermode.StrikeCadence
	lastElectionAt time.Time
	electedMode    store.ViperMode
	electionScores vipermode.ModeScores // last computed scores, for diagnostics/API
}
