// Package metrics is tradeforge's Prometheus surface: promauto-registered
// vectors against a custom Registry plus a handful of Update*/Record*
// setter functions, adapted from a multi-tenant trader_id-labeled shape
// to this engine's single-tenant, per-pair/strategy-labeled shape, since
// one engine instance runs at a time, not a fleet.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is tradeforge's custom prometheus registry.
var Registry = prometheus.NewRegistry()

var (
	// ============================================
	// Engine / portfolio metrics
	// ============================================

	EquityTotal = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "tradeforge",
		Subsystem: "engine",
		Name:      "equity_total",
		Help:      "Current paper ledger balance in quote currency",
	})

	OpenPositionsCount = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "tradeforge",
		Subsystem: "engine",
		Name:      "open_positions_count",
		Help:      "Number of currently open positions",
	})

	RatchetLevel = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tradeforge",
			Subsystem: "engine",
			Name:      "ratchet_level",
			Help:      "VIPER ratchet level, one gauge per level name set to 1 when active",
		},
		[]string{"level"},
	)

	HydraThreshold = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "tradeforge",
		Subsystem: "engine",
		Name:      "hydra_threshold",
		Help:      "Self-Calibrator's current HYDRA entry score threshold",
	})

	// ============================================
	// Decision pipeline metrics
	// ============================================

	SignalsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeforge",
			Subsystem: "signal",
			Name:      "total",
			Help:      "Total candidate signals evaluated",
		},
		[]string{"pair", "strategy", "accepted"},
	)

	SignalScore = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradeforge",
			Subsystem: "signal",
			Name:      "score",
			Help:      "Distribution of HYDRA/VIPER candidate scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"pair", "strategy"},
	)

	RiskVetoTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeforge",
			Subsystem: "risk",
			Name:      "veto_total",
			Help:      "Total candidates vetoed by the Risk & Portfolio Gate, by reason",
		},
		[]string{"reason"},
	)

	// ============================================
	// Trade outcome metrics
	// ============================================

	TradesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeforge",
			Subsystem: "trade",
			Name:      "total",
			Help:      "Total closed trades, by pair/strategy/result",
		},
		[]string{"pair", "strategy", "result"}, // result: "win", "loss"
	)

	TradePnL = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradeforge",
			Subsystem: "trade",
			Name:      "net_pnl",
			Help:      "Net P&L per closed trade in quote currency",
			Buckets:   []float64{-100, -50, -20, -10, -5, 0, 5, 10, 20, 50, 100},
		},
		[]string{"pair", "strategy"},
	)

	ScalpStreak = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "tradeforge",
		Subsystem: "viper",
		Name:      "strike_streak",
		Help:      "VIPER STRIKE's signed consecutive win(+)/loss(-) streak",
	})

	// ============================================
	// Ingress / tick-loop metrics
	// ============================================

	EventsIngested = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeforge",
			Subsystem: "ingress",
			Name:      "events_total",
			Help:      "Raw exchange events normalized by the Data Ingress Adapter",
		},
		[]string{"pair", "kind"},
	)

	TickDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradeforge",
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one sealed-bar decision pipeline pass",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"pair"},
	)

	DataGapsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeforge",
			Subsystem: "engine",
			Name:      "data_gap_total",
			Help:      "Sealed-bar passes skipped for missing/warming indicator data",
		},
		[]string{"pair"},
	)
)

// RecordSignal records one evaluated candidate and, if accepted, its score.
func RecordSignal(pair, strategy string, accepted bool, score float64) {
	acc := "false"
	if accepted {
		acc = "true"
	}
	SignalsTotal.WithLabelValues(pair, strategy, acc).Inc()
	if accepted {
		SignalScore.WithLabelValues(pair, strategy).Observe(score)
	}
}

// RecordRiskVeto increments the veto counter for the Risk & Portfolio
// Gate's rejection reason.
func RecordRiskVeto(reason string) {
	RiskVetoTotal.WithLabelValues(reason).Inc()
}

// RecordTrade records one closed trade's outcome and net P&L.
func RecordTrade(pair, strategy string, netPnL float64) {
	result := "loss"
	if netPnL > 0 {
		result = "win"
	}
	TradesTotal.WithLabelValues(pair, strategy, result).Inc()
	TradePnL.WithLabelValues(pair, strategy).Observe(netPnL)
}

// RecordIngressEvent increments the ingested-event counter for one pair
// and exchange.Event kind (passed as its String()/label form).
func RecordIngressEvent(pair, kind string) {
	EventsIngested.WithLabelValues(pair, kind).Inc()
}

// RecordTickDuration observes one sealed-bar pipeline pass's wall time.
func RecordTickDuration(pair string, seconds float64) {
	TickDuration.WithLabelValues(pair).Observe(seconds)
}

// RecordDataGap increments the data-gap counter for a pair whose sealed
// bar was skipped for missing/warming indicator data.
func RecordDataGap(pair string) {
	DataGapsTotal.WithLabelValues(pair).Inc()
}

// SetEquity sets the current paper ledger balance.
func SetEquity(v float64) { EquityTotal.Set(v) }

// SetOpenPositionsCount sets the current open-position count.
func SetOpenPositionsCount(n int) { OpenPositionsCount.Set(float64(n)) }

// allRatchetLevels mirrors store.RatchetLevel's five named values so
// SetRatchetLevel can zero out every level but the active one.
var allRatchetLevels = []string{"NORMAL", "PROTECTED", "PRESERVATION", "LOCKED", "RECOVERY"}

// SetRatchetLevel sets the gauge for the active ratchet level to 1 and
// every other named level to 0.
func SetRatchetLevel(active string) {
	for _, lvl := range allRatchetLevels {
		v := 0.0
		if lvl == active {
			v = 1.0
		}
		RatchetLevel.WithLabelValues(lvl).Set(v)
	}
}

// SetHydraThreshold sets the Self-Calibrator's current threshold gauge.
func SetHydraThreshold(v float64) { HydraThreshold.Set(v) }

// SetScalpStreak sets VIPER STRIKE's signed win/loss streak gauge.
func SetScalpStreak(streak int) { ScalpStreak.Set(float64(streak)) }

// Init registers the standard Go/process collectors alongside the
// domain metrics above.
func Init() {
	Registry.MustRegister(prometheus.NewGoCollector())
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}
