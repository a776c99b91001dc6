package vipermode

import "time"

// PerformanceRecord is one trading day's entry in VIPER's Performance
// Ledger (spec.md §4.6).
type PerformanceRecord struct {
	Date          time.Time
	PnLPct        float64
	DominantMode  string
	MetBenchmark  bool
}

// ReplacementThreat is the Edge Detector's aggregated performance
// verdict over the last 5 trading days, feeding the HYDRA/VIPER
// allocation splitter.
type ReplacementThreat string

const (
	ThreatDominant ReplacementThreat = "DOMINANT"
	ThreatActive   ReplacementThreat = "ACTIVE"
	ThreatWarning  ReplacementThreat = "WARNING"
	ThreatCritical ReplacementThreat = "CRITICAL"
)

// DeriveReplacementThreat computes the verdict from up to the last 5
// ledger records, counting how many met their daily benchmark: 5/5
// DOMINANT, >=3/5 ACTIVE, >=1/5 WARNING, 0/5 CRITICAL. Fewer than 5
// records still yields a verdict over whatever history exists — the
// Edge Detector runs from day one, not only once 5 days have elapsed.
func DeriveReplacementThreat(history []PerformanceRecord) ReplacementThreat {
	n := len(history)
	if n > 5 {
		history = history[n-5:]
		n = 5
	}
	if n == 0 {
		return ThreatWarning
	}
	met := 0
	for _, r := range history {
		if r.MetBenchmark {
			met++
		}
	}
	switch {
	case met == n:
		return ThreatDominant
	case met*2 >= n:
		return ThreatActive
	case met > 0:
		return ThreatWarning
	default:
		return ThreatCritical
	}
}

// criticalViperAllocationPct is the forced VIPER allocation share when
// the replacement threat is CRITICAL (spec.md §4.6).
const criticalViperAllocationPct = 0.13

// SplitAllocation applies the replacement threat to the configured
// HYDRA/VIPER capital split, returning VIPER's share of totalCapital.
// CRITICAL overrides the configured split entirely; WARNING halves
// VIPER's configured share; ACTIVE leaves it unchanged; DOMINANT grants
// a modest 10% boost capped at the full portfolio.
func SplitAllocation(totalCapital, configuredViperPct float64, threat ReplacementThreat) (viperCapital, hydraCapital float64) {
	viperPct := configuredViperPct
	switch threat {
	case ThreatCritical:
		viperPct = criticalViperAllocationPct
	case ThreatWarning:
		viperPct = configuredViperPct * 0.5
	case ThreatDominant:
		viperPct = configuredViperPct * 1.1
		if viperPct > 1.0 {
			viperPct = 1.0
		}
	}
	viperCapital = totalCapital * viperPct
	hydraCapital = totalCapital - viperCapital
	return viperCapital, hydraCapital
}
