package vipermode

import (
	"time"

	"tradeforge/store"
)

// ratchetThresholds are the % of allocated capital where the level
// tightens (spec.md §4.6).
const (
	protectedThresholdPct   = 0.5
	preservationThresholdPct = 1.0
	lockedThresholdPct      = 2.0
)

// EvaluateRatchet recomputes VIPER's ratchet level from the running
// daily P&L, evaluated on every realized trade using
// max(currentPnLPct, dailyHighPnLPct). The high watermark keeps the
// proposed level from dropping, except that a negative realized P&L
// always proposes RECOVERY, which is looser than PROTECTED and above;
// store.Store.SetRatchet refuses any loosening within a session.
func EvaluateRatchet(current store.RatchetState, realizedPnL, realizedPnLPct float64, now time.Time) store.RatchetState {
	next := current
	next.DailyPnL = realizedPnL
	next.DailyPnLPct = realizedPnLPct
	if realizedPnLPct > next.DailyHighPnLPct {
		next.DailyHighPnL = realizedPnL
		next.DailyHighPnLPct = realizedPnLPct
	}

	watermark := next.DailyHighPnLPct
	if realizedPnLPct > watermark {
		watermark = realizedPnLPct
	}

	switch {
	case realizedPnLPct < 0:
		next.Level = store.RatchetRecovery
	case watermark >= lockedThresholdPct:
		next.Level = store.RatchetLocked
	case watermark >= preservationThresholdPct:
		next.Level = store.RatchetPreservation
	case watermark >= protectedThresholdPct:
		next.Level = store.RatchetProtected
	default:
		next.Level = store.RatchetNormal
	}
	return next
}

// ResetRatchet starts a fresh session at the configured overnight cutoff
// hour UTC (spec.md §4.6).
func ResetRatchet(now time.Time) store.RatchetState {
	return store.RatchetState{Level: store.RatchetNormal, SessionStartedAt: now}
}

// SizingMultiplier is the per-ratchet-level sizing multiplier applied on
// top of each mode's own sizing formula.
func SizingMultiplier(level store.RatchetLevel) float64 {
	switch level {
	case store.RatchetProtected:
		return 0.8
	case store.RatchetPreservation:
		return 0.6
	case store.RatchetLocked:
		return 0
	case store.RatchetRecovery:
		return 0.75
	default:
		return 1.0
	}
}

// AllowedModes lists which VIPER modes may produce new entries at a
// given ratchet level (spec.md §4.6).
func AllowedModes(level store.RatchetLevel) []store.ViperMode {
	switch level {
	case store.RatchetProtected:
		return []store.ViperMode{store.ModeStrike, store.ModeCoil}
	case store.RatchetPreservation:
		return []store.ViperMode{store.ModeStrike}
	case store.RatchetLocked:
		return nil
	case store.RatchetRecovery:
		return []store.ViperMode{store.ModeStrike, store.ModeCoil}
	default:
		return []store.ViperMode{store.ModeStrike, store.ModeCoil, store.ModeLunge}
	}
}

// ModeAllowed reports whether mode may enter at the current ratchet
// level.
func ModeAllowed(level store.RatchetLevel, mode store.ViperMode) bool {
	for _, m := range AllowedModes(level) {
		if m == mode {
			return true
		}
	}
	return false
}
