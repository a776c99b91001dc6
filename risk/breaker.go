package risk

import "time"

// ScalpCircuitBreaker is check 11 of spec.md §4.7: 3 consecutive scalp
// losses pauses all scalps for 15 min, 5 consecutive pauses for 60 min,
// and a net session P&L <= -1% of allocated capital disables scalps for
// the rest of the session. Only a new session resets it.
type ScalpCircuitBreaker struct {
	ConsecutiveLosses int
	PausedUntil       time.Time
	Disabled          bool
	SessionPnLPct     float64
}

// RecordResult updates the breaker after one scalp trade closes.
func (b *ScalpCircuitBreaker) RecordResult(won bool, pnlPct float64, closedAt time.Time, allocatedPct float64) {
	b.SessionPnLPct += pnlPct
	if won {
		b.ConsecutiveLosses = 0
	} else {
		b.ConsecutiveLosses++
	}

	switch {
	case b.ConsecutiveLosses >= 5:
		b.PausedUntil = closedAt.Add(60 * time.Minute)
	case b.ConsecutiveLosses >= 3:
		b.PausedUntil = closedAt.Add(15 * time.Minute)
	}

	if b.SessionPnLPct <= -1.0 {
		b.Disabled = true
	}
}

// Blocked reports whether a new scalp entry is currently vetoed, and
// why.
func (b ScalpCircuitBreaker) Blocked(now time.Time) (bool, string) {
	if b.Disabled {
		return true, "scalp circuit breaker: disabled for session"
	}
	if now.Before(b.PausedUntil) {
		return true, "scalp circuit breaker: paused"
	}
	return false, ""
}

// Reset clears the breaker at the start of a new session.
func Reset() ScalpCircuitBreaker {
	return ScalpCircuitBreaker{}
}
