// Package indicator is the Indicator Bank: pure, deterministic functions
// over a candle series producing 1:1-aligned outputs, per spec.md §4.1.
// Warm-up entries are represented as math.NaN() ("absent"), never zero;
// IsAbsent/Finite below are the canonical way callers (and tests) probe
// that. Every function uses a single-pass accumulator so floating-point
// results never depend on reduction order, satisfying the "deterministic
// under identical inputs" contract.
//
// Grounded on hand-rolled RSI/MACD/volume/VWAP factor scoring and a
// single-pass Σ(TypicalPrice·Volume)/ΣVolume accumulator seen elsewhere
// in this module's history. No third-party TA library appears anywhere
// in the retrieval pack — every indicator here is computed directly over
// plain float64 klines, organized into a dedicated, independently
// testable bank.
package indicator

import "math"

// Absent is the warm-up sentinel. Never a normal output.
var Absent = math.NaN()

// IsAbsent reports whether v is the warm-up sentinel.
func IsAbsent(v float64) bool { return math.IsNaN(v) }

// Finite reports whether v is present and not Inf (used by property
// tests enforcing spec.md §8 invariant 5).
func Finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// absentSlice returns a slice of n Absent values, the zero-initializer
// every indicator starts from before filling in its computed suffix.
func absentSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Absent
	}
	return out
}
