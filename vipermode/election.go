// Package vipermode is the VIPER meta-strategy: a 3-mode state machine
// (STRIKE/COIL/LUNGE) with periodic election, per-mode entry/exit/sizing,
// and the capital-preservation Ratchet System (spec.md §4.6). Grounded on
// decision/localfunc.go's detectAlgoType dispatch, generalized from a
// one-shot algo-type switch to a recurring scored election that locks out
// the non-elected modes until the next cycle.
package vipermode

import "tradeforge/store"

// ElectionInputs bundles the per-mode precondition readings the Edge
// Detector needs every edgeDetectorIntervalMin (spec.md §4.6).
type ElectionInputs struct {
	Strike StrikeConditions
	Coil   CoilRange
	CoilATR14 float64
	Lunge  LungeConditions
}

// ModeScores is the continuous 0-100 score per mode, per Open Question
// (b): each score is derived from its own entry-gate preconditions,
// elevated from a pass/fail gate to a continuous measure of how far the
// conditions clear their thresholds. A mode whose hard preconditions fail
// scores 0 regardless of how close any other condition is.
type ModeScores struct {
	Strike float64
	Coil   float64
	Lunge  float64
}

// Score computes the continuous election score for every mode.
func (in ElectionInputs) Score() ModeScores {
	return ModeScores{
		Strike: in.Strike.score(),
		Coil:   in.Coil.score(in.CoilATR14),
		Lunge:  in.Lunge.score(),
	}
}

// Elect picks the highest-scoring mode. A tie is broken in STRIKE > COIL >
// LUNGE order (the tightest-risk mode wins ties, matching spec.md's
// ordering of the mode list itself). All-zero scores elect ModeNone: no
// mode is permitted to enter until the next cycle finds an edge.
func Elect(scores ModeScores) store.ViperMode {
	best := store.ModeNone
	bestScore := 0.0
	if scores.Strike > bestScore {
		best, bestScore = store.ModeStrike, scores.Strike
	}
	if scores.Coil > bestScore {
		best, bestScore = store.ModeCoil, scores.Coil
	}
	if scores.Lunge > bestScore {
		best, bestScore = store.ModeLunge, scores.Lunge
	}
	return best
}

// clampScore keeps a continuous score within [0,100].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
