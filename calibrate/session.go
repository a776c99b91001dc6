package calibrate

import (
	"math"

	"tradeforge/store"
)

// minSessionSamples is spec.md §4.9's "on any bucket reaching >=5
// samples".
const minSessionSamples = 5

// SessionLearner accumulates per-UTC-hour win/loss counts for one pair,
// ahead of blending into the persisted session-profile overlay.
type SessionLearner struct {
	wins   [24]int
	totals [24]int
}

// NewSessionLearner creates an empty per-pair hourly accumulator.
func NewSessionLearner() *SessionLearner {
	return &SessionLearner{}
}

// Record folds one realized trade's outcome into its UTC entry hour's
// bucket.
func (l *SessionLearner) Record(utcEntryHour int, won bool) {
	l.totals[utcEntryHour]++
	if won {
		l.wins[utcEntryHour]++
	}
}

// SampleCount returns how many trades have landed in an hour's bucket.
func (l *SessionLearner) SampleCount(hour int) int { return l.totals[hour] }

// WinRate returns the bucket's win rate, or 0 if it has no samples.
func (l *SessionLearner) WinRate(hour int) float64 {
	if l.totals[hour] == 0 {
		return 0
	}
	return float64(l.wins[hour]) / float64(l.totals[hour])
}

// BlendHourScore computes spec.md §4.9's blend for one hour bucket:
// live = min(12, round(winRate*15)); new_hour_score = round(0.4*baseline
// + 0.6*live).
func BlendHourScore(baselineScore int, winRate float64) int {
	live := int(math.Round(winRate * 15))
	if live > 12 {
		live = 12
	}
	blended := 0.4*float64(baselineScore) + 0.6*float64(live)
	return int(math.Round(blended))
}

// LearnSessionProfile blends every hour bucket that has reached the
// 5-sample threshold into a copy of the overlay profile, leaving the
// baseline untouched (spec.md §4.9: "Persist overlay; baseline is
// untouched").
func LearnSessionProfile(l *SessionLearner, baseline, overlay store.SessionProfile) store.SessionProfile {
	next := overlay
	for hour := 0; hour < 24; hour++ {
		if l.SampleCount(hour) >= minSessionSamples {
			next.Hourly[hour] = BlendHourScore(baseline.Hourly[hour], l.WinRate(hour))
		}
	}
	return next
}
