package calibrate

import (
	"testing"

	"tradeforge/store"
)

func TestBlendHourScoreCapsLiveAt12(t *testing.T) {
	got := BlendHourScore(6, 1.0) // winRate*15=15, capped to 12
	want := int(0.4*6 + 0.6*12 + 0.5) // round
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLearnSessionProfileBlendsOnlyReadyBuckets(t *testing.T) {
	l := NewSessionLearner()
	for i := 0; i < 5; i++ {
		l.Record(14, true) // hour 14: 5 samples, 100% win rate
	}
	l.Record(9, true) // hour 9: only 1 sample, below threshold

	baseline := store.SessionProfile{}
	baseline.Hourly[14] = 6
	baseline.Hourly[9] = 6
	overlay := store.SessionProfile{}
	overlay.Hourly[9] = 6

	next := LearnSessionProfile(l, baseline, overlay)
	if next.Hourly[14] == 0 {
		t.Fatal("expected hour 14 to have been blended")
	}
	if next.Hourly[9] != 6 {
		t.Fatalf("expected hour 9 left untouched below the 5-sample threshold, got %v", next.Hourly[9])
	}
}

func TestLearnSessionProfileLeavesBaselineUntouched(t *testing.T) {
	l := NewSessionLearner()
	for i := 0; i < 5; i++ {
		l.Record(3, false) // 0% win rate
	}
	baseline := store.SessionProfile{}
	baseline.Hourly[3] = 10
	overlay := store.SessionProfile{}

	_ = LearnSessionProfile(l, baseline, overlay)
	if baseline.Hourly[3] != 10 {
		t.Fatal("expected baseline to remain unmodified")
	}
}
