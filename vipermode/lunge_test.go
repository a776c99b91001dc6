package vipermode

import "testing"

func baseLungeConditions() LungeConditions {
	return LungeConditions{
		EMA9: 105, EMA21: 103, EMA50: 100,
		Close:         110,
		PriorHigh:     108,
		Volume:        250,
		VolumeSMA20:   100,
		MACDHist:      []float64{0.1, 0.2},
		RSI:           60,
		VWAP:          105,
		ADX:           30,
		ADXRising:     true,
		LungeEligible: true,
	}
}

func TestCheckLungeEntryAllConditionsMet(t *testing.T) {
	ok, reason := CheckLungeEntry(baseLungeConditions())
	if !ok {
		t.Fatalf("expected entry accepted, got reason=%q", reason)
	}
}

func TestCheckLungeEntryRejectsWhenNotEligible(t *testing.T) {
	c := baseLungeConditions()
	c.LungeEligible = false
	ok, _ := CheckLungeEntry(c)
	if ok {
		t.Fatal("expected rejection when pair is not lunge-eligible")
	}
}

func TestCheckLungeEntryRejectsOnRSIOutOfBand(t *testing.T) {
	c := baseLungeConditions()
	c.RSI = 80
	ok, _ := CheckLungeEntry(c)
	if ok {
		t.Fatal("expected rejection with RSI above 72")
	}
}

func TestLungeSizeCapsAtMaxPositionPct(t *testing.T) {
	got := LungeSize(10000, 110, 109.9)
	if got != 1000 {
		t.Fatalf("expected size capped at 10%% of allocated (1000), got %v", got)
	}
}

func TestLungeSizeRiskBased(t *testing.T) {
	got := LungeSize(10000, 110, 90)
	riskUSD := 10000 * LungeRiskPct
	want := riskUSD / (110 - 90) * 110
	if got != want {
		t.Fatalf("expected risk-based size %v, got %v", want, got)
	}
}

func TestEvaluateLungeExitEmergencyOnEMACrossDown(t *testing.T) {
	p := LungeExitParams{EntryPrice: 100, ATR14: 1}
	kind, pct, _ := EvaluateLungeExit(p, 100.5, 100.5, false, false, 99, 100)
	if kind != "emergency" || pct != 1.0 {
		t.Fatalf("expected emergency exit, got kind=%q pct=%v", kind, pct)
	}
}

func TestEvaluateLungeExitTrailAfterTP1(t *testing.T) {
	p := LungeExitParams{EntryPrice: 100, ATR14: 1}
	kind, pct, _ := EvaluateLungeExit(p, 100.9, 103, true, false, 105, 100)
	if kind != "trail" || pct != 1.0 {
		t.Fatalf("expected trailing stop to fire, got kind=%q pct=%v", kind, pct)
	}
}
