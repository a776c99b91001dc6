package vipermode

import (
	"testing"
	"time"
)

func TestCheckStrikeEntryAllConditionsMet(t *testing.T) {
	c := StrikeConditions{
		VWAPDistancePct: 0.3,
		StochK:          60,
		StochD:          50,
		HMARising:       true,
		BuyFlowPct:      60,
		SpreadPct:       0.1,
	}
	ok, reason := CheckStrikeEntry(c)
	if !ok {
		t.Fatalf("expected entry accepted, got reason=%q", reason)
	}
}

func TestCheckStrikeEntryRejectsOnBuyFlow(t *testing.T) {
	c := StrikeConditions{
		VWAPDistancePct: 0.3,
		StochK:          60,
		StochD:          50,
		HMARising:       true,
		BuyFlowPct:      50,
		SpreadPct:       0.1,
	}
	ok, _ := CheckStrikeEntry(c)
	if ok {
		t.Fatal("expected rejection with buy-flow at 50%")
	}
}

func TestStrikeSizeIs2Point5Pct(t *testing.T) {
	if got := StrikeSize(10000); got != 250 {
		t.Fatalf("expected 250, got %v", got)
	}
}

func TestEvaluateStrikeExitStop(t *testing.T) {
	params := StrikeParams{TakeProfitPct: 0.5, StopLossPct: 0.3, MaxHoldSec: 240}
	kind, pct, _ := EvaluateStrikeExit(100, 99.6, 10*time.Second, params, 50, 50)
	if kind != "stop" || pct != 1.0 {
		t.Fatalf("expected full-close stop exit, got kind=%q pct=%v", kind, pct)
	}
}

func TestEvaluateStrikeExitReversal(t *testing.T) {
	params := StrikeParams{TakeProfitPct: 0.5, StopLossPct: 0.3, MaxHoldSec: 240}
	kind, pct, _ := EvaluateStrikeExit(100, 100.2, 10*time.Second, params, 72, 75)
	if kind != "reversal" || pct != 1.0 {
		t.Fatalf("expected full-close reversal exit, got kind=%q pct=%v", kind, pct)
	}
}

func TestStrikeCadenceCooldown(t *testing.T) {
	c := &StrikeCadence{}
	now := time.Now()
	c.RecordResult(true, now)
	if c.Allowed(now.Add(30 * time.Second)) {
		t.Fatal("expected cooldown to block a trade 30s after the last one")
	}
	if !c.Allowed(now.Add(91 * time.Second)) {
		t.Fatal("expected cooldown to clear after 90s")
	}
}

func TestStrikeCadenceLossForcesSkip(t *testing.T) {
	c := &StrikeCadence{}
	now := time.Now()
	c.RecordResult(false, now)
	if c.Allowed(now.Add(time.Hour)) {
		t.Fatal("expected a forced skip after a loss regardless of elapsed time")
	}
	c.ConsumeSkip()
	if !c.Allowed(now.Add(91 * time.Second)) {
		t.Fatal("expected the skip to clear after ConsumeSkip")
	}
}

func TestStrikeCadenceThreeWinsExtendsCooldown(t *testing.T) {
	c := &StrikeCadence{}
	now := time.Now()
	c.RecordResult(true, now)
	c.RecordResult(true, now)
	c.RecordResult(true, now)
	if c.Allowed(now.Add(91 * time.Second)) {
		t.Fatal("expected 180s cooldown after 3 consecutive wins")
	}
	if !c.Allowed(now.Add(181 * time.Second)) {
		t.Fatal("expected cooldown to clear after 180s")
	}
}
