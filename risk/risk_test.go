package risk

import (
	"testing"
	"time"

	"tradeforge/store"
)

func baseLimits() Limits {
	return Limits{
		MaxConcurrentPositions: 3,
		MaxDailyLossUSD:        500,
		MaxDailyLossPct:        5,
		MaxTradesPerDay:        20,
		HydraDailyLossPctCap:   3,
		PerPairCooldown:        5 * time.Minute,
		ScalpSpreadPct:         0.08,
		SwingSpreadPct:         0.25,
		MaxSlippagePct:         0.15,
		ScalpFeeGrossPct:       0.5,
		SignalExpirySec:        30,
	}
}

func basePortfolio(now time.Time) Portfolio {
	return Portfolio{
		LastCloseByPair: map[string]time.Time{},
		Correlations:    DefaultCorrelationTable(),
		MinUnitUSD:      10,
		Now:             now,
	}
}

func baseCandidate(now time.Time) Candidate {
	return Candidate{
		Pair:           "BTC-USD",
		Strategy:       store.StrategyHydra,
		SizeUSD:        500,
		SpreadPct:      0.05,
		EstSlippagePct: 0.05,
		EstFeesUSD:     1,
		EstGrossUSD:    50,
		SignalTs:       now,
		Regime:         store.RegimeBullish,
	}
}

func TestEvaluateAllowsCleanCandidate(t *testing.T) {
	now := time.Now()
	d := Evaluate(baseCandidate(now), baseLimits(), basePortfolio(now))
	if !d.Allowed {
		t.Fatalf("expected allowed, got reason=%q", d.Reason)
	}
	if d.AdjustedSizeUSD != 500 {
		t.Fatalf("expected unadjusted size 500, got %v", d.AdjustedSizeUSD)
	}
}

func TestEvaluateDeniesOnBearishRegime(t *testing.T) {
	now := time.Now()
	c := baseCandidate(now)
	c.Regime = store.RegimeBearish
	d := Evaluate(c, baseLimits(), basePortfolio(now))
	if d.Allowed || d.Reason != "regime override: bearish" {
		t.Fatalf("expected bearish regime override, got %+v", d)
	}
}

func TestEvaluateDeniesOnMaxConcurrentPositions(t *testing.T) {
	now := time.Now()
	pf := basePortfolio(now)
	pf.OpenPositions = []*store.Position{{Pair: "ETH-USD"}, {Pair: "SOL-USD"}, {Pair: "LTC-USD"}}
	d := Evaluate(baseCandidate(now), baseLimits(), pf)
	if d.Allowed || d.Reason != "max concurrent positions reached" {
		t.Fatalf("expected max concurrent positions veto, got %+v", d)
	}
}

func TestEvaluateDeniesOnPairExclusivity(t *testing.T) {
	now := time.Now()
	pf := basePortfolio(now)
	pf.OpenPositions = []*store.Position{{Pair: "BTC-USD"}}
	d := Evaluate(baseCandidate(now), baseLimits(), pf)
	if d.Allowed || d.Reason != "pair already has an open position" {
		t.Fatalf("expected pair-exclusivity veto, got %+v", d)
	}
}

func TestEvaluateDeniesOnCooldown(t *testing.T) {
	now := time.Now()
	pf := basePortfolio(now)
	pf.LastCloseByPair["BTC-USD"] = now.Add(-1 * time.Minute)
	d := Evaluate(baseCandidate(now), baseLimits(), pf)
	if d.Allowed || d.Reason != "cooldown" {
		t.Fatalf("expected cooldown veto, got %+v", d)
	}
}

func TestEvaluateDeniesOnWideSpreadForScalp(t *testing.T) {
	now := time.Now()
	c := baseCandidate(now)
	c.IsScalp = true
	c.SpreadPct = 0.1
	d := Evaluate(c, baseLimits(), basePortfolio(now))
	if d.Allowed || d.Reason != "spread" {
		t.Fatalf("expected spread veto, got %+v", d)
	}
}

func TestEvaluateHalvesSizeOnCorrelation(t *testing.T) {
	now := time.Now()
	pf := basePortfolio(now)
	pf.OpenPositions = []*store.Position{{Pair: "ETH-USD"}}
	c := baseCandidate(now)
	c.Pair = "BTC-USD" // correlation(BTC,ETH)=0.90 >= 0.85
	d := Evaluate(c, baseLimits(), pf)
	if !d.Allowed {
		t.Fatalf("expected allowed with halved size, got reason=%q", d.Reason)
	}
	if d.AdjustedSizeUSD != 250 {
		t.Fatalf("expected size halved to 250, got %v", d.AdjustedSizeUSD)
	}
}

func TestEvaluateDeniesCorrelationAtMinimumUnit(t *testing.T) {
	now := time.Now()
	pf := basePortfolio(now)
	pf.OpenPositions = []*store.Position{{Pair: "ETH-USD"}}
	pf.MinUnitUSD = 300
	c := baseCandidate(now)
	c.Pair = "BTC-USD"
	d := Evaluate(c, baseLimits(), pf)
	if d.Allowed || d.Reason != "correlation guard: already at minimum unit" {
		t.Fatalf("expected correlation-guard denial at minimum unit, got %+v", d)
	}
}

func TestEvaluateDeniesOnStaleSignal(t *testing.T) {
	now := time.Now()
	c := baseCandidate(now)
	c.SignalTs = now.Add(-time.Minute)
	d := Evaluate(c, baseLimits(), basePortfolio(now))
	if d.Allowed || d.Reason != "signal expired" {
		t.Fatalf("expected signal expiry veto, got %+v", d)
	}
}

func TestEvaluateDeniesOnScalpCircuitBreaker(t *testing.T) {
	now := time.Now()
	pf := basePortfolio(now)
	var b ScalpCircuitBreaker
	b.RecordResult(false, -0.2, now, 0)
	b.RecordResult(false, -0.2, now, 0)
	b.RecordResult(false, -0.2, now, 0)
	pf.Breaker = b
	c := baseCandidate(now)
	c.IsScalp = true
	c.SpreadPct = 0.03
	d := Evaluate(c, baseLimits(), pf)
	if d.Allowed {
		t.Fatal("expected scalp circuit breaker veto after 3 consecutive losses")
	}
}

func TestScalpCircuitBreakerDisablesOnSessionDrawdown(t *testing.T) {
	var b ScalpCircuitBreaker
	b.RecordResult(false, -1.5, time.Now(), 0)
	if !b.Disabled {
		t.Fatal("expected the breaker to disable scalps on a -1.5% session drawdown")
	}
}
