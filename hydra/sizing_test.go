package hydra

import "testing"

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

// TestSizeMatchesS2Scenario reproduces spec.md §8 scenario S2 exactly:
// P=100, ATR14=1.0, V=10000, riskPerTrade=0.01, score=88.
func TestSizeMatchesS2Scenario(t *testing.T) {
	sz := Size(10000, 100, 1.0, 88, 0.01, 0.08)
	if !almostEqual(sz.PositionUSD, 800, 0.01) {
		t.Fatalf("expected positionUSD=800, got %v", sz.PositionUSD)
	}
	if !almostEqual(sz.Quantity, 8.0, 0.001) {
		t.Fatalf("expected quantity=8.0, got %v", sz.Quantity)
	}
	if !almostEqual(sz.StopLoss, 98.5, 0.001) {
		t.Fatalf("expected stopLoss=98.5, got %v", sz.StopLoss)
	}
	if !almostEqual(sz.TP1, 101.2, 0.001) {
		t.Fatalf("expected tp1=101.2, got %v", sz.TP1)
	}
	if !almostEqual(sz.TP2, 102.5, 0.001) {
		t.Fatalf("expected tp2=102.5, got %v", sz.TP2)
	}
	if !almostEqual(sz.TrailDistance, 0.8, 0.001) {
		t.Fatalf("expected trailDistance=0.8, got %v", sz.TrailDistance)
	}
}

func TestScoreMultiplierBands(t *testing.T) {
	cases := map[float64]float64{96: 1.5, 95: 1.5, 92: 1.25, 90: 1.25, 88: 1.0, 85: 1.0, 80: 0.75}
	for score, want := range cases {
		if got := ScoreMultiplier(score); got != want {
			t.Fatalf("score %v: expected multiplier %v, got %v", score, want, got)
		}
	}
}

// TestExitMonitorMatchesS2Scenario reproduces S2's full trade path and
// its final net P&L of 14.72.
func TestExitMonitorMatchesS2Scenario(t *testing.T) {
	sz := Size(10000, 100, 1.0, 88, 0.01, 0.08)
	pos := NewPosition("BTC-USD", 100, sz)

	var closedQty, pnl float64
	applyClose := func(pct, price float64) {
		qty := sz.Quantity * pct
		if qty > pos.Quantity {
			qty = pos.Quantity
		}
		pos.Quantity -= qty
		closedQty += qty
		pnl += qty * (price - pos.EntryPrice)
	}

	path := []float64{101.3, 101.7, 102.6, 101.7}
	for _, price := range path {
		bar := Bar{High: price, Low: price, Close: price}
		action := EvaluateExit(&pos, bar, 60)
		switch action.Kind {
		case ExitTP1:
			pos.TP1Hit = true
			UpdateHighSinceTP1(&pos, bar.High)
			applyClose(action.ClosePct, action.Price)
		case ExitTP2:
			pos.TP2Hit = true
			applyClose(action.ClosePct, action.Price)
		case ExitTrail:
			applyClose(action.ClosePct, action.Price)
		}
		UpdateHighSinceTP1(&pos, bar.High)
	}

	if !almostEqual(closedQty, 8.0, 0.01) {
		t.Fatalf("expected all 8.0 units closed, got %v", closedQty)
	}
	if !almostEqual(pnl, 14.72, 0.01) {
		t.Fatalf("expected net P&L ~14.72, got %v", pnl)
	}
}

func TestEvaluateRejectsOnSpreadBlock(t *testing.T) {
	dims := Dimensions{D1: 20, D2: 20, D3: 20, D4: 20, D5: 12}
	ev := Evaluate(dims, EntryParams{Threshold: 80, SpreadBlocked: true})
	if ev.Accepted {
		t.Fatal("expected rejection on spread block even with a high score")
	}
	if ev.Score != 92 {
		t.Fatalf("expected total score 92, got %v", ev.Score)
	}
}

func TestEvaluateAcceptsAboveThreshold(t *testing.T) {
	dims := Dimensions{D1: 18, D2: 18, D3: 18, D4: 18, D5: 13}
	ev := Evaluate(dims, EntryParams{Threshold: 80, Price: 100, ATR14: 1, PortfolioValue: 10000, RiskPerTrade: 0.01, MaxPositionPct: 0.08})
	if !ev.Accepted {
		t.Fatalf("expected acceptance, got reason=%q score=%v", ev.Reason, ev.Score)
	}
	if ev.Confidence != ConfidenceMedium {
		t.Fatalf("expected medium confidence at score 85, got %v", ev.Confidence)
	}
}
