package vipermode

import (
	"testing"

	"tradeforge/candle"
)

func buildRangeBars() []candle.Candle {
	bars := make([]candle.Candle, 40)
	for i := 0; i < 40; i++ {
		switch i % 10 {
		case 0:
			bars[i] = candle.Candle{Open: 101, High: 102, Low: 100.05, Close: 101}
		case 5:
			bars[i] = candle.Candle{Open: 102, High: 103.98, Low: 102, Close: 103}
		default:
			bars[i] = candle.Candle{Open: 102, High: 102.5, Low: 101.5, Close: 102}
		}
	}
	return bars
}

func TestDetectCoilRangeValid(t *testing.T) {
	r := DetectCoilRange(buildRangeBars(), 1.5)
	if !r.Valid {
		t.Fatalf("expected a valid range, got %+v", r)
	}
	if r.SupportTouches < 2 || r.ResistanceTouches < 2 {
		t.Fatalf("expected >=2 touches each edge, got support=%d resistance=%d", r.SupportTouches, r.ResistanceTouches)
	}
}

func TestDetectCoilRangeInvalidOnBreakout(t *testing.T) {
	bars := buildRangeBars()
	bars[39].Close = 110 // breakout close in the last 5 bars
	bars[39].High = 110
	r := DetectCoilRange(bars, 1.5)
	if r.Valid {
		t.Fatal("expected range invalidated by a breakout close")
	}
}

func TestCheckCoilEntryNearSupport(t *testing.T) {
	r := DetectCoilRange(buildRangeBars(), 1.5)
	c := CoilConditions{Price: r.Support + 0.5, RSI: 40, RSIRising: true, BullishCandle: true, VolumeRatio: 1.5, ADX: 20}
	ok, reason := CheckCoilEntry(r, c)
	if !ok {
		t.Fatalf("expected entry accepted, got reason=%q", reason)
	}
}

func TestCheckCoilEntryRejectsTooFarAboveSupport(t *testing.T) {
	r := DetectCoilRange(buildRangeBars(), 1.5)
	c := CoilConditions{Price: r.Support * 1.03, RSI: 40, RSIRising: true, BullishCandle: true, VolumeRatio: 1.5, ADX: 20}
	ok, _ := CheckCoilEntry(r, c)
	if ok {
		t.Fatal("expected rejection when price is more than 1.5% above support")
	}
}

func TestEvaluateCoilExitTP1ClosesPartial(t *testing.T) {
	p := CoilExitParams{Support: 100, Width: 4, ATR14: 1.5}
	kind, pct, price := EvaluateCoilExit(p, 100.2, 102.1, false)
	if kind != "tp1" || pct != 0.4 {
		t.Fatalf("expected tp1 closing 40%%, got kind=%q pct=%v price=%v", kind, pct, price)
	}
}

func TestEvaluateCoilExitInvalidation(t *testing.T) {
	p := CoilExitParams{Support: 100, Width: 4, ATR14: 1.5}
	kind, pct, _ := EvaluateCoilExit(p, 100.2, 99.5, true)
	if kind != "invalidation" || pct != 1.0 {
		t.Fatalf("expected full-close invalidation, got kind=%q pct=%v", kind, pct)
	}
}
