package calibrate

import (
	"testing"
	"time"
)

func lossHeavyTrades(n int) []float64 {
	out := make([]float64, n)
	wins := n * 30 / 100 // 30% win rate
	for i := 0; i < n; i++ {
		if i < wins {
			out[i] = 5
		} else {
			out[i] = -5
		}
	}
	return out
}

func winHeavyTrades(n int) []float64 {
	out := make([]float64, n)
	wins := n * 80 / 100 // 80% win rate
	for i := 0; i < n; i++ {
		if i < wins {
			out[i] = 5
		} else {
			out[i] = -5
		}
	}
	return out
}

func TestAdaptThresholdRaisesOnLowWinRate(t *testing.T) {
	trades := lossHeavyTrades(10)
	next, ev := AdaptThreshold(trades, 80, 80, time.Now())
	if ev == nil {
		t.Fatal("expected a calibration event")
	}
	if next != 83 {
		t.Fatalf("expected threshold raised to 83, got %v", next)
	}
}

func TestAdaptThresholdCapsAt95(t *testing.T) {
	trades := lossHeavyTrades(10)
	next, ev := AdaptThreshold(trades, 94, 80, time.Now())
	if ev == nil {
		t.Fatal("expected a calibration event")
	}
	if next != 95 {
		t.Fatalf("expected threshold capped at 95, got %v", next)
	}
}

func TestAdaptThresholdLowersOnHighWinRate20Trades(t *testing.T) {
	trades := winHeavyTrades(20)
	next, ev := AdaptThreshold(trades, 80, 80, time.Now())
	if ev == nil {
		t.Fatal("expected a calibration event")
	}
	if next != 78 {
		t.Fatalf("expected threshold lowered to 78, got %v", next)
	}
}

func TestAdaptThresholdRespectsFloor(t *testing.T) {
	trades := winHeavyTrades(20)
	next, ev := AdaptThreshold(trades, 66, 70, time.Now())
	if ev == nil {
		t.Fatal("expected a calibration event")
	}
	if next != 65 {
		t.Fatalf("expected threshold floored at max(65,70-10)=65, got %v", next)
	}
}

func TestAdaptThresholdNoOpOffThe10TradeBoundary(t *testing.T) {
	trades := lossHeavyTrades(9)
	next, ev := AdaptThreshold(trades, 80, 80, time.Now())
	if ev != nil || next != 80 {
		t.Fatalf("expected no adjustment before the 10th trade, got next=%v ev=%+v", next, ev)
	}
}

func TestThresholdFloorFormula(t *testing.T) {
	if got := ThresholdFloor(90); got != 80 {
		t.Fatalf("expected floor 80, got %v", got)
	}
	if got := ThresholdFloor(70); got != 65 {
		t.Fatalf("expected floor clamped to 65, got %v", got)
	}
}
