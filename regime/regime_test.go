package regime

import (
	"errors"
	"testing"

	"tradeforge/indicator"
	"tradeforge/sdeerr"
	"tradeforge/store"
)

func baseInputs() Inputs {
	return Inputs{
		Price:      110,
		SMA200:     100,
		EMA9:       108,
		EMA21:      105,
		EMA50:      102,
		ADX:        30,
		RSI:        60,
		BBWidth:    5,
		BBWidthAvg: 3,
	}
}

func TestClassifyBullish(t *testing.T) {
	res, err := Classify("BTC-USD", baseInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Regime != store.RegimeBullish {
		t.Fatalf("expected bullish, got %v (%v)", res.Regime, res.Reasons)
	}
}

func TestClassifyBearish(t *testing.T) {
	in := baseInputs()
	in.Price = 90
	in.EMA9 = 95
	in.EMA21 = 100
	res, err := Classify("BTC-USD", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Regime != store.RegimeBearish {
		t.Fatalf("expected bearish, got %v (%v)", res.Regime, res.Reasons)
	}
}

func TestClassifyChoppyLowADX(t *testing.T) {
	in := baseInputs()
	in.ADX = 10
	res, err := Classify("BTC-USD", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Regime != store.RegimeChoppy {
		t.Fatalf("expected choppy on low ADX, got %v", res.Regime)
	}
}

func TestClassifyChoppyTakesPrecedenceOverBullish(t *testing.T) {
	in := baseInputs()
	in.Price = 100.5 // within 1.5% of SMA200=100
	in.BBWidth = 1   // narrower than avg=3
	res, err := Classify("BTC-USD", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Regime != store.RegimeChoppy {
		t.Fatalf("expected choppy to win over bullish-looking inputs, got %v", res.Regime)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	in := baseInputs()
	r1, _ := Classify("BTC-USD", in)
	r2, _ := Classify("BTC-USD", in)
	if r1.Regime != r2.Regime {
		t.Fatalf("expected equal inputs to classify identically, got %v vs %v", r1.Regime, r2.Regime)
	}
}

func TestClassifyDataGapOnMissingIndicator(t *testing.T) {
	in := baseInputs()
	in.ADX = indicator.Absent
	_, err := Classify("BTC-USD", in)
	if !errors.Is(err, sdeerr.Sentinel(sdeerr.DataGap)) {
		t.Fatalf("expected a DataGap error, got %v", err)
	}
}

func TestClassifyEMA50AbsentStillEvaluates(t *testing.T) {
	in := baseInputs()
	in.EMA50 = indicator.Absent
	res, err := Classify("BTC-USD", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Regime != store.RegimeBullish {
		t.Fatalf("expected bullish even with EMA50 absent, got %v", res.Regime)
	}
}
