package indicator

import "testing"

func TestATRFlatSeriesIsZero(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range closes {
		highs[i], lows[i], closes[i] = 100, 100, 100
	}
	atr := ATR(highs, lows, closes, 14)
	for i, v := range atr {
		if IsAbsent(v) {
			continue
		}
		if v != 0 {
			t.Fatalf("index %d: expected ATR=0 on a flat series, got %v", i, v)
		}
	}
}

func TestBollingerBandsStraddleMiddle(t *testing.T) {
	closes := []float64{90, 95, 100, 105, 110, 95, 100, 105, 110, 90, 95, 100, 105, 110, 95, 100, 105, 110, 90, 95}
	res := Bollinger(closes, 20, 2)
	i := len(closes) - 1
	if !Finite(res.Middle[i]) {
		t.Fatal("expected a present middle band at the end of the series")
	}
	if res.Upper[i] <= res.Middle[i] || res.Lower[i] >= res.Middle[i] {
		t.Fatalf("expected upper>middle>lower, got upper=%v middle=%v lower=%v", res.Upper[i], res.Middle[i], res.Lower[i])
	}
}

func TestKeltnerChannelsStraddleMiddle(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += float64(i%3) - 1
		highs[i] = price + 1
		lows[i] = price - 1
		closes[i] = price
	}
	res := Keltner(highs, lows, closes, 20, 1.5)
	i := n - 1
	if !Finite(res.Middle[i]) {
		t.Fatal("expected a present middle line at the end of the series")
	}
	if res.Upper[i] <= res.Middle[i] || res.Lower[i] >= res.Middle[i] {
		t.Fatalf("expected upper>middle>lower, got upper=%v middle=%v lower=%v", res.Upper[i], res.Middle[i], res.Lower[i])
	}
}

func TestSupertrendFlipsOnTrendReversal(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n/2; i++ {
		price += 2
		highs[i] = price + 0.5
		lows[i] = price - 0.5
		closes[i] = price
	}
	for i := n / 2; i < n; i++ {
		price -= 4
		highs[i] = price + 0.5
		lows[i] = price - 0.5
		closes[i] = price
	}
	res := Supertrend(highs, lows, closes, 10, 3)
	if res.Direction[10] != 1 {
		t.Fatalf("expected bullish direction mid-uptrend, got %v", res.Direction[10])
	}
	if res.Direction[n-1] != -1 {
		t.Fatalf("expected bearish direction after the reversal, got %v", res.Direction[n-1])
	}
}

func TestParabolicSARTracksBelowPriceInUptrend(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 1
		highs[i] = price + 0.5
		lows[i] = price - 0.5
	}
	res := ParabolicSAR(highs, lows, 0.02, 0.2)
	for i := 1; i < n; i++ {
		if res.Direction[i] == 1 && res.SAR[i] >= lows[i] {
			t.Fatalf("index %d: expected SAR below price in an uptrend, got SAR=%v low=%v", i, res.SAR[i], lows[i])
		}
	}
}
