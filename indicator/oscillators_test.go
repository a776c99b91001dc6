package indicator

import "testing"

func TestRSIAllGainsSaturatesHigh(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	rsi := RSI(closes, 3)
	for i := 0; i < 3; i++ {
		if !IsAbsent(rsi[i]) {
			t.Fatalf("index %d: expected absent warm-up, got %v", i, rsi[i])
		}
	}
	for i := 3; i < len(closes); i++ {
		if rsi[i] != 100 {
			t.Fatalf("index %d: expected RSI=100 on all-gains series, got %v", i, rsi[i])
		}
	}
}

func TestRSIAllLossesSaturatesLow(t *testing.T) {
	closes := []float64{5, 4, 3, 2, 1}
	rsi := RSI(closes, 3)
	for i := 3; i < len(closes); i++ {
		if rsi[i] != 0 {
			t.Fatalf("index %d: expected RSI=0 on all-losses series, got %v", i, rsi[i])
		}
	}
}

func TestRSIBounded(t *testing.T) {
	closes := []float64{10, 9, 11, 10, 12, 11, 13, 15, 14, 16, 15, 17, 19, 18, 20, 22}
	rsi := RSI(closes, 14)
	for i, v := range rsi {
		if IsAbsent(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("index %d: RSI out of bounds: %v", i, v)
		}
	}
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	res := MACD(closes, 12, 26, 9)
	for i, v := range res.MACD {
		if IsAbsent(v) {
			continue
		}
		if v != 0 {
			t.Fatalf("index %d: expected MACD=0 on flat series, got %v", i, v)
		}
	}
	for i, v := range res.Histogram {
		if IsAbsent(v) {
			continue
		}
		if v != 0 {
			t.Fatalf("index %d: expected histogram=0 on flat series, got %v", i, v)
		}
	}
}

func TestStochRSIBounded(t *testing.T) {
	closes := make([]float64, 40)
	v := 100.0
	for i := range closes {
		v += float64(i%5) - 2
		closes[i] = v
	}
	res := StochRSI(closes, 14, 14, 3, 3)
	for i, k := range res.K {
		if IsAbsent(k) {
			continue
		}
		if k < 0 || k > 100 {
			t.Fatalf("index %d: %%K out of bounds: %v", i, k)
		}
	}
	for i, d := range res.D {
		if IsAbsent(d) {
			continue
		}
		if d < 0 || d > 100 {
			t.Fatalf("index %d: %%D out of bounds: %v", i, d)
		}
	}
}

func TestWilliamsRAtRangeExtremes(t *testing.T) {
	highs := []float64{10, 10, 10, 10}
	lows := []float64{5, 5, 5, 5}
	closesHigh := []float64{5, 5, 5, 10}
	r := WilliamsR(highs, lows, closesHigh, 4)
	if r[3] != 0 {
		t.Fatalf("expected %%R=0 at the high extreme, got %v", r[3])
	}
	closesLow := []float64{10, 10, 10, 5}
	r2 := WilliamsR(highs, lows, closesLow, 4)
	if r2[3] != -100 {
		t.Fatalf("expected %%R=-100 at the low extreme, got %v", r2[3])
	}
}

func TestCCIZeroOnFlatSeries(t *testing.T) {
	n := 25
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range closes {
		highs[i], lows[i], closes[i] = 101, 99, 100
	}
	cci := CCI(highs, lows, closes, 20)
	for i := 19; i < n; i++ {
		if cci[i] != 0 {
			t.Fatalf("index %d: expected CCI=0 on flat typical price, got %v", i, cci[i])
		}
	}
}

func TestROCMatchesPercentChange(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 110}
	roc := ROC(closes, 11)
	if roc[11] != 10 {
		t.Fatalf("expected ROC=10%%, got %v", roc[11])
	}
}

func TestTRIXFlatSeriesIsZero(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 50
	}
	trix := TRIX(closes, 15)
	for i, v := range trix {
		if IsAbsent(v) {
			continue
		}
		if v != 0 {
			t.Fatalf("index %d: expected TRIX=0 on flat series, got %v", i, v)
		}
	}
}

func TestADXBoundedAndDirectional(t *testing.T) {
	n := 60
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 1
		highs[i] = price + 0.5
		lows[i] = price - 0.5
		closes[i] = price
	}
	res := ADX(highs, lows, closes, 14)
	found := false
	for i := 0; i < n; i++ {
		if IsAbsent(res.ADX[i]) {
			continue
		}
		found = true
		if res.ADX[i] < 0 || res.ADX[i] > 100 {
			t.Fatalf("index %d: ADX out of bounds: %v", i, res.ADX[i])
		}
		if Finite(res.PlusDI[i]) && Finite(res.MinusDI[i]) {
			if res.PlusDI[i] <= res.MinusDI[i] {
				t.Fatalf("index %d: expected +DI>-DI on a steady uptrend", i)
			}
		}
	}
	if !found {
		t.Fatal("expected at least one non-absent ADX value over 60 bars")
	}
}
