package exchange

import (
	"testing"

	binance "github.com/adshao/go-binance/v2"
)

func TestNextBackoffDoublesUpToCeiling(t *testing.T) {
	d := wsBackoffFloor
	for i := 0; i < 10; i++ {
		d = nextBackoff(d)
	}
	if d != wsBackoffCeiling {
		t.Fatalf("expected backoff to saturate at %v, got %v", wsBackoffCeiling, d)
	}
}

func TestNextBackoffNeverExceedsCeiling(t *testing.T) {
	if got := nextBackoff(wsBackoffCeiling); got != wsBackoffCeiling {
		t.Fatalf("expected %v, got %v", wsBackoffCeiling, got)
	}
}

func TestParseFParsesDecimalStrings(t *testing.T) {
	if got := parseF("123.45"); got != 123.45 {
		t.Fatalf("expected 123.45, got %v", got)
	}
}

func TestParseFOnGarbageReturnsZero(t *testing.T) {
	if got := parseF("not-a-number"); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestAvgFillWeightsByQuantity(t *testing.T) {
	fills := []*binance.Fill{
		{Price: "100", Quantity: "1", Commission: "0.01"},
		{Price: "102", Quantity: "3", Commission: "0.02"},
	}
	price, qty, fee := avgFill(fills)
	wantPrice := (100*1 + 102*3) / 4.0
	if price != wantPrice {
		t.Fatalf("expected avg price %v, got %v", wantPrice, price)
	}
	if qty != 4 {
		t.Fatalf("expected total qty 4, got %v", qty)
	}
	if fee != 0.03 {
		t.Fatalf("expected total fee 0.03, got %v", fee)
	}
}
