package exchange

import (
	"context"
	"testing"
)

type fakePrices map[string]float64

func (f fakePrices) Price(pair string) (float64, bool) {
	p, ok := f[pair]
	return p, ok
}

func TestPaperPlaceOrderAppliesSlippageAndFeeOnBuy(t *testing.T) {
	p := NewPaper(PaperConfig{SlippagePct: 0.001, FeePct: 0.0004}, fakePrices{"BTC-USD": 100}, 0)
	ack, err := p.PlaceOrder(context.Background(), OrderRequest{Pair: "BTC-USD", Side: SideBuy, Quantity: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPrice := 100 * 1.001
	if ack.FillPrice != wantPrice {
		t.Fatalf("expected fill price %v, got %v", wantPrice, ack.FillPrice)
	}
	wantFee := wantPrice * 2 * 0.0004
	if ack.FeeUSD != wantFee {
		t.Fatalf("expected fee %v, got %v", wantFee, ack.FeeUSD)
	}
	if ack.FillQty != 2 {
		t.Fatalf("expected full fill quantity, got %v", ack.FillQty)
	}
}

func TestPaperPlaceOrderSlipsAgainstSellSide(t *testing.T) {
	p := NewPaper(PaperConfig{SlippagePct: 0.002}, fakePrices{"ETH-USD": 50}, 0)
	ack, err := p.PlaceOrder(context.Background(), OrderRequest{Pair: "ETH-USD", Side: SideSell, Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 50 * (1 - 0.002)
	if ack.FillPrice != want {
		t.Fatalf("expected fill price %v, got %v", want, ack.FillPrice)
	}
}

func TestPaperPlaceOrderErrorsWithoutReferencePrice(t *testing.T) {
	p := NewPaper(PaperConfig{}, fakePrices{}, 0)
	if _, err := p.PlaceOrder(context.Background(), OrderRequest{Pair: "BTC-USD", Quantity: 1}); err == nil {
		t.Fatal("expected an error when no reference price is available")
	}
}

func TestPaperPushFeedsSubscribe(t *testing.T) {
	p := NewPaper(PaperConfig{}, fakePrices{}, 4)
	ch, err := p.Subscribe(context.Background(), []string{"BTC-USD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Push(context.Background(), Event{Kind: EventTicker, Ticker: Ticker{Pair: "BTC-USD", Last: 101}})
	got := <-ch
	if got.Kind != EventTicker || got.Ticker.Last != 101 {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestPaperOrderIDsAreUnique(t *testing.T) {
	p := NewPaper(PaperConfig{}, fakePrices{"BTC-USD": 1}, 0)
	a, _ := p.PlaceOrder(context.Background(), OrderRequest{Pair: "BTC-USD", Quantity: 1})
	b, _ := p.PlaceOrder(context.Background(), OrderRequest{Pair: "BTC-USD", Quantity: 1})
	if a.OrderID == b.OrderID {
		t.Fatalf("expected distinct order ids, got %v and %v", a.OrderID, b.OrderID)
	}
}
