package ingress

import (
	"testing"

	"tradeforge/exchange"
	"tradeforge/store"
)

func TestApplyTickerUpdatesStore(t *testing.T) {
	st := store.New(nil)
	a := NewAdapter(st)
	a.Apply(exchange.Event{Kind: exchange.EventTicker, Ticker: exchange.Ticker{
		Pair: "BTCUSDT", Last: 100, Bid: 99.9, Ask: 100.1,
	}})
	tick, ok := st.Ticker("BTCUSDT")
	if !ok || tick.Price != 100 {
		t.Fatalf("expected ticker price 100, got %+v (ok=%v)", tick, ok)
	}
}

func TestApplyCandleReportsSealedOnClose(t *testing.T) {
	st := store.New(nil)
	a := NewAdapter(st)

	open := exchange.Event{Kind: exchange.EventCandle, Candle: exchange.Candle{
		Pair: "BTCUSDT", TsMs: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, Closed: false,
	}}
	if r := a.Apply(open); r.Sealed {
		t.Fatalf("expected an unsealed bar to report Sealed=false")
	}

	sealed := exchange.Event{Kind: exchange.EventCandle, Candle: exchange.Candle{
		Pair: "BTCUSDT", TsMs: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, Closed: true,
	}}
	r := a.Apply(sealed)
	if !r.Sealed || r.Pair != "BTCUSDT" || r.Bar.Close != 1.5 {
		t.Fatalf("expected a sealed bar result, got %+v", r)
	}
}

func TestApplyBookSnapshotAndDelta(t *testing.T) {
	st := store.New(nil)
	a := NewAdapter(st)
	a.Apply(exchange.Event{Kind: exchange.EventBookSnapshot, BookSnapshot: exchange.BookSnapshot{
		Pair: "BTCUSDT",
		Bids: []exchange.BookLevel{{Price: 99, Qty: 1}},
		Asks: []exchange.BookLevel{{Price: 101, Qty: 1}},
	}})
	a.Apply(exchange.Event{Kind: exchange.EventBookDelta, BookDelta: exchange.BookDelta{
		Pair: "BTCUSDT", Side: "bid", Price: 99, Qty: 2,
	}})
	// No direct book read accessor is exercised here beyond confirming
	// Apply does not panic against a freshly-snapshotted book; book's own
	// package tests cover ApplySnapshot/ApplyDelta semantics.
	_ = st.Book("BTCUSDT")
}

func TestApplyTradeRecordsFlow(t *testing.T) {
	st := store.New(nil)
	a := NewAdapter(st)
	r := a.Apply(exchange.Event{Kind: exchange.EventTrade, Trade: exchange.Trade{
		Pair: "BTCUSDT", Side: "buy", Size: 5,
	}})
	if r.Pair != "BTCUSDT" {
		t.Fatalf("expected trade result pair BTCUSDT, got %q", r.Pair)
	}
}

func TestBarFromEventPreservesSealedFlag(t *testing.T) {
	c := exchange.Candle{Pair: "BTCUSDT", TsMs: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, Closed: true}
	bar := barFromEvent(c)
	if !bar.Sealed {
		t.Fatalf("expected Sealed=true when exchange.Candle.Closed is true")
	}
	if bar.TsMs != 1000 || bar.Close != 1.5 {
		t.Fatalf("barFromEvent dropped fields: %+v", bar)
	}
}

func TestToLevelsConvertsEachEntry(t *testing.T) {
	in := []exchange.BookLevel{{Price: 100, Qty: 1}, {Price: 101, Qty: 2}}
	out := toLevels(in)
	if len(out) != 2 || out[0].Price != 100 || out[1].Qty != 2 {
		t.Fatalf("toLevels mismatch: %+v", out)
	}
}
