// Package ingress is the Data Ingress Adapter named in spec.md §4.3: it
// normalizes the raw exchange.ExchangeClient event stream (ticker/candle/
// L2 snapshot/delta/trade) into store.Store mutations, the only thing
// between the wire format a collaborator speaks and the shape the
// Market State Store and indicator bank consume. Grounded on
// market/api_client.go's kline-normalization idiom, generalized from a
// single REST poll to every exchange.Event kind.
package ingress

import (
	"tradeforge/book"
	"tradeforge/candle"
	"tradeforge/exchange"
	"tradeforge/metrics"
	"tradeforge/store"
	"tradeforge/tradeflow"
)

// Adapter owns no state of its own beyond the Store it mutates.
// store.Store takes no lock around these mutations, so concurrent Apply
// calls are safe only if the caller serializes them.
type Adapter struct {
	store *store.Store
}

// NewAdapter constructs an Adapter writing into st.
func NewAdapter(st *store.Store) *Adapter {
	return &Adapter{store: st}
}

// Result reports what an applied event implies for the caller's own
// bookkeeping. The engine's VWAP accumulation and decision-pipeline
// trigger are engine-owned, not MSS state (spec.md §3 scopes the MSS to
// market/position/session state), so Apply hands back just enough for
// the engine to drive them without duplicating the sealed-bar check.
type Result struct {
	Pair   string
	Sealed bool
	Bar    candle.Candle
}

// Apply normalizes one raw exchange.Event into the corresponding MSS
// mutation, including the 1m->5m/15m/1h/4h aggregation store.UpsertCandle
// drives internally, and reports whether it sealed a 1m bar.
func (a *Adapter) Apply(ev exchange.Event) Result {
	defer metrics.RecordIngressEvent(pairOf(ev), string(ev.Kind))

	switch ev.Kind {
	case exchange.EventTicker:
		t := ev.Ticker
		a.store.UpdateTicker(store.Ticker{
			Pair: t.Pair, Price: t.Last, Bid: t.Bid, Ask: t.Ask, UpdatedAt: t.Ts,
		})
		return Result{Pair: t.Pair}

	case exchange.EventCandle:
		c := ev.Candle
		bar := barFromEvent(c)
		a.store.UpsertCandle(c.Pair, bar)
		return Result{Pair: c.Pair, Sealed: c.Closed, Bar: bar}

	case exchange.EventBookSnapshot:
		bs := ev.BookSnapshot
		a.store.Book(bs.Pair).ApplySnapshot(toLevels(bs.Bids), toLevels(bs.Asks))
		return Result{Pair: bs.Pair}

	case exchange.EventBookDelta:
		bd := ev.BookDelta
		side := book.Bid
		if bd.Side == "ask" {
			side = book.Ask
		}
		a.store.Book(bd.Pair).ApplyDelta(side, bd.Price, bd.Qty)
		return Result{Pair: bd.Pair}

	case exchange.EventTrade:
		tr := ev.Trade
		side := tradeflow.Sell
		if tr.Side == "buy" {
			side = tradeflow.Buy
		}
		a.store.TradeFlow(tr.Pair).Record(tr.Ts, tr.Size, side)
		return Result{Pair: tr.Pair}

	default:
		return Result{}
	}
}

// barFromEvent converts a wire-level exchange.Candle into the
// candle.Candle shape the MSS and indicator bank consume.
func barFromEvent(c exchange.Candle) candle.Candle {
	return candle.Candle{
		TsMs:   c.TsMs,
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
		Sealed: c.Closed,
	}
}

// pairOf extracts the routable pair from any event kind, purely for
// metrics labeling here (the engine's own shardFor/pairOf drive routing).
func pairOf(ev exchange.Event) string {
	switch ev.Kind {
	case exchange.EventTicker:
		return ev.Ticker.Pair
	case exchange.EventCandle:
		return ev.Candle.Pair
	case exchange.EventBookSnapshot:
		return ev.BookSnapshot.Pair
	case exchange.EventBookDelta:
		return ev.BookDelta.Pair
	case exchange.EventTrade:
		return ev.Trade.Pair
	default:
		return ""
	}
}

// toLevels converts a wire-level book side into package book's Level
// shape.
func toLevels(ls []exchange.BookLevel) []book.Level {
	out := make([]book.Level, len(ls))
	for i, l := range ls {
		out[i] = book.Level{Price: l.Price, Qty: l.Qty}
	}
	return out
}
