package exchange

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// PriceSource resolves the reference price Paper fills against. The
// engine wires store.Store's last-ticker lookup into this at startup;
// exchange itself stays storage-agnostic.
type PriceSource interface {
	Price(pair string) (float64, bool)
}

// PaperConfig holds the synthetic execution parameters spec.md §6
// requires paper mode to apply on every fill.
type PaperConfig struct {
	SlippagePct float64 // adverse price move applied against the order side
	FeePct      float64 // taker fee, applied to notional
}

// Paper intercepts PlaceOrder and resolves it synthetically against a
// PriceSource, used by the backtester and whenever live credentials are
// not configured. It never subscribes to a real stream; Subscribe feeds
// from whatever Events are passed to Push, letting the backtester drive
// it from historical bars.
type Paper struct {
	cfg    PaperConfig
	prices PriceSource
	feed   chan Event
	nextID uint64
}

// NewPaper constructs a Paper client. feedBuffer sizes the internal
// channel the backtester pushes historical Events onto.
func NewPaper(cfg PaperConfig, prices PriceSource, feedBuffer int) *Paper {
	if feedBuffer <= 0 {
		feedBuffer = 1024
	}
	return &Paper{cfg: cfg, prices: prices, feed: make(chan Event, feedBuffer)}
}

// Push feeds one synthetic market-data Event to any active Subscribe
// consumer; used by the backtester to replay historical candles.
func (p *Paper) Push(ctx context.Context, e Event) {
	select {
	case p.feed <- e:
	case <-ctx.Done():
	}
}

// Subscribe returns the shared feed channel; pairs is accepted for
// interface parity with BinanceClient but Paper does not filter by it
// (the backtester only ever pushes the pairs it cares about).
func (p *Paper) Subscribe(ctx context.Context, pairs []string) (<-chan Event, error) {
	return p.feed, nil
}

// PlaceOrder resolves a market order synthetically: slippage moves the
// reference price against the order's side, and a taker fee is charged
// on the filled notional.
func (p *Paper) PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error) {
	ref, ok := p.prices.Price(req.Pair)
	if !ok {
		return OrderAck{}, fmt.Errorf("exchange: paper has no reference price for %s", req.Pair)
	}

	fillPrice := ref
	switch req.Side {
	case SideBuy:
		fillPrice = ref * (1 + p.cfg.SlippagePct)
	case SideSell:
		fillPrice = ref * (1 - p.cfg.SlippagePct)
	}

	notional := fillPrice * req.Quantity
	fee := notional * p.cfg.FeePct

	id := atomic.AddUint64(&p.nextID, 1)
	return OrderAck{
		OrderID:   fmt.Sprintf("paper-%d", id),
		Pair:      req.Pair,
		FillPrice: fillPrice,
		FillQty:   req.Quantity,
		FeeUSD:    fee,
		Ts:        time.Now().UTC(),
	}, nil
}
