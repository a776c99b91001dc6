// Package exchange defines the narrow collaborator the Data Ingress
// Adapter and order-placement path depend on, per spec.md §6's "specified
// only by interface": ExchangeClient is implemented once for real trading
// (BinanceClient, grounded on market/api_client.go's REST-client shape,
// generalized from Alpaca stocks to Binance spot) and once for synthetic
// fills (Paper, used by the backtester and by default until credentials
// are configured).
package exchange

import (
	"context"
	"time"
)

// EventKind tags which market-data variant an Event carries.
type EventKind string

const (
	EventTicker EventKind = "ticker"
	EventCandle EventKind = "candle"
	EventBookSnapshot EventKind = "book_snapshot"
	EventBookDelta    EventKind = "book_delta"
	EventTrade        EventKind = "trade"
)

// Ticker is a best-bid/ask/last quote update.
type Ticker struct {
	Pair      string
	Last      float64
	Bid       float64
	Ask       float64
	Ts        time.Time
}

// Candle is one 1m OHLCV bar as received from the exchange; the DIA folds
// it into the 5m/15m/1h/4h aggregates.
type Candle struct {
	Pair   string
	TsMs   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Closed bool // true once the exchange reports this bar as final
}

// BookLevel is one bid/ask rung.
type BookLevel struct {
	Price float64
	Qty   float64
}

// BookSnapshot replaces a pair's order book wholesale (first message on
// (re)connect).
type BookSnapshot struct {
	Pair string
	Bids []BookLevel
	Asks []BookLevel
}

// BookDelta is an incremental order book update; Qty of 0 removes the
// level.
type BookDelta struct {
	Pair  string
	Side  string // "bid" | "ask"
	Price float64
	Qty   float64
}

// Trade is one executed trade print, used to derive buy/sell flow.
type Trade struct {
	Pair string
	Ts   time.Time
	Size float64
	Side string // "buy" | "sell"
}

// Event is one normalized market-data message. Exactly one of the
// pointer-ish fields is populated, selected by Kind.
type Event struct {
	Kind         EventKind
	Ticker       Ticker
	Candle       Candle
	BookSnapshot BookSnapshot
	BookDelta    BookDelta
	Trade        Trade
}

// OrderSide is the side of an OrderRequest.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderRequest is an outbound order, spec.md §6's order-request variant
// for market entries/exits (the SDE never places resting limit orders).
type OrderRequest struct {
	Pair        string
	Side        OrderSide
	Quantity    float64
	ReduceOnly  bool
	ClientOrderID string
}

// OrderAck is the exchange's (or Paper's) acknowledgement of a placed
// order, already filled since the SDE only ever sends market orders.
type OrderAck struct {
	OrderID  string
	Pair     string
	FillPrice float64
	FillQty   float64
	FeeUSD    float64
	Ts        time.Time
}

// ExchangeClient is the interface the Data Ingress Adapter and the order
// path consume. It is deliberately narrow: one subscription stream in,
// one order call out.
type ExchangeClient interface {
	Subscribe(ctx context.Context, pairs []string) (<-chan Event, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error)
}
