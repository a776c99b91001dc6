package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
)

// wsBackoffFloor and wsBackoffCeiling bound the reconnect backoff per
// spec.md §5 (exponential WS backoff 1s→30s ceiling).
const (
	wsBackoffFloor   = time.Second
	wsBackoffCeiling = 30 * time.Second
)

// BinanceClient is the one concrete ExchangeClient implementation,
// grounded on market/api_client.go's APIClient shape (credential-holding
// wrapper around a vendor SDK client, REST methods for historical data)
// generalized from Alpaca's polled-stocks REST surface to Binance spot's
// REST-plus-streaming surface via adshao/go-binance/v2.
type BinanceClient struct {
	rest *binance.Client
	log  zerolog.Logger
}

// NewBinanceClient constructs a client against real Binance credentials.
// An empty apiKey/apiSecret still works for the public market-data
// subscription path; PlaceOrder will fail against an unauthenticated
// client.
func NewBinanceClient(apiKey, apiSecret string, log zerolog.Logger) *BinanceClient {
	return &BinanceClient{
		rest: binance.NewClient(apiKey, apiSecret),
		log:  log.With().Str("component", "exchange.binance").Logger(),
	}
}

// Subscribe opens one kline, depth, and aggregate-trade websocket stream
// per pair and fans every normalized Event into a single shared channel,
// reconnecting each stream independently with exponential backoff on
// drop. The returned channel is closed once ctx is cancelled.
func (c *BinanceClient) Subscribe(ctx context.Context, pairs []string) (<-chan Event, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("exchange: Subscribe requires at least one pair")
	}

	out := make(chan Event, 256)
	var wg sync.WaitGroup

	for _, pair := range pairs {
		pair := pair
		wg.Add(3)
		go func() { defer wg.Done(); c.runKlineStream(ctx, pair, out) }()
		go func() { defer wg.Done(); c.runDepthStream(ctx, pair, out) }()
		go func() { defer wg.Done(); c.runTradeStream(ctx, pair, out) }()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

// reconnectLoop runs connect repeatedly with exponential backoff until
// ctx is cancelled, resetting the backoff on every clean connect.
func (c *BinanceClient) reconnectLoop(ctx context.Context, name, pair string, connect func() (chan struct{}, chan struct{}, error)) {
	backoff := wsBackoffFloor
	for ctx.Err() == nil {
		doneC, stopC, err := connect()
		if err != nil {
			c.log.Warn().Err(err).Str("pair", pair).Str("stream", name).Dur("backoff", backoff).Msg("ws connect failed")
			c.sleepOrDone(ctx, backoff)
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = wsBackoffFloor

		select {
		case <-ctx.Done():
			close(stopC)
			return
		case <-doneC:
			c.log.Warn().Str("pair", pair).Str("stream", name).Msg("ws stream closed, reconnecting")
			c.sleepOrDone(ctx, backoff)
			backoff = nextBackoff(backoff)
		}
	}
}

func (c *BinanceClient) sleepOrDone(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func nextBackoff(d time.Duration) time.Duration {
	next := d * 2
	if next > wsBackoffCeiling {
		return wsBackoffCeiling
	}
	return next
}

func (c *BinanceClient) runKlineStream(ctx context.Context, pair string, out chan<- Event) {
	c.reconnectLoop(ctx, "kline", pair, func() (chan struct{}, chan struct{}, error) {
		handler := func(event *binance.WsKlineEvent) {
			k := event.Kline
			select {
			case out <- Event{Kind: EventCandle, Candle: Candle{
				Pair:   pair,
				TsMs:   k.StartTime,
				Open:   parseF(k.Open),
				High:   parseF(k.High),
				Low:    parseF(k.Low),
				Close:  parseF(k.Close),
				Volume: parseF(k.Volume),
				Closed: k.IsFinal,
			}}:
			case <-ctx.Done():
			}
		}
		errHandler := func(err error) { c.log.Warn().Err(err).Str("pair", pair).Msg("kline ws error") }
		return binance.WsKlineServe(pair, "1m", handler, errHandler)
	})
}

func (c *BinanceClient) runDepthStream(ctx context.Context, pair string, out chan<- Event) {
	c.reconnectLoop(ctx, "depth", pair, func() (chan struct{}, chan struct{}, error) {
		handler := func(event *binance.WsDepthEvent) {
			delta := func(side string, entries []binance.Bid) {
				for _, e := range entries {
					select {
					case out <- Event{Kind: EventBookDelta, BookDelta: BookDelta{
						Pair: pair, Side: side, Price: parseF(e.Price), Qty: parseF(e.Quantity),
					}}:
					case <-ctx.Done():
						return
					}
				}
			}
			delta("bid", event.Bids)
			delta("ask", event.Asks)
		}
		errHandler := func(err error) { c.log.Warn().Err(err).Str("pair", pair).Msg("depth ws error") }
		return binance.WsDepthServe(pair, handler, errHandler)
	})
}

func (c *BinanceClient) runTradeStream(ctx context.Context, pair string, out chan<- Event) {
	c.reconnectLoop(ctx, "aggTrade", pair, func() (chan struct{}, chan struct{}, error) {
		handler := func(event *binance.WsAggTradeEvent) {
			side := "sell"
			if !event.IsBuyerMaker {
				side = "buy"
			}
			select {
			case out <- Event{Kind: EventTrade, Trade: Trade{
				Pair: pair,
				Ts:   time.UnixMilli(event.TradeTime).UTC(),
				Size: parseF(event.Quantity),
				Side: side,
			}}:
			case <-ctx.Done():
			}
		}
		errHandler := func(err error) { c.log.Warn().Err(err).Str("pair", pair).Msg("aggTrade ws error") }
		return binance.WsAggTradeServe(pair, handler, errHandler)
	})
}

// PlaceOrder submits a market order via the REST API. The SDE only ever
// sends market entries/exits (spec.md §6), so no price/TIF handling is
// needed here.
func (c *BinanceClient) PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error) {
	side := binance.SideTypeBuy
	if req.Side == SideSell {
		side = binance.SideTypeSell
	}

	svc := c.rest.NewCreateOrderService().
		Symbol(req.Pair).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(fmt.Sprintf("%v", req.Quantity))
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return OrderAck{}, fmt.Errorf("exchange: place order %s %s: %w", req.Pair, req.Side, err)
	}

	fillPrice, fillQty, feeUSD := avgFill(res.Fills)
	return OrderAck{
		OrderID:   fmt.Sprintf("%d", res.OrderID),
		Pair:      req.Pair,
		FillPrice: fillPrice,
		FillQty:   fillQty,
		FeeUSD:    feeUSD,
		Ts:        time.UnixMilli(res.TransactTime).UTC(),
	}, nil
}

func avgFill(fills []*binance.Fill) (price, qty, feeUSD float64) {
	var notional float64
	for _, f := range fills {
		p, q := parseF(f.Price), parseF(f.Quantity)
		notional += p * q
		qty += q
		feeUSD += parseF(f.Commission)
	}
	if qty > 0 {
		price = notional / qty
	}
	return price, qty, feeUSD
}

func parseF(s string) float64 {
	var f float64
	_, _ = fmt.Sscanf(s, "%f", &f)
	return f
}
