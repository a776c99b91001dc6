package engine

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"tradeforge/calibrate"
	"tradeforge/exchange"
	"tradeforge/indicator"
	"tradeforge/ingress"
	"tradeforge/position"
	"tradeforge/store"
)

// Engine is the tick loop named in spec.md §5: it owns the normalized
// ingress channel from an exchange.ExchangeClient, a bounded per-pair-
// sharded worker pool, and drives every sealed 1m bar through
// Regime Classifier -> HYDRA/VIPER -> Risk & Portfolio Gate -> Position
// Lifecycle Manager -> Self-Calibrator, in that order. Grounded on
// trader/auto_trader.go's Run/Stop/runCycle (isRunning flag, stopCh,
// monitorWg) generalized from a fixed-interval poll to an event-driven
// tick keyed off sealed bars.
type Engine struct {
	log     zerolog.Logger
	store   *store.Store
	ingress *ingress.Adapter
	client  exchange.ExchangeClient
	ledger  position.Ledger
	cfg     Config

	// mu guards every field below: engine-owned scheduling/cadence state
	// that does not belong in the MSS (spec.md §3 scopes the MSS to
	// market/position/session state, not the engine's own bookkeeping).
	mu                    sync.Mutex
	pairRT                map[string]*pairRuntime
	vwap                  map[string]*indicator.VWAPAccumulator
	sessionLearner        map[string]*calibrate.SessionLearner
	baselineProfile       map[string]store.SessionProfile
	hydraThreshold        float64
	initialHydraThreshold float64
	hydraNetPnLs          []float64
	emergencyStopped      bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs an Engine against a live or paper exchange client and
// the shared Market State Store.
func New(cfg Config, client exchange.ExchangeClient, st *store.Store, ledger position.Ledger, log zerolog.Logger) *Engine {
	e := &Engine{
		log:                   log,
		store:                 st,
		ingress:               ingress.NewAdapter(st),
		client:                client,
		ledger:                ledger,
		cfg:                   cfg,
		pairRT:                make(map[string]*pairRuntime),
		vwap:                  make(map[string]*indicator.VWAPAccumulator),
		sessionLearner:        make(map[string]*calibrate.SessionLearner),
		baselineProfile:       make(map[string]store.SessionProfile),
		hydraThreshold:        cfg.HydraThreshold,
		initialHydraThreshold: cfg.HydraThreshold,
	}
	for _, pair := range cfg.Pairs {
		e.pairRT[pair] = &pairRuntime{electedMode: store.ModeNone}
		e.vwap[pair] = indicator.NewVWAPAccumulator()
		e.sessionLearner[pair] = calibrate.NewSessionLearner()
		e.baselineProfile[pair] = store.SessionProfile{Default: 6}
	}
	return e
}

// rt returns a pair's engine-owned runtime bookkeeping, creating it on
// first access (covers pairs added after construction, e.g. via a
// watchlist edit from the HTTP API).
func (e *Engine) rt(pair string) *pairRuntime {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.pairRT[pair]
	if !ok {
		r = &pairRuntime{electedMode: store.ModeNone}
		e.pairRT[pair] = r
		e.vwap[pair] = indicator.NewVWAPAccumulator()
		e.sessionLearner[pair] = calibrate.NewSessionLearner()
		e.baselineProfile[pair] = store.SessionProfile{Default: 6}
	}
	return r
}

// Run subscribes to the exchange client and drives the tick loop until
// ctx is cancelled or Stop is called. It blocks until shutdown is
// complete, mirroring trader/auto_trader.go's Run/Stop contract.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := e.client.Subscribe(ctx, e.cfg.Pairs)
	if err != nil {
		return err
	}

	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	defer close(e.doneCh)

	poolSize := e.cfg.WorkerPoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	shards := make([]chan exchange.Event, poolSize)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan exchange.Event, 256)
		wg.Add(1)
		go func(ch <-chan exchange.Event) {
			defer wg.Done()
			for ev := range ch {
				e.handleEvent(ev)
			}
		}(shards[i])
	}

	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stopCh:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			shards[shardFor(ev, poolSize)] <- ev
		}
	}
}

// Stop requests a graceful shutdown; Run returns once the in-flight
// event has drained from every shard.
func (e *Engine) Stop() {
	if e.stopCh == nil {
		return
	}
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	if e.doneCh != nil {
		<-e.doneCh
	}
}

// pairOf extracts the routable pair from any event kind, so events for
// the same pair always land on the same worker shard and preserve FIFO
// per-pair ordering (spec.md §5).
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

func shardFor(ev exchange.Event, poolSize int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(pairOf(ev)))
	return int(h.Sum32()) % poolSize
}

// handleEvent normalizes one raw exchange.Event through the Data
// Ingress Adapter, then drives the engine-owned bookkeeping (VWAP
// accumulation, decision-pipeline trigger) a sealed 1m bar implies.
// That bookkeeping stays here rather than in package ingress because
// it isn't MSS state (spec.md §3 scopes the MSS to market/position/
// session state) — the adapter's job ends at the store mutation.
func (e *Engine) handleEvent(ev exchange.Event) {
	r := e.ingress.Apply(ev)
	if !r.Sealed {
		return
	}
	e.vwapFor(r.Pair).Add(indicator.VWAPBar{
		Time: r.Bar.Ts(), High: r.Bar.High, Low: r.Bar.Low, Close: r.Bar.Close, Volume: r.Bar.Volume,
	})
	e.onSealedBar(r.Pair, r.Bar.Ts())
}

func (e *Engine) vwapFor(pair string) *indicator.VWAPAccumulator {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vwap[pair]
	if !ok {
		v = indicator.NewVWAPAccumulator()
		e.vwap[pair] = v
	}
	return v
}

func (e *Engine) vwapValue(pair string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vwap[pair]
	if !ok {
		return indicator.Absent
	}
	return v.Value()
}
