package position

import (
	"testing"
	"time"

	"tradeforge/hydra"
	"tradeforge/store"
)

func TestOpenAssignsIDAndRegistersInStore(t *testing.T) {
	s := store.New(nil)
	sz := hydra.Size(10000, 100, 1.0, 88, 0.01, 0.08)
	base := hydra.NewPosition("BTC-USD", 100, sz)
	base.Strategy = store.StrategyHydra

	p, ok := Open(s, base, time.Now())
	if !ok || p.ID == "" {
		t.Fatalf("expected position opened with an assigned id, got %+v ok=%v", p, ok)
	}
	if got, exists := s.Position(p.ID); !exists || got != p {
		t.Fatal("expected the opened position registered in the store by id")
	}
}

func TestOpenRejectsSecondPositionOnSamePair(t *testing.T) {
	s := store.New(nil)
	sz := hydra.Size(10000, 100, 1.0, 88, 0.01, 0.08)
	base := hydra.NewPosition("BTC-USD", 100, sz)

	if _, ok := Open(s, base, time.Now()); !ok {
		t.Fatal("expected first open to succeed")
	}
	if _, ok := Open(s, base, time.Now()); ok {
		t.Fatal("expected second open on the same pair to be rejected")
	}
}

func TestStatusOfTransitions(t *testing.T) {
	pos := &store.Position{Quantity: 10, OriginalQuantity: 10}
	if StatusOf(pos) != StatusOpen {
		t.Fatalf("expected OPEN, got %v", StatusOf(pos))
	}
	pos.TP1Hit = true
	if StatusOf(pos) != StatusPartialTP1 {
		t.Fatalf("expected PARTIAL_TP1, got %v", StatusOf(pos))
	}
	pos.TP2Hit = true
	if StatusOf(pos) != StatusPartialTP2 {
		t.Fatalf("expected PARTIAL_TP2, got %v", StatusOf(pos))
	}
	pos.Quantity = 0
	if StatusOf(pos) != StatusClosed {
		t.Fatalf("expected CLOSED, got %v", StatusOf(pos))
	}
}

func TestEvaluateExitDispatchesToHydra(t *testing.T) {
	sz := hydra.Size(10000, 100, 1.0, 88, 0.01, 0.08)
	pos := hydra.NewPosition("BTC-USD", 100, sz)
	pos.Strategy = store.StrategyHydra

	exitType, pct, _, fired := EvaluateExit(&pos, MarketContext{High: 80, Low: 80, Close: 80, ExitScore: 60})
	if !fired || exitType != store.ExitStop {
		t.Fatalf("expected stop exit fired, got exitType=%v fired=%v", exitType, fired)
	}
	if pct != 1.0 {
		t.Fatalf("expected full close on stop, got %v", pct)
	}
}

func TestApplyExitFullyClosesAndEmitsTrade(t *testing.T) {
	s := store.New(nil)
	sz := hydra.Size(10000, 100, 1.0, 88, 0.01, 0.08)
	base := hydra.NewPosition("BTC-USD", 100, sz)
	base.Strategy = store.StrategyHydra
	pos, _ := Open(s, base, time.Now())

	ledger := NewPaperLedger(10000)
	trade, closed := ApplyExit(s, ledger, pos, store.ExitStop, 1.0, pos.StopLoss, 0, time.Now())
	if !closed || trade == nil {
		t.Fatal("expected a full close with an emitted trade")
	}
	if _, stillOpen := s.Position(pos.ID); stillOpen {
		t.Fatal("expected the position removed from the open set")
	}
	trades := s.RecentTrades(1)
	if len(trades) != 1 || trades[0].ExitTypeV != store.ExitStop {
		t.Fatalf("expected the trade recorded in history, got %+v", trades)
	}
}

func TestApplyExitPartialTP1KeepsPositionOpen(t *testing.T) {
	s := store.New(nil)
	sz := hydra.Size(10000, 100, 1.0, 88, 0.01, 0.08)
	base := hydra.NewPosition("BTC-USD", 100, sz)
	base.Strategy = store.StrategyHydra
	pos, _ := Open(s, base, time.Now())

	ledger := NewPaperLedger(10000)
	trade, closed := ApplyExit(s, ledger, pos, store.ExitTP1, pos.TP1ClosePct, pos.TP1, 0, time.Now())
	if closed || trade != nil {
		t.Fatal("expected a partial TP1 close to keep the position open")
	}
	if !pos.TP1Hit {
		t.Fatal("expected TP1Hit set")
	}
	if _, stillOpen := s.Position(pos.ID); !stillOpen {
		t.Fatal("expected the position to remain open after a partial close")
	}
}
