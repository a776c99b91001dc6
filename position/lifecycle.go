package position

import (
	"time"

	"github.com/google/uuid"

	"tradeforge/hydra"
	"tradeforge/store"
	"tradeforge/vipermode"
)

// Status is the PLM's state machine: OPEN -> PARTIAL_TP1 -> PARTIAL_TP2
// -> CLOSED, with every state able to transition directly to CLOSED
// (spec.md §4.8). store.Position has no separate status field — Status
// is derived from TP1Hit/TP2Hit/Quantity so the two can never disagree.
type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusPartialTP1  Status = "PARTIAL_TP1"
	StatusPartialTP2  Status = "PARTIAL_TP2"
	StatusClosed      Status = "CLOSED"
)

// StatusOf derives a position's lifecycle status from its TP1Hit/TP2Hit
// flags and remaining quantity.
func StatusOf(pos *store.Position) Status {
	if pos.Quantity <= 0 {
		return StatusClosed
	}
	if pos.TP2Hit {
		return StatusPartialTP2
	}
	if pos.TP1Hit {
		return StatusPartialTP1
	}
	return StatusOpen
}

// Open creates a new managed position, assigns its id/entry timestamp,
// and registers it in the MSS. Callers (HYDRA/VIPER, after the Risk &
// Portfolio Gate has approved the candidate) build the store.Position
// value via hydra.NewPosition or a vipermode sizing helper and pass it
// here.
func Open(s *store.Store, pos store.Position, now time.Time) (*store.Position, bool) {
	pos.ID = uuid.New().String()
	pos.EntryTs = now
	if pos.OriginalQuantity == 0 {
		pos.OriginalQuantity = pos.Quantity
	}
	p := pos
	if !s.AddPosition(&p) {
		return nil, false
	}
	return &p, true
}

// MarketContext bundles everything EvaluateExit might need, across every
// strategy/mode; only the fields relevant to a position's own
// strategy/mode are read.
type MarketContext struct {
	High, Low, Close float64
	HeldFor          time.Duration
	ExitScore        float64 // HYDRA's D1+D2+D3 recombination
	StochK, StochD   float64
	EMA9, EMA21      float64
	ATR14            float64
	StrikeParams     vipermode.StrikeParams
}

// EvaluateExit dispatches to the owning strategy/mode's exit monitor and
// returns a normalized signal, or fired=false if nothing triggers this
// tick.
func EvaluateExit(pos *store.Position, m MarketContext) (exitType store.ExitType, closePct float64, price float64, fired bool) {
	switch pos.Strategy {
	case store.StrategyHydra:
		bar := hydra.Bar{High: m.High, Low: m.Low, Close: m.Close}
		action := hydra.EvaluateExit(pos, bar, m.ExitScore)
		if action.Kind == hydra.ExitNone {
			return "", 0, 0, false
		}
		return store.ExitType(action.Kind), action.ClosePct, action.Price, true

	case store.StrategyViper:
		switch pos.Mode {
		case store.ModeStrike:
			kind, pct, price := vipermode.EvaluateStrikeExit(pos.EntryPrice, m.Close, m.HeldFor, m.StrikeParams, m.StochK, m.StochD)
			if kind == "" {
				return "", 0, 0, false
			}
			return store.ExitType(kind), pct, price, true

		case store.ModeCoil:
			p := vipermode.CoilExitParams{
				Support: pos.RangeSupport,
				Width:   pos.RangeResistance - pos.RangeSupport,
				ATR14:   m.ATR14,
			}
			kind, pct, price := vipermode.EvaluateCoilExit(p, pos.EntryPrice, m.Close, pos.TP1Hit)
			if kind == "" {
				return "", 0, 0, false
			}
			return store.ExitType(kind), pct, price, true

		case store.ModeLunge:
			p := vipermode.LungeExitParams{EntryPrice: pos.EntryPrice, ATR14: m.ATR14}
			kind, pct, price := vipermode.EvaluateLungeExit(p, m.Close, pos.HighSinceTP1, pos.TP1Hit, pos.TP2Hit, m.EMA9, m.EMA21)
			if kind == "" {
				return "", 0, 0, false
			}
			return store.ExitType(kind), pct, price, true
		}
	}
	return "", 0, 0, false
}

// ApplyExit applies one fired exit signal to a managed position: it
// updates TP1Hit/TP2Hit/HighSinceTP1/Quantity, realizes P&L through the
// ledger, and — once the position is fully closed — emits the Trade
// record, updates the MSS, and returns it so the caller (the engine)
// can start the per-pair cooldown clock.
func ApplyExit(s *store.Store, ledger Ledger, pos *store.Position, exitType store.ExitType, closePct, price float64, fees float64, now time.Time) (*store.Trade, bool) {
	qty := pos.OriginalQuantity * closePct
	if qty > pos.Quantity {
		qty = pos.Quantity
	}
	pnl := qty * (price - pos.EntryPrice)
	netPnL := pnl - fees
	pos.Quantity -= qty
	ledger.ApplyRealizedPnL(netPnL, fees)

	switch exitType {
	case store.ExitTP1:
		pos.TP1Hit = true
		pos.HighSinceTP1 = price
	case store.ExitTP2:
		pos.TP2Hit = true
	}
	hydra.UpdateHighSinceTP1(pos, price)

	if pos.Quantity > 1e-9 {
		return nil, false
	}

	pos.ExitReason = string(exitType)
	trade := store.Trade{
		Position:  *pos,
		ExitPrice: price,
		ClosedTs:  now,
		PnL:       pnl,
		Fees:      fees,
		NetPnL:    netPnL,
		ExitTypeV: exitType,
	}
	s.ClosePosition(pos.ID, trade)
	return &trade, true
}
